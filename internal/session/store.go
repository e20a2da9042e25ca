// Package session is the wizard's persistent client store: a small
// key/value surface the controller writes its in-progress state to.
// The store is injected rather than ambient, so tests swap in Memory.
package session

import "sync"

// Keys the wizard controller persists under. The wire values match the
// browser-era layout: stringified step index, JSON form data, JSON
// array of completed step indices.
const (
	KeySubmissionID   = "investor_submission_id"
	KeyCurrentStep    = "investor_current_step"
	KeyFormData       = "investor_form_data"
	KeyCompletedSteps = "investor_completed_steps"
)

// Store is a single-writer key/value session store. Last write wins;
// the wizard reads it once on restore and only writes afterwards.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
	Clear() error
}

// Memory is an in-process Store, the default for tests and ephemeral
// sessions.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}
