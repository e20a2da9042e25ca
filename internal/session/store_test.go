package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, ok := s.Get(KeySubmissionID)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeySubmissionID, "sub-1"))
	require.NoError(t, s.Set(KeyCurrentStep, "2"))

	v, ok := s.Get(KeySubmissionID)
	require.True(t, ok)
	assert.Equal(t, "sub-1", v)

	require.NoError(t, s.Set(KeySubmissionID, "sub-2"))
	v, _ = s.Get(KeySubmissionID)
	assert.Equal(t, "sub-2", v, "last write wins")

	require.NoError(t, s.Delete(KeyCurrentStep))
	_, ok = s.Get(KeyCurrentStep)
	assert.False(t, ok)

	require.NoError(t, s.Clear())
	_, ok = s.Get(KeySubmissionID)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	f, err := OpenFile(path)
	require.NoError(t, err)
	exerciseStore(t, f)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	f, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Set(KeySubmissionID, "sub-1"))
	require.NoError(t, f.Set(KeyFormData, `{"firstName":"Ada"}`))

	g, err := OpenFile(path)
	require.NoError(t, err)
	v, ok := g.Get(KeySubmissionID)
	require.True(t, ok)
	assert.Equal(t, "sub-1", v)
}

func TestFileStoreCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	f, err := OpenFile(path)
	require.NoError(t, err)
	_, ok := f.Get(KeySubmissionID)
	assert.False(t, ok)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}
