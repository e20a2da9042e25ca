// Package formcache maintains a JSON file cache of the remote form
// catalog so static slug generation works without a live API.
package formcache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/investify/onboard/internal/client"
	"github.com/investify/onboard/internal/models"
)

// DefaultUpdateInterval is how long a cache stays fresh.
const DefaultUpdateInterval = time.Hour

// FallbackSlugs always make it into slug generation, cache or no cache.
var FallbackSlugs = []string{
	"varta-ag",
	"investment-application",
	"contact-form",
	"survey-form",
	"investor-onboarding",
}

// FormsLister is the slice of the API client the cache needs.
type FormsLister interface {
	ListForms(ctx context.Context) client.Envelope[[]models.Form]
}

// snapshot is the on-disk shape. lastUpdated is ISO-8601 and the
// interval is in milliseconds, matching the catalog exports the file
// is shared with.
type snapshot struct {
	Forms          []models.CachedForm `json:"forms"`
	LastUpdated    *string             `json:"lastUpdated"`
	UpdateInterval int64               `json:"updateInterval"`
}

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func (s snapshot) lastUpdated() *time.Time {
	if s.LastUpdated == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s.LastUpdated)
	if err != nil {
		return nil
	}
	return &t
}

// interval returns the refresh interval recorded in the file itself,
// or zero when absent. A file written with a longer interval stays
// authoritative over whatever the running process was configured with.
func (s snapshot) interval() time.Duration {
	if s.UpdateInterval <= 0 {
		return 0
	}
	return time.Duration(s.UpdateInterval) * time.Millisecond
}

// Cache reads and refreshes the form catalog file.
type Cache struct {
	Path     string
	Interval time.Duration
	API      FormsLister
	Log      *zap.Logger

	now func() time.Time
}

// New creates a cache over path with the default refresh interval.
func New(path string, api FormsLister, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		Path:     path,
		Interval: DefaultUpdateInterval,
		API:      api,
		Log:      log,
		now:      time.Now,
	}
}

// Read loads the cache file. A missing or unreadable file yields an
// empty, never-updated cache rather than an error; slug generation must
// work from a cold start.
func (c *Cache) Read() (forms []models.CachedForm, lastUpdated *time.Time) {
	snap := c.read()
	return snap.Forms, snap.lastUpdated()
}

func (c *Cache) read() snapshot {
	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return snapshot{}
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.Log.Warn("ignoring unreadable form cache", zap.String("path", c.Path), zap.Error(err))
		return snapshot{}
	}
	return snap
}

// ShouldUpdate reports whether the cache is stale: never written, or
// older than the interval the file itself records. The configured
// interval only applies when the file carries none.
func (c *Cache) ShouldUpdate() bool {
	snap := c.read()
	last := snap.lastUpdated()
	if last == nil {
		return true
	}
	return c.now().Sub(*last) >= c.staleness(snap)
}

// NextUpdate returns when the cache next goes stale. A never-written
// cache is due immediately.
func (c *Cache) NextUpdate() time.Time {
	snap := c.read()
	last := snap.lastUpdated()
	if last == nil {
		return c.now()
	}
	return last.Add(c.staleness(snap))
}

func (c *Cache) staleness(snap snapshot) time.Duration {
	if d := snap.interval(); d > 0 {
		return d
	}
	return c.interval()
}

// Refresh fetches the live catalog and rewrites the cache file. On API
// failure the existing file is left untouched so stale data keeps
// serving.
func (c *Cache) Refresh(ctx context.Context) error {
	env := c.API.ListForms(ctx)
	if !env.Success {
		return fmt.Errorf("list forms: %s", env.Message)
	}
	cached := make([]models.CachedForm, 0, len(env.Data))
	for _, f := range env.Data {
		cached = append(cached, f.Cached())
	}
	now := c.now().UTC().Format(timestampLayout)
	snap := snapshot{
		Forms:          cached,
		LastUpdated:    &now,
		UpdateInterval: c.interval().Milliseconds(),
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode form cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(c.Path, raw, 0o644); err != nil {
		return fmt.Errorf("write form cache: %w", err)
	}
	c.Log.Info("form cache refreshed",
		zap.Int("forms", len(cached)),
		zap.String("path", c.Path))
	return nil
}

// SlugsForGeneration returns the slug set for static generation. Live
// API first, cache file second, and the fallback list always unioned
// in. Order is first-seen, duplicates dropped.
func (c *Cache) SlugsForGeneration(ctx context.Context) []string {
	if env := c.API.ListForms(ctx); env.Success {
		slugs := make([]string, 0, len(env.Data))
		for _, f := range env.Data {
			slugs = append(slugs, f.Slug)
		}
		return unionSlugs(slugs, FallbackSlugs)
	}
	c.Log.Warn("live form listing unavailable, using cached slugs")
	forms, _ := c.Read()
	slugs := make([]string, 0, len(forms))
	for _, f := range forms {
		slugs = append(slugs, f.Slug)
	}
	return unionSlugs(slugs, FallbackSlugs)
}

// StartAutoRefresh refreshes on a ticker until ctx is done. The first
// refresh happens immediately if the cache is stale.
func (c *Cache) StartAutoRefresh(ctx context.Context) {
	if c.ShouldUpdate() {
		if err := c.Refresh(ctx); err != nil {
			c.Log.Warn("form cache refresh failed", zap.Error(err))
		}
	}
	ticker := time.NewTicker(c.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.Log.Warn("form cache refresh failed", zap.Error(err))
			}
		}
	}
}

func (c *Cache) interval() time.Duration {
	if c.Interval <= 0 {
		return DefaultUpdateInterval
	}
	return c.Interval
}

func unionSlugs(primary, extra []string) []string {
	seen := make(map[string]bool, len(primary)+len(extra))
	out := make([]string, 0, len(primary)+len(extra))
	for _, s := range append(append([]string{}, primary...), extra...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
