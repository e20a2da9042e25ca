package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/investify/onboard/internal/formcache"
)

// CacheHandler exposes the form cache maintenance endpoints.
type CacheHandler struct {
	cache *formcache.Cache
	log   *zap.Logger
}

func NewCacheHandler(cache *formcache.Cache, log *zap.Logger) *CacheHandler {
	return &CacheHandler{cache: cache, log: log}
}

// Refresh forces an immediate catalog fetch, staleness ignored.
func (h *CacheHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Refresh(r.Context()); err != nil {
		h.log.Warn("forced cache refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	forms, last := h.cache.Read()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"forms":       len(forms),
			"lastUpdated": last,
		},
	})
}

// AutoUpdate refreshes only when the cache has gone stale.
func (h *CacheHandler) AutoUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.cache.ShouldUpdate() {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"needsUpdate": false,
				"nextUpdate":  h.cache.NextUpdate(),
			},
		})
		return
	}
	if err := h.cache.Refresh(r.Context()); err != nil {
		h.log.Warn("auto cache refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"needsUpdate": true,
			"nextUpdate":  h.cache.NextUpdate(),
		},
	})
}

// Slugs returns the slug set used for static page generation.
func (h *CacheHandler) Slugs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"slugs": h.cache.SlugsForGeneration(r.Context())},
	})
}
