// cache.go provides an in-memory cache of template analyses. This is the
// L1 cache: it avoids re-scanning and re-classifying a body on every
// preview. Entries are keyed by template ID and version, so an update to
// the body or any field (which bumps version) automatically misses.
package engine

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"lexdesk/internal/placeholder"
)

// cachedAnalysis is the classification of one template version.
type cachedAnalysis struct {
	version int
	cl      *placeholder.Classification
}

// analysisCache is a concurrency-safe in-memory cache of classifications.
// It keeps only the newest analysed version of each template.
type analysisCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]cachedAnalysis
}

func newAnalysisCache() *analysisCache {
	return &analysisCache{
		entries: make(map[uuid.UUID]cachedAnalysis),
	}
}

// get retrieves a classification from cache. Returns nil on miss.
func (c *analysisCache) get(id uuid.UUID, version int) *placeholder.Classification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[id]; ok && e.version == version {
		return e.cl
	}
	return nil
}

// put stores cl, replacing an older version of the same template. A
// request that loaded the template before an update cannot push out the
// newer entry.
func (c *analysisCache) put(id uuid.UUID, version int, cl *placeholder.Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok && e.version > version {
		return
	}
	c.entries[id] = cachedAnalysis{version: version, cl: cl}
	slog.Debug("template analysis cached", "id", id, "version", version, "size", len(c.entries))
}

// invalidate removes all cached versions for a given template ID.
// Called when a template is deleted.
func (c *analysisCache) invalidate(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	slog.Debug("template analysis invalidated", "id", id)
}

func (c *analysisCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
