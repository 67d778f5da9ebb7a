// Package tags caches select/multi_select option sets per property and
// resolves between option names and ids.
package tags

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/gebo/internal/models"
)

// TTL is how long a cached option set stays valid after SetTags.
const TTL = 5 * time.Minute

type entry struct {
	tags    []models.Tag
	created time.Time
}

// Resolver is a time-bounded tag cache. Safe for concurrent use: serve
// mode drives it from request goroutines and the watcher at once.
type Resolver struct {
	mu     sync.Mutex
	cache  map[string]entry
	now    func() time.Time
	logger *slog.Logger
}

// NewResolver creates an empty resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cache:  make(map[string]entry),
		now:    time.Now,
		logger: logger,
	}
}

// SetTags replaces the cached option set for a property and resets its
// timestamp.
func (r *Resolver) SetTags(propertyID string, list []models.Tag) {
	if propertyID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[propertyID] = entry{tags: list, created: r.now()}
}

// GetTags returns the cached option set, or false when missing or expired.
// Expired entries are evicted on read.
func (r *Resolver) GetTags(propertyID string) ([]models.Tag, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.cache[propertyID]
	if !ok {
		return nil, false
	}
	if r.now().Sub(e.created) >= TTL {
		delete(r.cache, propertyID)
		return nil, false
	}
	return e.tags, true
}

// IsCached reports whether an unexpired entry exists for the property.
func (r *Resolver) IsCached(propertyID string) bool {
	_, ok := r.GetTags(propertyID)
	return ok
}

// NameToID resolves a tag name to its id, case-insensitively.
func (r *Resolver) NameToID(propertyID, name string) (string, bool) {
	list, ok := r.GetTags(propertyID)
	if !ok {
		return "", false
	}
	for _, t := range list {
		if strings.EqualFold(t.Name, name) {
			return t.ID, true
		}
	}
	return "", false
}

// IDToName resolves a tag id to its display name.
func (r *Resolver) IDToName(propertyID, id string) (string, bool) {
	list, ok := r.GetTags(propertyID)
	if !ok {
		return "", false
	}
	for _, t := range list {
		if t.ID == id {
			return t.Name, true
		}
	}
	return "", false
}

// NamesToIDs resolves each name, dropping the unresolved ones. The number
// of misses is logged, never raised.
func (r *Resolver) NamesToIDs(propertyID string, names []string) []string {
	out := make([]string, 0, len(names))
	missed := 0
	for _, n := range names {
		if id, ok := r.NameToID(propertyID, n); ok {
			out = append(out, id)
		} else {
			missed++
		}
	}
	if missed > 0 {
		r.logger.Debug("tags: unresolved names dropped",
			slog.String("property", propertyID), slog.Int("count", missed))
	}
	return out
}

// IDsToNames resolves each id, dropping the unresolved ones.
func (r *Resolver) IDsToNames(propertyID string, ids []string) []string {
	out := make([]string, 0, len(ids))
	missed := 0
	for _, id := range ids {
		if n, ok := r.IDToName(propertyID, id); ok {
			out = append(out, n)
		} else {
			missed++
		}
	}
	if missed > 0 {
		r.logger.Debug("tags: unresolved ids dropped",
			slog.String("property", propertyID), slog.Int("count", missed))
	}
	return out
}

// ClearProperty evicts one property's entry without touching others.
func (r *Resolver) ClearProperty(propertyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, propertyID)
}

// Clear empties the whole cache. Call at orchestrator teardown.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]entry)
}
