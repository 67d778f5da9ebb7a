// Package wikilink translates inline links between the local [[Title]]
// notation and remote object hyperlinks.
package wikilink

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/gebo/internal/vault"
)

// CacheTTL is how long the title index stays valid before a lazy rebuild.
const CacheTTL = 30 * time.Second

var (
	localLinkRe  = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]+))?\]\]`)
	remoteLinkRe = regexp.MustCompile(`\[([^\]]*)\]\(remote://object\?([^)]*)\)`)
)

// Target is the remote identity a document title resolves to.
type Target struct {
	ObjectID string
	SpaceID  string
}

// Resolver maintains a lazily rebuilt index of local document titles to
// remote identities. Safe for concurrent use: in serve mode the watcher
// invalidates the cache while request goroutines translate links.
type Resolver struct {
	store  vault.Provider
	now    func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	index   map[string]Target
	builtAt time.Time
}

// NewResolver creates a resolver backed by the given vault.
func NewResolver(store vault.Provider, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// ToRemote rewrites [[Title]] and [[Title|Display]] occurrences whose
// target resolves inside spaceID into remote object hyperlinks. Unresolved
// links pass through untouched, and any internal failure returns the input
// unmodified: translation is fail-safe, never fail-destructive.
func (r *Resolver) ToRemote(text, spaceID string) string {
	if text == "" {
		return text
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		r.logger.Warn("wikilink: cache rebuild failed, links left as-is",
			slog.String("error", err.Error()))
		return text
	}
	return localLinkRe.ReplaceAllStringFunc(text, func(match string) string {
		m := localLinkRe.FindStringSubmatch(match)
		if m == nil {
			return match
		}
		target := strings.TrimSpace(m[1])
		display := strings.TrimSpace(m[2])
		if display == "" {
			display = target
		}
		hit, ok := r.lookup(target)
		if !ok || hit.SpaceID != spaceID {
			return match
		}
		return fmt.Sprintf("[%s](remote://object?objectId=%s&spaceId=%s)",
			display, url.QueryEscape(hit.ObjectID), url.QueryEscape(hit.SpaceID))
	})
}

// ToLocal rewrites remote object hyperlinks back into [[Display]] links.
// The object id is discarded: local linking is by title only. Text without
// remote links passes through unchanged.
func ToLocal(text string) string {
	if text == "" {
		return text
	}
	return remoteLinkRe.ReplaceAllStringFunc(text, func(match string) string {
		m := remoteLinkRe.FindStringSubmatch(match)
		if m == nil || strings.TrimSpace(m[1]) == "" {
			return match
		}
		return "[[" + strings.TrimSpace(m[1]) + "]]"
	})
}

// Resolve returns the remote identity for a document title, using the
// three-tier fallback, rebuilding the cache first when stale.
func (r *Resolver) Resolve(title string) (Target, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		return Target{}, false
	}
	return r.lookup(title)
}

// lookup applies the ranked fallback: exact title, case-insensitive title,
// then substring containment in either direction. The fallback tiers scan
// titles in sorted order so ties always break the same way. Caller holds
// r.mu.
func (r *Resolver) lookup(title string) (Target, bool) {
	if t, ok := r.index[title]; ok {
		return t, true
	}
	keys := make([]string, 0, len(r.index))
	for k := range r.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lower := strings.ToLower(title)
	for _, k := range keys {
		if strings.ToLower(k) == lower {
			return r.index[k], true
		}
	}
	for _, k := range keys {
		kl := strings.ToLower(k)
		if strings.Contains(kl, lower) || strings.Contains(lower, kl) {
			return r.index[k], true
		}
	}
	return Target{}, false
}

// refresh rebuilds the index when empty or older than CacheTTL. Only
// documents carrying both id and space_id headers are indexed; each is
// indexed under its file title and additionally under its declared name
// when the two differ. Caller holds r.mu.
func (r *Resolver) refresh() error {
	if r.index != nil && r.now().Sub(r.builtAt) < CacheTTL {
		return nil
	}
	infos, err := r.store.List("")
	if err != nil {
		return fmt.Errorf("wikilink: list vault: %w", err)
	}
	index := make(map[string]Target, len(infos))
	for _, fi := range infos {
		doc, err := r.store.ReadDocument(fi.Path)
		if err != nil {
			continue
		}
		objectID, spaceID := doc.ObjectID()
		if objectID == "" || spaceID == "" {
			continue
		}
		target := Target{ObjectID: objectID, SpaceID: spaceID}
		fileTitle := strings.TrimSuffix(path.Base(fi.Path), ".md")
		index[fileTitle] = target
		if name, _ := doc.Header["name"].(string); name != "" && name != fileTitle {
			index[name] = target
		}
	}
	r.index = index
	r.builtAt = r.now()
	r.logger.Debug("wikilink: cache rebuilt", slog.Int("titles", len(index)))
	return nil
}

// ClearCache empties the index and forces a rebuild on next use. The
// watcher calls this on every vault change.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = nil
	r.builtAt = time.Time{}
}
