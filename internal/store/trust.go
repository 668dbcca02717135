package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
)

// TrustCache is the persisted, case-insensitive set of ToolIds (without
// version) the user has explicitly accepted. It mediates every Install.
type TrustCache struct {
	path string
	mu   sync.Mutex
	set  map[string]bool // canonical provider/scope/name -> true
}

type trustFile struct {
	Trusted []string `json:"trusted"`
}

// LoadTrustCache reads trust.json at path, treating a missing file as an
// empty cache rather than an error.
func LoadTrustCache(path string) (*TrustCache, error) {
	tc := &TrustCache{path: path, set: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return tc, nil
	}
	if err != nil {
		return nil, rerr.New(rerr.KindStoreIO, "store.LoadTrustCache", err)
	}

	var f trustFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, rerr.New(rerr.KindStoreIO, "store.LoadTrustCache", err)
	}
	for _, entry := range f.Trusted {
		tc.set[strings.ToLower(entry)] = true
	}
	return tc, nil
}

// Contains reports whether id is trusted, compared case-insensitively.
func (t *TrustCache) Contains(id model.ToolId) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.set[id.CanonicalKey()]
}

// Add trusts id and persists the cache.
func (t *TrustCache) Add(id model.ToolId) error {
	t.mu.Lock()
	t.set[id.CanonicalKey()] = true
	t.mu.Unlock()
	return t.save()
}

// Remove untrusts id and persists the cache.
func (t *TrustCache) Remove(id model.ToolId) error {
	t.mu.Lock()
	delete(t.set, id.CanonicalKey())
	t.mu.Unlock()
	return t.save()
}

// List returns every trusted canonical id, sorted.
func (t *TrustCache) List() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.set))
	for k := range t.set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (t *TrustCache) save() error {
	t.mu.Lock()
	keys := make([]string, 0, len(t.set))
	for k := range t.set {
		keys = append(keys, k)
	}
	t.mu.Unlock()
	sort.Strings(keys)

	data, err := json.MarshalIndent(trustFile{Trusted: keys}, "", "  ")
	if err != nil {
		return rerr.New(rerr.KindStoreIO, "store.TrustCache.save", err)
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return rerr.New(rerr.KindStoreIO, "store.TrustCache.save", err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return rerr.New(rerr.KindStoreIO, "store.TrustCache.save", err)
	}
	return nil
}
