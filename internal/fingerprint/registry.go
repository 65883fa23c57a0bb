package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/MOYARU/verid/internal/versionid"
)

var ErrUnknownCollection = errors.New("unknown collection")

// Registry holds the collections a long-running process serves, keyed by
// collection key. Reload swaps the whole set atomically.
type Registry struct {
	loader    *Loader
	locations []string

	mu          sync.RWMutex
	collections map[string]*versionid.Collection
}

func NewRegistry(loader *Loader, locations ...string) *Registry {
	return &Registry{
		loader:      loader,
		locations:   locations,
		collections: make(map[string]*versionid.Collection),
	}
}

// Reload reads every location again. On failure the previous set stays.
func (r *Registry) Reload(ctx context.Context) error {
	next := make(map[string]*versionid.Collection, len(r.locations))
	for _, loc := range r.locations {
		c, err := r.loader.Load(ctx, loc)
		if err != nil {
			return err
		}
		key := strings.ToLower(c.Key)
		if key == "" {
			return fmt.Errorf("%w: %s has no key", versionid.ErrMalformedCollection, loc)
		}
		if _, dup := next[key]; dup {
			return fmt.Errorf("duplicate collection key %q in %s", c.Key, loc)
		}
		next[key] = c
	}

	r.mu.Lock()
	r.collections = next
	r.mu.Unlock()
	return nil
}

// Put registers c directly, replacing any collection with the same key.
func (r *Registry) Put(c *versionid.Collection) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.collections[strings.ToLower(c.Key)] = c
	r.mu.Unlock()
	return nil
}

func (r *Registry) Get(key string) (*versionid.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[strings.ToLower(key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, key)
	}
	return c, nil
}

// Keys lists the registered collection keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.collections))
	for k := range r.collections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
