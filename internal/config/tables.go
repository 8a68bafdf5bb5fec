// Table-name lookup.
//
// The physical DynamoDB table name is supplied by the environment under a
// well-known key and resolved lazily: Lambda cold starts should not pay
// for lookups the invocation may not need, and a missing name must fail
// the invocation (ConfigLookupFailed), not the process. The cache is
// process-scoped with an explicit Refresh rather than an implicit
// singleton, so a rotated value can be picked up without a restart.
package config

import (
	"os"
	"strings"
	"sync"

	"github.com/fieldserve/go-orders-backend/internal/domain"
)

// ServiceOrderTableKey is the well-known lookup key for the service-order
// table name.
const ServiceOrderTableKey = "DYNAMODB_TABLE_NAME"

// LookupFunc resolves a well-known key to a physical name.
type LookupFunc func(key string) (string, bool)

// Tables resolves and caches physical table names.
type Tables struct {
	mu     sync.Mutex
	lookup LookupFunc
	cache  map[string]string
}

// NewTables builds a Tables over the given lookup; nil means the process
// environment.
func NewTables(lookup LookupFunc) *Tables {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Tables{lookup: lookup, cache: map[string]string{}}
}

// Resolve returns the physical name for key, consulting the cache first.
// A missing or empty value is a ConfigLookupFailed error.
func (t *Tables) Resolve(key string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if name, ok := t.cache[key]; ok {
		return name, nil
	}
	name, ok := t.lookup(key)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", domain.ConfigLookupFailed(key, nil)
	}
	t.cache[key] = name
	return name, nil
}

// Refresh drops every cached name so the next Resolve re-reads the source.
func (t *Tables) Refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache = map[string]string{}
}
