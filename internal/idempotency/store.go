// Package idempotency remembers the result of a keyed request so a retried
// request returns the original result instead of acting twice.
package idempotency

import (
	"context"
	"strings"
)

type Store interface {
	// Lookup returns the value remembered for key.
	Lookup(ctx context.Context, key string) (string, bool, error)
	// Remember stores value under key unless the key is already taken.
	// It reports whether this call stored it.
	Remember(ctx context.Context, key, value string) (bool, error)
	Close() error
}

// Key joins a scope and its parts into one namespaced key.
func Key(scope string, parts ...string) string {
	return "idem:" + scope + ":" + strings.Join(parts, ":")
}
