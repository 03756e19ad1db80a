// Package blacklist holds revoked-but-unexpired session tokens. An entry's
// expiry equals the expiry extracted from the token at revocation time, so
// the registry never needs to outlive the token's natural lifetime.
package blacklist

import (
	"context"
	"time"
)

// Registry is the revocation capability injected into the auth service.
// Implementations must be safe for concurrent use from arbitrary goroutines.
type Registry interface {
	// Revoke records the token as invalid until expiresAt. Revoking an
	// already-revoked token overwrites the entry and is not an error.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error

	// Contains reports whether the token has a live revocation entry.
	// Entries past their expiry are treated as absent and may be purged.
	Contains(ctx context.Context, token string) (bool, error)
}
