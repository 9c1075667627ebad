// Package store owns the durable client-side credential store. Session
// bootstrap is the only writer; every other component treats the stored
// credentials as read-only.
package store

import (
	"context"

	"github.com/spec-kit/care-session/internal/domain"
)

// Keys used in the underlying key/value collaborator. Any other keys in
// the same store belong to unrelated concerns and are never touched.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// SessionStore persists the token/user pair across page reloads.
type SessionStore interface {
	// Load reads whatever credential evidence is present. A missing pair
	// is not an error: it returns empty Credentials.
	Load(ctx context.Context) (domain.Credentials, error)
	// Save overwrites the stored pair.
	Save(ctx context.Context, creds domain.Credentials) error
	// Clear evicts the stored pair.
	Clear(ctx context.Context) error
}
