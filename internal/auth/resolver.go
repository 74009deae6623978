package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/aqlhr/ingest/internal/repository"

	"github.com/google/uuid"
)

var (
	// ErrUnauthorized is returned when no tenant can be derived from the
	// supplied credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTenantMismatch is returned when a hinted tenant id differs from
	// the tenant bound to the credential.
	ErrTenantMismatch = errors.New("tenant mismatch")
)

// Identity is the tenant scope derived from a request credential. Label
// carries the credential's issued name for attribution, empty when the
// credential has none.
type Identity struct {
	CompanyID uuid.UUID
	Label     string
}

// Resolver derives the tenant scope for a request from its credential.
// It has no side effects.
type Resolver struct {
	credentials repository.CredentialRepository
}

// NewResolver creates a tenant resolver backed by the credential store.
func NewResolver(credentials repository.CredentialRepository) *Resolver {
	return &Resolver{credentials: credentials}
}

// Resolve maps a bearer token to its credential identity and checks it
// against the optional hinted tenant id. Every downstream operation must
// use the returned company id as its scope.
func (r *Resolver) Resolve(ctx context.Context, token string, hinted uuid.UUID) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return Identity{}, ErrUnauthorized
	}

	cred, err := r.credentials.ResolveTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, fmt.Errorf("failed to resolve credential: %w", err)
	}

	if hinted != uuid.Nil && hinted != cred.CompanyID {
		return Identity{}, ErrTenantMismatch
	}
	return Identity{CompanyID: cred.CompanyID, Label: cred.Label}, nil
}

// HashToken returns the hex SHA-256 of a raw token, the form credentials
// are stored in.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
