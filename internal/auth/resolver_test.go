package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/aqlhr/ingest/internal/repository"

	"github.com/google/uuid"
)

type stubCredentialRepo struct {
	byHash map[string]repository.Credential
}

func (s *stubCredentialRepo) ResolveTokenHash(_ context.Context, tokenHash string) (repository.Credential, error) {
	if cred, ok := s.byHash[tokenHash]; ok {
		return cred, nil
	}
	return repository.Credential{}, repository.ErrNotFound
}

func TestResolveReturnsBoundCompany(t *testing.T) {
	companyID := uuid.New()
	repo := &stubCredentialRepo{byHash: map[string]repository.Credential{
		HashToken("secret-token"): {CompanyID: companyID, Label: "hr-sync"},
	}}
	resolver := NewResolver(repo)

	identity, err := resolver.Resolve(context.Background(), "Bearer secret-token", uuid.Nil)
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if identity.CompanyID != companyID {
		t.Fatalf("expected %s, got %s", companyID, identity.CompanyID)
	}
	if identity.Label != "hr-sync" {
		t.Fatalf("expected credential label %q, got %q", "hr-sync", identity.Label)
	}
}

func TestResolveUnknownTokenIsUnauthorized(t *testing.T) {
	resolver := NewResolver(&stubCredentialRepo{byHash: map[string]repository.Credential{}})

	_, err := resolver.Resolve(context.Background(), "unknown", uuid.Nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestResolveEmptyTokenIsUnauthorized(t *testing.T) {
	resolver := NewResolver(&stubCredentialRepo{byHash: map[string]repository.Credential{}})

	_, err := resolver.Resolve(context.Background(), "", uuid.Nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestResolveHintedTenantMismatch(t *testing.T) {
	companyID := uuid.New()
	repo := &stubCredentialRepo{byHash: map[string]repository.Credential{
		HashToken("secret-token"): {CompanyID: companyID},
	}}
	resolver := NewResolver(repo)

	_, err := resolver.Resolve(context.Background(), "secret-token", uuid.New())
	if !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch, got %v", err)
	}
}

func TestResolveHintedTenantMatchSucceeds(t *testing.T) {
	companyID := uuid.New()
	repo := &stubCredentialRepo{byHash: map[string]repository.Credential{
		HashToken("secret-token"): {CompanyID: companyID},
	}}
	resolver := NewResolver(repo)

	identity, err := resolver.Resolve(context.Background(), "secret-token", companyID)
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if identity.CompanyID != companyID {
		t.Fatalf("expected %s, got %s", companyID, identity.CompanyID)
	}
}
