package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type credentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository wires a credential repository backed by pgxpool.
func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepository{pool: pool}
}

func (r *credentialRepository) ResolveTokenHash(ctx context.Context, tokenHash string) (Credential, error) {
	var cred Credential
	err := r.pool.QueryRow(
		ctx,
		`SELECT company_id, COALESCE(label, '') FROM api_credentials WHERE token_hash = $1 AND revoked_at IS NULL`,
		tokenHash,
	).Scan(&cred.CompanyID, &cred.Label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, ErrNotFound
		}
		return Credential{}, fmt.Errorf("failed to resolve credential: %w", err)
	}
	return cred, nil
}
