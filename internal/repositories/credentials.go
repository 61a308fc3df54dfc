package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/shared"
)

// CredentialRepository stores one refresh credential per owner and provider.
type CredentialRepository struct {
	store
}

// NewCredentialRepository creates a new CredentialRepository with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{store: newStore(db)}
}

// Save inserts the credential or replaces the stored token for the same owner and provider.
func (r *CredentialRepository) Save(ctx context.Context, c *models.Credential) error {
	if c.Provider == "" {
		c.Provider = models.ProviderGoogle
	}
	if err := c.Validate(); err != nil {
		return err
	}

	ts := now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = ts
	}
	c.UpdatedAt = ts

	query := `
		INSERT INTO credentials (user_id, provider, refresh_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, provider) DO UPDATE
		SET refresh_token = excluded.refresh_token, updated_at = excluded.updated_at
	`
	if _, err := r.exec(ctx, query, c.UserID, c.Provider, c.RefreshToken, c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Get retrieves the credential for an owner and provider.
//
// A missing row is reported as [shared.ErrNoRefreshToken].
func (r *CredentialRepository) Get(ctx context.Context, userID, provider string) (*models.Credential, error) {
	query := `
		SELECT user_id, provider, refresh_token, created_at, updated_at
		FROM credentials
		WHERE user_id = ? AND provider = ?
	`

	var c models.Credential
	err := r.queryRow(ctx, query, userID, provider).
		Scan(&c.UserID, &c.Provider, &c.RefreshToken, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for user %s", shared.ErrNoRefreshToken, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}
	if c.RefreshToken == "" {
		return nil, fmt.Errorf("%w for user %s", shared.ErrNoRefreshToken, userID)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// RefreshToken returns the stored Google refresh token for an owner.
func (r *CredentialRepository) RefreshToken(ctx context.Context, userID string) (string, error) {
	c, err := r.Get(ctx, userID, models.ProviderGoogle)
	if err != nil {
		return "", err
	}
	return c.RefreshToken, nil
}

// Delete removes the credential for an owner and provider.
func (r *CredentialRepository) Delete(ctx context.Context, userID, provider string) error {
	result, err := r.exec(ctx, `DELETE FROM credentials WHERE user_id = ? AND provider = ?`, userID, provider)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return expectRows(result, "credential", userID)
}
