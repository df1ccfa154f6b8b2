package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no integration matches the given id.
var ErrNotFound = errors.New("integration not found")

// Integration is one connected Zoom account. Auth material is either the
// client credentials triple (server-to-server apps) or a refresh token
// (OAuth apps); both kinds carry a cached access token with its expiry.
type Integration struct {
	ID           uuid.UUID
	AccountID    string
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccessToken  string
	TokenExpiry  time.Time
	AdminEmail   string
	CreatedAt    time.Time
}

// TokenUpdate describes what must be written back after a successful token
// exchange. RefreshToken is empty unless the provider rotated it.
type TokenUpdate struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// PersistError reports a failed credential write-back. The freshly obtained
// token stays usable in memory for the remainder of the run.
type PersistError struct {
	IntegrationID uuid.UUID
	Err           error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist credentials for integration %s: %v", e.IntegrationID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Store is the credential store the pipeline borrows integrations from.
type Store interface {
	// ListIntegrations returns every connected integration.
	ListIntegrations(ctx context.Context) ([]Integration, error)

	// GetIntegration returns one integration by id, or ErrNotFound.
	GetIntegration(ctx context.Context, id uuid.UUID) (Integration, error)

	// CreateIntegration inserts the record unless one with the same account
	// id already exists. Returns false without error on a duplicate.
	CreateIntegration(ctx context.Context, integ Integration) (bool, error)

	// UpdateToken overwrites the cached access token, its expiry, and the
	// refresh token when the update carries one.
	UpdateToken(ctx context.Context, id uuid.UUID, upd TokenUpdate) error

	// DeleteIntegration disconnects an integration.
	DeleteIntegration(ctx context.Context, id uuid.UUID) error
}
