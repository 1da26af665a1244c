// Package store defines the persistence interface for the ledger.
// Implementations include Redis (the hosted document store) and
// in-memory (for testing and development).
package store

import (
	"context"

	"casino-ledger-backend/internal/models"
)

// AccountStore persists one flat document per account. Update is the
// atomicity boundary: the closure runs under read-modify-write isolation
// scoped to exactly one account, so concurrent updates to the same
// account serialize while different accounts never block each other.
type AccountStore interface {
	// Create writes a new account document. ErrAccountExists if present.
	Create(ctx context.Context, acc *models.Account) error

	// Get returns the normalized account. ErrAccountNotFound if absent.
	Get(ctx context.Context, id string) (*models.Account, error)

	// Update atomically applies the closure to the current record and
	// commits the result. The closure must be pure: it may be re-run on
	// transaction conflicts. Any error it returns aborts the update with
	// no side effect. Returns the committed record.
	Update(ctx context.Context, id string, apply func(*models.Account) error) (*models.Account, error)

	// Overwrite replaces the whole document, creating it if absent.
	// Administrative path; bypasses the Update closure machinery.
	Overwrite(ctx context.Context, acc *models.Account) error

	// Delete removes the account document. ErrAccountNotFound if absent.
	Delete(ctx context.Context, id string) error

	// ListIDs returns the ids of every stored account. Point-in-time
	// snapshot, no cross-account consistency guarantee.
	ListIDs(ctx context.Context) ([]string, error)

	// GetDocument returns the raw key-value document for migration
	// tooling, without normalization.
	GetDocument(ctx context.Context, id string) (map[string]any, error)

	// MergeDocument adds the given fields to the document, atomically,
	// without touching keys that are already present.
	MergeDocument(ctx context.Context, id string, fields map[string]any) error
}

// JournalStore appends immutable balance-mutation records and serves
// recent history per account.
type JournalStore interface {
	Append(ctx context.Context, entry *models.JournalEntry) error
	History(ctx context.Context, accountID string, limit int64) ([]*models.JournalEntry, error)
}
