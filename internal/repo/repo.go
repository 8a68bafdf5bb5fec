// Package repo defines the persistence contract for service orders.
//
// Implementations translate validated logical operations into store calls
// and own item-shape construction: timestamps, attribute omission, and the
// conditional existence checks that guard update and soft-delete. Two
// implementations exist: repo/dynamo against the DynamoDB single-table
// layout, and repo/gormstore against sqlite for local development and
// transport-level tests.
//
// Error semantics:
//   - Update, SoftDelete and GetOne return a NotFound error when no row
//     exists under the addressed key.
//   - Underlying store failures surface as StoreReadFailed/StoreWriteFailed
//     with the cause wrapped.
package repo

import (
	"context"

	"github.com/fieldserve/go-orders-backend/internal/domain"
	"github.com/fieldserve/go-orders-backend/internal/keys"
)

// Repository is the persistence capability consumed by the dispatcher.
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation.
type Repository interface {
	// Insert stores a new order under the freshly minted key. LocationID,
	// when supplied, is recorded as a plain attribute for later filtering.
	Insert(ctx context.Context, k keys.Key, locationID *string, f domain.Fields) (*domain.Order, error)

	// Update merges the field set over the existing order addressed by k,
	// refreshing updatedAt. The row must already exist. PUT is a partial
	// merge: attributes absent from f are left untouched.
	Update(ctx context.Context, k keys.Key, f domain.Fields) (*domain.Order, error)

	// SoftDelete sets deletedAt on the existing order addressed by k,
	// leaving every other attribute intact. Rows are never removed.
	SoftDelete(ctx context.Context, k keys.Key) error

	// GetOne fetches the order addressed by k.
	GetOne(ctx context.Context, k keys.Key) (*domain.Order, error)

	// ListByCustomer returns every order owned by customerID, regardless of
	// deletion state, optionally filtered to a location. The result is the
	// complete set: implementations drain all underlying pages before
	// returning.
	ListByCustomer(ctx context.Context, customerID string, locationID *string) ([]domain.Order, error)
}
