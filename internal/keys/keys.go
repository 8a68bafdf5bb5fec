// Package keys derives the composite keys that address service-order rows.
//
// Every row is addressed by (primary = order id, secondary = customer id).
// Creation always mints a fresh random UUID; lookups take the id verbatim
// from the request path after a syntax check. A client can never choose or
// change an order id.
package keys

import (
	"github.com/google/uuid"

	"github.com/fieldserve/go-orders-backend/internal/domain"
)

// Key is the composite key pair addressing one service-order row.
type Key struct {
	// ID is the primary key: the order's generated UUID.
	ID string
	// CustomerID is the secondary key partitioning rows by owner.
	CustomerID string
}

// NewKey mints the key pair for a create: a fresh UUIDv4 primary key under
// the given customer.
func NewKey(customerID string) Key {
	return Key{ID: uuid.NewString(), CustomerID: customerID}
}

// LookupKey builds the key pair for update, delete and single-item get from
// the id supplied in the request path. It fails with InvalidIdentifier when
// rawID is not a syntactically valid UUID.
func LookupKey(rawID, customerID string) (Key, error) {
	if _, err := uuid.Parse(rawID); err != nil {
		return Key{}, domain.InvalidIdentifier(rawID)
	}
	// The id is used verbatim: normalizing it would address a different row
	// than the one the caller named.
	return Key{ID: rawID, CustomerID: customerID}, nil
}
