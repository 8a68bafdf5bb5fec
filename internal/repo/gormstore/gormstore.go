// Package gormstore implements the service-order repository on sqlite via
// GORM. It backs local development and transport-level tests; the wire
// behavior matches the DynamoDB store.
//
// Each row carries the composite key and the location attribute as columns
// (for querying) plus the full record serialized as a JSON document, so
// attribute omission survives storage exactly: fields absent from the
// record are absent from the document, not stored as null or "".
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldserve/go-orders-backend/internal/domain"
	"github.com/fieldserve/go-orders-backend/internal/keys"
)

// orderRow is the sqlite representation of one service order.
type orderRow struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	CustomerID string    `gorm:"type:varchar(64);primaryKey;index:idx_customer_orders"`
	LocationID *string   `gorm:"type:varchar(64);index"`
	CreatedAt  time.Time `gorm:"not null"`
	Doc        []byte    `gorm:"type:blob;not null"`
}

// TableName returns the database table name for orderRow.
func (orderRow) TableName() string { return "service_orders" }

// Open opens (or creates) the sqlite database at path and migrates the
// schema. Use ":memory:" style DSNs for tests.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&orderRow{}); err != nil {
		return nil, err
	}
	return db, nil
}

// Store is a sqlite-backed service-order repository.
type Store struct {
	db *gorm.DB

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// New returns a Store over the given GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Insert stores a new order row.
func (s *Store) Insert(ctx context.Context, k keys.Key, locationID *string, f domain.Fields) (*domain.Order, error) {
	order := domain.NewOrder(k.ID, k.CustomerID, locationID, f, domain.Timestamp(s.now()))

	row, err := toRow(order, s.now())
	if err != nil {
		return nil, domain.StoreWriteFailed(err)
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, domain.StoreWriteFailed(err)
	}
	return &order, nil
}

// Update merges the field set over the existing row inside a transaction,
// the read-merge-write analogue of the conditional UpdateItem.
func (s *Store) Update(ctx context.Context, k keys.Key, f domain.Fields) (*domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := fetch(tx, k)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(row.Doc, &order); err != nil {
			return domain.StoreWriteFailed(err)
		}

		f.Merge(&order)
		ts := domain.Timestamp(s.now())
		order.UpdatedAt = &ts

		doc, err := json.Marshal(order)
		if err != nil {
			return domain.StoreWriteFailed(err)
		}
		row.Doc = doc
		if err := tx.Save(row).Error; err != nil {
			return domain.StoreWriteFailed(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SoftDelete sets deletedAt on the existing row; nothing else changes.
func (s *Store) SoftDelete(ctx context.Context, k keys.Key) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := fetch(tx, k)
		if err != nil {
			return err
		}
		var order domain.Order
		if err := json.Unmarshal(row.Doc, &order); err != nil {
			return domain.StoreWriteFailed(err)
		}

		ts := domain.Timestamp(s.now())
		order.DeletedAt = &ts

		doc, err := json.Marshal(order)
		if err != nil {
			return domain.StoreWriteFailed(err)
		}
		row.Doc = doc
		if err := tx.Save(row).Error; err != nil {
			return domain.StoreWriteFailed(err)
		}
		return nil
	})
}

// GetOne fetches the order addressed by k.
func (s *Store) GetOne(ctx context.Context, k keys.Key) (*domain.Order, error) {
	row, err := fetch(s.db.WithContext(ctx), k)
	if err != nil {
		return nil, err
	}
	var order domain.Order
	if err := json.Unmarshal(row.Doc, &order); err != nil {
		return nil, domain.StoreReadFailed(err)
	}
	return &order, nil
}

// ListByCustomer returns every order owned by customerID in creation order,
// optionally filtered by location. Soft-deleted rows are included.
func (s *Store) ListByCustomer(ctx context.Context, customerID string, locationID *string) ([]domain.Order, error) {
	q := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at asc")
	if locationID != nil {
		q = q.Where("location_id = ?", *locationID)
	}

	var rows []orderRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, domain.StoreReadFailed(err)
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		var order domain.Order
		if err := json.Unmarshal(row.Doc, &order); err != nil {
			return nil, domain.StoreReadFailed(err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// fetch loads the row addressed by k, mapping gorm's record-not-found to
// the taxonomy NotFound.
func fetch(db *gorm.DB, k keys.Key) (*orderRow, error) {
	var row orderRow
	err := db.First(&row, "id = ? AND customer_id = ?", k.ID, k.CustomerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("service order not found")
	}
	if err != nil {
		return nil, domain.StoreReadFailed(err)
	}
	return &row, nil
}

// toRow serializes an order into its sqlite row form.
func toRow(order domain.Order, created time.Time) (*orderRow, error) {
	doc, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}
	return &orderRow{
		ID:         order.ID,
		CustomerID: order.CustomerID,
		LocationID: order.LocationID,
		CreatedAt:  created.UTC(),
		Doc:        doc,
	}, nil
}
