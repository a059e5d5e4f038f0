// Package store holds the gorm-backed Catalog, Order and Message stores.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Store bundles the three stores over one connection or transaction.
type Store struct {
	db *gorm.DB
}

// New wraps db. All stores returned by the Store share it.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Plants() *PlantStore {
	return &PlantStore{db: s.db}
}

func (s *Store) Orders() *OrderStore {
	return &OrderStore{db: s.db}
}

func (s *Store) Messages() *MessageStore {
	return &MessageStore{db: s.db}
}

// Transaction runs fn against a Store bound to one database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store.Ping: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// TimeRange bounds a timestamp column. Both ends are inclusive.
type TimeRange struct {
	Before *time.Time
	After  *time.Time
}

func (t TimeRange) Validate() error {
	if t.Before == nil && t.After == nil {
		return errors.New("both Before and After are nil")
	}

	if t.Before != nil && t.After != nil {
		if t.Before.Before(*t.After) {
			return fmt.Errorf("before is before After")
		}
	}

	return nil
}

// Around returns the inclusive range [at-window, at+window].
func Around(at time.Time, window time.Duration) TimeRange {
	after := at.Add(-window).UTC()
	before := at.Add(window).UTC()
	return TimeRange{After: &after, Before: &before}
}

func (t TimeRange) apply(q *gorm.DB, column string) *gorm.DB {
	if t.After != nil {
		q = q.Where(column+" >= ?", t.After.UTC())
	}
	if t.Before != nil {
		q = q.Where(column+" <= ?", t.Before.UTC())
	}
	return q
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
