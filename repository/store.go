package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Store hands out repositories bound to one database handle, which is either the
// connection pool or an open transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{db: s.db}
}

func (s *Store) Companies() *CompanyRepository {
	return &CompanyRepository{db: s.db}
}

func (s *Store) Holdings() *HoldingRepository {
	return &HoldingRepository{db: s.db}
}

func (s *Store) History() *HistoryRepository {
	return &HistoryRepository{db: s.db}
}

func (s *Store) Prices() *PriceRepository {
	return &PriceRepository{db: s.db}
}

// WithinTransaction runs fn against a Store bound to a single transaction.
//
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) WithinTransaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
