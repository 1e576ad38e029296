// Package store is the persistence layer for users, the revocation list and
// the diary models. Every mutation that has side effects on other rows
// (collection bookkeeping, delete policies) runs inside one transaction.
package store

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pine/common"
)

type Store struct {
	db  *gorm.DB
	now func() time.Time

	// PasswordCost is the bcrypt cost used for new password hashes.
	PasswordCost int
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		now:          time.Now,
		PasswordCost: bcrypt.DefaultCost,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// notFound maps gorm's missing-row error to a NotFound AppError and wraps
// anything else as internal.
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.NewNotFound(message)
	}
	return storageError(err)
}

func storageError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return common.NewInternal(err)
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
