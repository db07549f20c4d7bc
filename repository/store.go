// Package repository is the persistent store: members, circles with their
// slot memberships and rounds, payment transactions and notifications.
// Every write publishes a change event after it commits.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oumpowerman/thaoshare/events"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrRoundAlreadySettled means the round was no longer OPEN when the
	// settlement tried to complete it.
	ErrRoundAlreadySettled = errors.New("round already settled")
)

// StorageError wraps a failure of the underlying database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type Store struct {
	db     *gorm.DB
	feed   events.Publisher
	logger *slog.Logger
}

// New returns a store over db. feed may be nil.
func New(db *gorm.DB, feed events.Publisher) *Store {
	return &Store{db: db, feed: feed, logger: slog.Default()}
}

func (s *Store) WithLogger(logger *slog.Logger) *Store {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks the connection, for health probes.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap("ping", err)
	}
	return wrap("ping", sqlDB.PingContext(ctx))
}

func (s *Store) publish(ctx context.Context, changes ...events.Change) {
	if s.feed == nil || len(changes) == 0 {
		return
	}
	if err := s.feed.Publish(ctx, changes...); err != nil {
		s.logger.Warn("change feed publish failed", "error", err, "changes", len(changes))
	}
}

// forUpdate adds a row lock where the dialect supports it.
func (s *Store) forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var se *StorageError
	if errors.As(err, &se) || errors.Is(err, ErrRoundAlreadySettled) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
