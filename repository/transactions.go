package repository

import (
	"context"

	"github.com/oumpowerman/thaoshare/events"
	"github.com/oumpowerman/thaoshare/models"
)

type TransactionFilter struct {
	MemberID string
	CircleID string
}

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return wrap("create transaction", err)
	}
	s.publish(ctx, events.NewChange(events.TableTransactions, events.OpInsert, t.ID))
	return nil
}

// ListTransactions returns matching transactions, latest first.
func (s *Store) ListTransactions(ctx context.Context, f TransactionFilter) ([]models.Transaction, error) {
	q := s.db.WithContext(ctx).Model(&models.Transaction{})
	if f.MemberID != "" {
		q = q.Where("member_id = ?", f.MemberID)
	}
	if f.CircleID != "" {
		q = q.Where("circle_id = ?", f.CircleID)
	}
	var txs []models.Transaction
	err := q.Order("timestamp DESC").Order("created_at DESC").Find(&txs).Error
	return txs, wrap("list transactions", err)
}
