package repository

import (
	"context"
	"testing"
	"time"

	"github.com/oumpowerman/thaoshare/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircles_CreateAndGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	ids := seedMembers(t, s, "a", "b", "c")

	created := seedCircle(t, s, models.InterestDeducted, 4, ids)
	require.NotEmpty(t, created.ID)

	c, err := s.GetCircle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test circle", c.Name)
	assert.True(t, decimal.NewFromInt(1000).Equal(c.Principal))
	require.Len(t, c.Members, 3)
	for i, m := range c.Members {
		assert.Equal(t, i+1, m.SlotNumber)
		assert.Equal(t, models.SlotAlive, m.Status)
		assert.Nil(t, m.WonRound)
	}
	require.Len(t, c.Rounds, 1)
	assert.Equal(t, 1, c.Rounds[0].RoundNumber)
	assert.Equal(t, models.RoundOpen, c.Rounds[0].Status)
	assert.Equal(t, 31, c.AnchorDay)
}

func TestCircles_ListNewestFirstAndForMember(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	ids := seedMembers(t, s, "a", "b", "c")

	first := seedCircle(t, s, models.InterestDeducted, 2, ids[:2])
	time.Sleep(5 * time.Millisecond)
	second := seedCircle(t, s, models.InterestDeferred, 2, ids[1:])

	circles, err := s.ListCircles(ctx)
	require.NoError(t, err)
	require.Len(t, circles, 2)
	assert.Equal(t, second.ID, circles[0].ID)
	assert.Equal(t, first.ID, circles[1].ID)

	mine, err := s.ListCirclesForMember(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	both, err := s.ListCirclesForMember(ctx, ids[1])
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

func TestCircles_DeleteKeepsTransactions(t *testing.T) {
	s, rec := newTestStore(t)
	ctx := context.Background()
	ids := seedMembers(t, s, "a", "b")
	c := seedCircle(t, s, models.InterestDeducted, 2, ids)

	require.NoError(t, s.CreateTransaction(ctx, &models.Transaction{
		CircleID:       c.ID,
		RoundNumber:    1,
		MemberID:       ids[0],
		AmountExpected: decimal.NewFromInt(1000),
		AmountPaid:     decimal.NewFromInt(1000),
		Status:         models.PaymentPaid,
		Timestamp:      time.Now(),
	}))

	rec.changes = nil
	require.NoError(t, s.DeleteCircle(ctx, c.ID))
	assert.Equal(t, []string{"circles"}, rec.tables())

	_, err := s.GetCircle(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var rounds, slots int64
	require.NoError(t, s.DB().Model(&models.Round{}).Where("circle_id = ?", c.ID).Count(&rounds).Error)
	require.NoError(t, s.DB().Model(&models.SlotMembership{}).Where("circle_id = ?", c.ID).Count(&slots).Error)
	assert.Zero(t, rounds)
	assert.Zero(t, slots)

	txs, err := s.ListTransactions(ctx, TransactionFilter{CircleID: c.ID})
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	assert.ErrorIs(t, s.DeleteCircle(ctx, c.ID), ErrNotFound)
}
