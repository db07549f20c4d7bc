package services

import (
	"context"
	"testing"

	"github.com/oumpowerman/thaoshare/engine"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/oumpowerman/thaoshare/repository"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircleService_Create(t *testing.T) {
	e := newEnv(t)
	ids := e.register(t, "a", "b", "c")

	c := e.circle(t, models.InterestDeducted, 5, ids)
	got, err := e.circles.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 3)
	assert.Equal(t, []int{4, 5}, engine.VacantSlots(got))
}

func TestCircleService_CreateRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ids := e.register(t, "a", "b")

	_, err := e.circles.Create(ctx, CreateCircleInput{
		Name: "x", Principal: decimal.NewFromInt(1000), TotalSlots: 2,
		Type: models.InterestDeducted, Period: models.PeriodMonthly, StartDate: start,
		MemberIDs: []string{ids[0], "ghost"},
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = e.members.SetStanding(ctx, ids[1], models.MemberBlacklist, "")
	require.NoError(t, err)
	_, err = e.circles.Create(ctx, CreateCircleInput{
		Name: "x", Principal: decimal.NewFromInt(1000), TotalSlots: 2,
		Type: models.InterestDeducted, Period: models.PeriodMonthly, StartDate: start,
		MemberIDs: ids,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.circles.Create(ctx, CreateCircleInput{
		Name: "x", Principal: decimal.NewFromInt(1000), TotalSlots: 2,
		Type: models.InterestDeducted, Period: models.PeriodMonthly, StartDate: start,
		MemberIDs: []string{ids[0], ids[0]},
	})
	assert.ErrorIs(t, err, engine.ErrDuplicateMember)
}

func TestCircleService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.circle(t, models.InterestDeducted, 2, e.register(t, "a", "b"))

	require.NoError(t, e.circles.Delete(ctx, c.ID))
	_, err := e.circles.Get(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.Circles.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.Circles.WithLabelValues("deleted")))
	assert.ErrorIs(t, e.circles.Delete(ctx, c.ID), repository.ErrNotFound)
}
