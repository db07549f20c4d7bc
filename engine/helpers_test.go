package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/oumpowerman/thaoshare/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func memberIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("m%d", i+1)
	}
	return ids
}

// newTestCircle builds a fresh circle with round 1 open on 2024-01-31.
func newTestCircle(t *testing.T, typ models.AuctionType, principal string, slots, members int) models.Circle {
	t.Helper()
	c, err := NewCircle(CircleSpec{
		Name:       "test circle",
		Principal:  amount(principal),
		TotalSlots: slots,
		Type:       typ,
		Period:     models.PeriodMonthly,
		StartDate:  time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		MemberIDs:  memberIDs(members),
	})
	require.NoError(t, err)
	c.ID = "c1"
	return c
}

// settle plans and applies one round in memory.
func settle(t *testing.T, c *models.Circle, winner, bid string) SettlementPlan {
	t.Helper()
	plan, err := PlanSettlement(*c, winner, amount(bid), nil)
	require.NoError(t, err)
	plan.Apply(c)
	return plan
}
