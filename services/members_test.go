package services

import (
	"context"
	"testing"

	"github.com/oumpowerman/thaoshare/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberService_Register(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.members.Register(ctx, RegisterMemberInput{Name: "  Malee ", Email: "Malee@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Malee", m.Name)
	assert.Equal(t, "malee@example.com", m.Email)
	assert.Equal(t, models.RoleParticipant, m.Role)
	assert.Equal(t, models.RiskA, m.RiskTier)

	tests := []RegisterMemberInput{
		{Name: ""},
		{Name: "x", Email: "not-an-email"},
		{Name: "x", Role: "OWNER"},
		{Name: "x", RiskTier: "Z"},
	}
	for _, in := range tests {
		_, err := e.members.Register(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", in)
	}
}

func TestMemberService_UpdateProfileAndStanding(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.register(t, "a")[0]

	bank, phone := "KBank", " 0891112222 "
	m, err := e.members.UpdateProfile(ctx, id, ProfileInput{BankName: &bank, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "KBank", m.BankName)
	assert.Equal(t, "0891112222", m.Phone)
	assert.Equal(t, "a", m.Name)

	empty := " "
	_, err = e.members.UpdateProfile(ctx, id, ProfileInput{Name: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)

	m, err = e.members.SetStanding(ctx, id, models.MemberWatchlist, models.RiskB)
	require.NoError(t, err)
	assert.Equal(t, models.MemberWatchlist, m.Status)
	assert.Equal(t, models.RiskB, m.RiskTier)
	assert.Equal(t, "KBank", m.BankName)

	_, err = e.members.SetStanding(ctx, id, "SUSPENDED", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMemberService_Report(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ids := e.register(t, "a", "b", "c")
	c := e.circle(t, models.InterestDeducted, 3, ids)

	_, err := e.settlement.Settle(ctx, SettleInput{CircleID: c.ID, WinnerID: ids[0], Bid: decimal.NewFromInt(100)})
	require.NoError(t, err)

	r, err := e.members.Report(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "a", r.Member.Name)
	assert.Equal(t, 1, r.Summary.WonCount)
	// two rounds exist: the completed first and the open second
	assert.True(t, decimal.NewFromInt(2000).Equal(r.Summary.TotalInvested), r.Summary.TotalInvested.String())
	// 1000 + 2 x 900
	assert.True(t, decimal.NewFromInt(2800).Equal(r.Summary.TotalReceived), r.Summary.TotalReceived.String())
	require.Len(t, r.Wins, 1)
	require.Len(t, r.Upcoming, 1)
	assert.True(t, decimal.NewFromInt(1000).Equal(r.Upcoming[0].Amount))

	other, err := e.members.Upcoming(ctx, ids[1])
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, 2, other[0].RoundNumber)

	wins, err := e.members.Wins(ctx, ids[1])
	require.NoError(t, err)
	assert.Empty(t, wins)
}
