package repository

import (
	"context"
	"testing"

	"github.com/oumpowerman/thaoshare/events"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembers_CreateListUpdate(t *testing.T) {
	s, rec := newTestStore(t)
	ctx := context.Background()

	ids := seedMembers(t, s, "Somsak", "Anong")

	members, err := s.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Anong", members[0].Name)
	assert.Equal(t, models.RoleParticipant, members[0].Role)
	assert.Equal(t, models.MemberActive, members[0].Status)

	m, err := s.GetMember(ctx, ids[0])
	require.NoError(t, err)
	m.Status = models.MemberWatchlist
	m.RiskTier = models.RiskC
	m.Phone = "0812345678"
	require.NoError(t, s.UpdateMember(ctx, &m))

	got, err := s.GetMemberByEmail(ctx, " SOMSAK@example.com ")
	require.NoError(t, err)
	assert.Equal(t, models.MemberWatchlist, got.Status)
	assert.Equal(t, models.RiskC, got.RiskTier)
	assert.Equal(t, "0812345678", got.Phone)

	assert.Equal(t, []string{events.TableMembers, events.TableMembers, events.TableMembers}, rec.tables())
}

func TestMembers_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetMember(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.UpdateMember(context.Background(), &models.Member{Base: models.Base{ID: "missing"}, Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}
