package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/oumpowerman/thaoshare/engine"
	"github.com/oumpowerman/thaoshare/events"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recorder struct {
	changes []events.Change
}

func (r *recorder) Publish(_ context.Context, changes ...events.Change) error {
	r.changes = append(r.changes, changes...)
	return nil
}

func (r *recorder) tables() []string {
	out := make([]string, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Table)
	}
	return out
}

func newTestStore(t *testing.T) (*Store, *recorder) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.MigrateModels...))

	rec := &recorder{}
	return New(db, rec), rec
}

func seedMembers(t *testing.T, s *Store, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, n := range names {
		m := &models.Member{Name: n, Email: n + "@example.com"}
		require.NoError(t, s.CreateMember(context.Background(), m))
		ids = append(ids, m.ID)
	}
	return ids
}

func seedCircle(t *testing.T, s *Store, typ models.AuctionType, slots int, memberIDs []string) models.Circle {
	t.Helper()
	c, err := engine.NewCircle(engine.CircleSpec{
		Name:       "Test circle",
		Principal:  decimal.NewFromInt(1000),
		TotalSlots: slots,
		Type:       typ,
		Period:     models.PeriodMonthly,
		StartDate:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		MemberIDs:  memberIDs,
	})
	require.NoError(t, err)
	require.NoError(t, s.CreateCircle(context.Background(), &c))
	return c
}
