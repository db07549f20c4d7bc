package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/oumpowerman/thaoshare/events"
	"github.com/oumpowerman/thaoshare/metrics"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/oumpowerman/thaoshare/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type memUploader struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (u *memUploader) Upload(_ context.Context, name, _ string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.files == nil {
		u.files = map[string][]byte{}
	}
	u.files[name] = data
	return "https://files.test/" + name, nil
}

type env struct {
	store    *repository.Store
	bus      *events.MemoryBus
	metrics  *metrics.Metrics
	uploader *memUploader

	circles       *CircleService
	members       *MemberService
	settlement    *SettlementService
	payments      *PaymentService
	reports       *ReportService
	notifications *NotificationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.MigrateModels...))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewMemoryBus()
	t.Cleanup(func() { _ = bus.Close() })
	store := repository.New(db, bus).WithLogger(logger)
	m := metrics.New(prometheus.NewRegistry())
	up := &memUploader{}

	notifications := NewNotificationService(store, m, logger)
	return &env{
		store:         store,
		bus:           bus,
		metrics:       m,
		uploader:      up,
		circles:       NewCircleService(store, m, logger),
		members:       NewMemberService(store, logger),
		settlement:    NewSettlementService(store, notifications, m, logger),
		payments:      NewPaymentService(store, up, m, logger),
		reports:       NewReportService(store, m, logger),
		notifications: notifications,
	}
}

func (e *env) register(t *testing.T, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, n := range names {
		m, err := e.members.Register(context.Background(), RegisterMemberInput{Name: n, Email: n + "@example.com"})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	return ids
}

var (
	jpegSlip = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	pngSlip  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
)

var start = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

func (e *env) circle(t *testing.T, typ models.AuctionType, slots int, ids []string) models.Circle {
	t.Helper()
	c, err := e.circles.Create(context.Background(), CreateCircleInput{
		Name:       "Office share",
		Principal:  decimal.NewFromInt(1000),
		TotalSlots: slots,
		Type:       typ,
		Period:     models.PeriodMonthly,
		StartDate:  start,
		MemberIDs:  ids,
	})
	require.NoError(t, err)
	return c
}

func fixedClock(t time.Time) clock {
	return func() time.Time { return t }
}
