// Package services composes the settlement engine with the store: it loads
// snapshots, runs the pure calculations and commits the results.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/oumpowerman/thaoshare/engine"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/oumpowerman/thaoshare/repository"
	"go.opentelemetry.io/otel"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotMember    = errors.New("member does not hold a slot in this circle")
	ErrForbidden    = errors.New("not allowed")
	ErrInvalidSlip  = errors.New("slip must be a JPEG, PNG, WebP or HEIC image")
)

// Store is the persistence the services need. *repository.Store satisfies it.
type Store interface {
	ListMembers(ctx context.Context) ([]models.Member, error)
	GetMember(ctx context.Context, id string) (models.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (models.Member, error)
	CreateMember(ctx context.Context, m *models.Member) error
	UpdateMember(ctx context.Context, m *models.Member) error

	ListCircles(ctx context.Context) ([]models.Circle, error)
	ListCirclesForMember(ctx context.Context, memberID string) ([]models.Circle, error)
	GetCircle(ctx context.Context, id string) (models.Circle, error)
	CreateCircle(ctx context.Context, c *models.Circle) error
	DeleteCircle(ctx context.Context, id string) error
	ApplySettlement(ctx context.Context, plan engine.SettlementPlan) error

	CreateTransaction(ctx context.Context, t *models.Transaction) error
	ListTransactions(ctx context.Context, f repository.TransactionFilter) ([]models.Transaction, error)

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, memberID string, limit int) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context, memberID string) (int64, error)
	DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	NotificationExists(ctx context.Context, memberID, ref string) (bool, error)
}

var tracer = otel.Tracer("github.com/oumpowerman/thaoshare/services")

type clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
