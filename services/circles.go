package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oumpowerman/thaoshare/engine"
	"github.com/oumpowerman/thaoshare/metrics"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type CreateCircleInput struct {
	Name       string
	Principal  decimal.Decimal
	TotalSlots int
	Type       models.AuctionType
	Period     models.Period
	StartDate  time.Time
	MemberIDs  []string
}

type CircleService struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewCircleService(store Store, m *metrics.Metrics, logger *slog.Logger) *CircleService {
	return &CircleService{store: store, metrics: m, logger: logger}
}

func (s *CircleService) List(ctx context.Context) ([]models.Circle, error) {
	return s.store.ListCircles(ctx)
}

func (s *CircleService) ListForMember(ctx context.Context, memberID string) ([]models.Circle, error) {
	return s.store.ListCirclesForMember(ctx, memberID)
}

func (s *CircleService) Get(ctx context.Context, id string) (models.Circle, error) {
	return s.store.GetCircle(ctx, id)
}

// Create validates the roster against registered members, then builds and
// persists the circle. Blacklisted members cannot be seated.
func (s *CircleService) Create(ctx context.Context, in CreateCircleInput) (models.Circle, error) {
	ctx, span := tracer.Start(ctx, "circle.create", trace.WithAttributes(
		attribute.String("circle.name", in.Name),
		attribute.Int("circle.slots", in.TotalSlots),
	))
	defer span.End()

	c, err := s.create(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.Circle{}, err
	}
	span.SetAttributes(attribute.String("circle.id", c.ID))
	if s.metrics != nil {
		s.metrics.Circles.WithLabelValues("created").Inc()
	}
	return c, nil
}

func (s *CircleService) create(ctx context.Context, in CreateCircleInput) (models.Circle, error) {
	for _, id := range in.MemberIDs {
		m, err := s.store.GetMember(ctx, id)
		if err != nil {
			return models.Circle{}, fmt.Errorf("member %s: %w", id, err)
		}
		if m.Status == models.MemberBlacklist {
			return models.Circle{}, fmt.Errorf("%w: member %s is blacklisted", ErrInvalidInput, m.Name)
		}
	}

	c, err := engine.NewCircle(engine.CircleSpec{
		Name:       strings.TrimSpace(in.Name),
		Principal:  in.Principal,
		TotalSlots: in.TotalSlots,
		Type:       in.Type,
		Period:     in.Period,
		StartDate:  in.StartDate,
		MemberIDs:  in.MemberIDs,
	})
	if err != nil {
		return models.Circle{}, err
	}
	if err := s.store.CreateCircle(ctx, &c); err != nil {
		return models.Circle{}, err
	}
	s.logger.Info("circle created", "circle", c.ID, "name", c.Name, "slots", c.TotalSlots, "members", len(c.Members))
	return c, nil
}

func (s *CircleService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCircle(ctx, id); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.Circles.WithLabelValues("deleted").Inc()
	}
	s.logger.Info("circle deleted", "circle", id)
	return nil
}
