package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/oumpowerman/thaoshare/engine"
	"github.com/oumpowerman/thaoshare/events"
	"github.com/oumpowerman/thaoshare/metrics"
)

// ReportService serves the admin dashboard from a cache that any change to
// members, circles, slots or rounds invalidates.
type ReportService struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	gen    uint64
	cached *engine.Dashboard
}

func NewReportService(store Store, m *metrics.Metrics, logger *slog.Logger) *ReportService {
	return &ReportService{store: store, metrics: m, logger: logger}
}

// Watch subscribes to the change feed; the returned func unsubscribes.
func (s *ReportService) Watch(bus events.Bus) func() {
	return bus.Subscribe([]string{
		events.TableMembers,
		events.TableCircles,
		events.TableCircleMembers,
		events.TableRounds,
	}, func(c events.Change) {
		s.Invalidate()
	})
}

func (s *ReportService) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.cached = nil
	s.mu.Unlock()
}

func (s *ReportService) Dashboard(ctx context.Context) (engine.Dashboard, error) {
	s.mu.Lock()
	if s.cached != nil {
		d := *s.cached
		s.mu.Unlock()
		return d, nil
	}
	gen := s.gen
	s.mu.Unlock()

	circles, err := s.store.ListCircles(ctx)
	if err != nil {
		return engine.Dashboard{}, err
	}
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return engine.Dashboard{}, err
	}
	d := engine.BuildDashboard(circles, members)
	if s.metrics != nil {
		s.metrics.ReportRebuilds.Inc()
	}

	// a change that landed mid-build leaves the cache empty
	s.mu.Lock()
	if s.gen == gen {
		s.cached = &d
	}
	s.mu.Unlock()
	return d, nil
}
