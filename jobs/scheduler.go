package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tasks "github.com/oumpowerman/thaoshare/task"
)

type Reminder interface {
	RemindDue(ctx context.Context) (int, error)
}

type Notifications interface {
	Reminder
	tasks.NotificationCleaner
}

type Scheduler struct {
	Notifications    Notifications
	ReminderInterval time.Duration
	CleanupInterval  time.Duration
	Retention        time.Duration
	Logger           *slog.Logger

	wg sync.WaitGroup
}

// Start launches the reminder and cleanup tickers. They stop when ctx is
// cancelled; Wait blocks until they have.
func (s *Scheduler) Start(ctx context.Context) {
	s.every(ctx, s.ReminderInterval, func(ctx context.Context) {
		sent, err := s.Notifications.RemindDue(ctx)
		if err != nil {
			s.Logger.Error("error sending due reminders", "error", err)
			return
		}
		if sent > 0 {
			s.Logger.Info("due reminders sent", "count", sent)
		}
	})

	if s.Retention > 0 {
		s.every(ctx, s.CleanupInterval, func(ctx context.Context) {
			tasks.CleanupReadNotifications(ctx, s.Notifications, s.Retention, s.Logger)
		})
	}
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}
