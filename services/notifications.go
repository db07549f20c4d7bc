package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oumpowerman/thaoshare/engine"
	"github.com/oumpowerman/thaoshare/metrics"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/oumpowerman/thaoshare/repository"
)

type NotificationService struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     clock
}

func NewNotificationService(store Store, m *metrics.Metrics, logger *slog.Logger) *NotificationService {
	return &NotificationService{store: store, metrics: m, logger: logger, now: systemClock}
}

func (s *NotificationService) Notify(ctx context.Context, memberID string, typ models.NotificationType, title, message, ref string) error {
	return s.store.CreateNotification(ctx, &models.Notification{
		MemberID: memberID,
		Title:    title,
		Message:  message,
		Type:     typ,
		Ref:      ref,
	})
}

// NotifyWithPayload is Notify plus the structured circle, round and amount.
func (s *NotificationService) NotifyWithPayload(ctx context.Context, memberID string, typ models.NotificationType, title, message, ref string, payload models.NotificationPayload) error {
	enc, err := models.EncodeNotificationPayload(payload)
	if err != nil {
		return err
	}
	return s.store.CreateNotification(ctx, &models.Notification{
		MemberID: memberID,
		Title:    title,
		Message:  message,
		Type:     typ,
		Ref:      ref,
		Payload:  enc,
	})
}

func (s *NotificationService) List(ctx context.Context, memberID string, limit int) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, memberID, limit)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, memberID string) (int64, error) {
	return s.store.MarkNotificationsRead(ctx, memberID)
}

// Cleanup drops read notifications older than retention.
func (s *NotificationService) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	return s.store.DeleteReadNotificationsBefore(ctx, s.now().Add(-retention))
}

// RemindDue warns every seated member of an unfinished circle whose next
// due date is today or tomorrow and who has not paid the open round yet.
// Each reminder is created once per member, round and day.
func (s *NotificationService) RemindDue(ctx context.Context) (int, error) {
	circles, err := s.store.ListCircles(ctx)
	if err != nil {
		return 0, err
	}
	today := models.DateOnly(s.now())
	sent := 0
	for _, c := range circles {
		open, ok := c.OpenRound()
		if !ok {
			continue
		}
		due := models.DateOnly(c.NextDueDate)
		var when string
		var typ models.NotificationType
		switch {
		case due.Equal(today):
			when, typ = "today", models.NotifyWarning
		case due.Equal(today.AddDate(0, 0, 1)):
			when, typ = "tomorrow", models.NotifyInfo
		default:
			continue
		}

		txs, err := s.store.ListTransactions(ctx, repository.TransactionFilter{CircleID: c.ID})
		if err != nil {
			return sent, err
		}
		for _, m := range c.Members {
			if tx, ok := engine.LatestTransaction(txs, c.ID, m.MemberID, open.RoundNumber); ok && tx.Status != models.PaymentPending {
				continue
			}
			ref := fmt.Sprintf("due:%s:%d:%s", c.ID, open.RoundNumber, due.Format("20060102")+":"+when)
			exists, err := s.store.NotificationExists(ctx, m.MemberID, ref)
			if err != nil {
				return sent, err
			}
			if exists {
				continue
			}
			amount := engine.CurrentObligation(c, m)
			msg := fmt.Sprintf("%s round %d: %s is due %s.", c.Name, open.RoundNumber, amount.StringFixed(2), when)
			payload := models.NotificationPayload{CircleID: c.ID, Round: open.RoundNumber, Amount: amount, DueDate: due.Format(time.DateOnly)}
			if err := s.NotifyWithPayload(ctx, m.MemberID, typ, "Payment due "+when, msg, ref, payload); err != nil {
				return sent, err
			}
			sent++
		}
	}
	if s.metrics != nil && sent > 0 {
		s.metrics.RemindersSent.Add(float64(sent))
	}
	return sent, nil
}
