package repository

import (
	"context"
	"time"

	"github.com/oumpowerman/thaoshare/events"
	"github.com/oumpowerman/thaoshare/models"
)

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return wrap("create notification", err)
	}
	s.publish(ctx, events.NewChange(events.TableNotifications, events.OpInsert, n.ID))
	return nil
}

// ListNotifications returns the member's notifications, newest first.
// limit <= 0 means no limit.
func (s *Store) ListNotifications(ctx context.Context, memberID string, limit int) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("member_id = ?", memberID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ns []models.Notification
	err := q.Find(&ns).Error
	return ns, wrap("list notifications", err)
}

func (s *Store) MarkNotificationsRead(ctx context.Context, memberID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("member_id = ? AND is_read = ?", memberID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, wrap("mark notifications read", res.Error)
	}
	if res.RowsAffected > 0 {
		s.publish(ctx, events.NewChange(events.TableNotifications, events.OpUpdate, memberID))
	}
	return res.RowsAffected, nil
}

func (s *Store) DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if res.Error != nil {
		return 0, wrap("delete read notifications", res.Error)
	}
	if res.RowsAffected > 0 {
		s.publish(ctx, events.NewChange(events.TableNotifications, events.OpDelete, ""))
	}
	return res.RowsAffected, nil
}

// NotificationExists reports whether the member already has a notification
// carrying ref.
func (s *Store) NotificationExists(ctx context.Context, memberID, ref string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("member_id = ? AND ref = ?", memberID, ref).
		Count(&n).Error
	return n > 0, wrap("count notifications", err)
}
