package repository

import (
	"context"

	"github.com/oumpowerman/thaoshare/events"
	"github.com/oumpowerman/thaoshare/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListCircles returns every circle with memberships and rounds, newest first.
func (s *Store) ListCircles(ctx context.Context) ([]models.Circle, error) {
	var circles []models.Circle
	err := s.db.WithContext(ctx).
		Preload("Members").
		Preload("Rounds").
		Order("created_at DESC").
		Find(&circles).Error
	if err != nil {
		return nil, wrap("list circles", err)
	}
	for i := range circles {
		circles[i].Normalize()
	}
	return circles, nil
}

func (s *Store) GetCircle(ctx context.Context, id string) (models.Circle, error) {
	var c models.Circle
	err := s.db.WithContext(ctx).
		Preload("Members").
		Preload("Rounds").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return c, wrap("get circle", err)
	}
	c.Normalize()
	return c, nil
}

// ListCirclesForMember returns the circles the member holds a slot in.
func (s *Store) ListCirclesForMember(ctx context.Context, memberID string) ([]models.Circle, error) {
	var circles []models.Circle
	err := s.db.WithContext(ctx).
		Preload("Members").
		Preload("Rounds").
		Where("id IN (?)", s.db.Model(&models.SlotMembership{}).Select("circle_id").Where("member_id = ?", memberID)).
		Order("created_at DESC").
		Find(&circles).Error
	if err != nil {
		return nil, wrap("list member circles", err)
	}
	for i := range circles {
		circles[i].Normalize()
	}
	return circles, nil
}

// CreateCircle persists the circle, its slot memberships and its first
// round together.
func (s *Store) CreateCircle(ctx context.Context, c *models.Circle) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		for i := range c.Members {
			c.Members[i].CircleID = c.ID
		}
		for i := range c.Rounds {
			c.Rounds[i].CircleID = c.ID
		}
		if len(c.Members) > 0 {
			if err := tx.Create(&c.Members).Error; err != nil {
				return err
			}
		}
		if len(c.Rounds) > 0 {
			if err := tx.Create(&c.Rounds).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrap("create circle", err)
	}

	changes := []events.Change{events.NewChange(events.TableCircles, events.OpInsert, c.ID)}
	for _, m := range c.Members {
		changes = append(changes, events.NewChange(events.TableCircleMembers, events.OpInsert, m.ID))
	}
	for _, r := range c.Rounds {
		changes = append(changes, events.NewChange(events.TableRounds, events.OpInsert, r.ID))
	}
	s.publish(ctx, changes...)
	return nil
}

// DeleteCircle removes the circle with its memberships and rounds. Payment
// transactions are kept as evidence.
func (s *Store) DeleteCircle(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("circle_id = ?", id).Delete(&models.Round{}).Error; err != nil {
			return err
		}
		if err := tx.Where("circle_id = ?", id).Delete(&models.SlotMembership{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Circle{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return wrap("delete circle", err)
	}
	s.publish(ctx, events.NewChange(events.TableCircles, events.OpDelete, id))
	return nil
}
