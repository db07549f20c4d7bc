package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/oumpowerman/thaoshare/engine"
	"github.com/oumpowerman/thaoshare/events"
	"github.com/oumpowerman/thaoshare/models"
	"gorm.io/gorm"
)

// ApplySettlement commits a planned settlement in one transaction: the open
// round is completed with its payout, the winner's slot turns DEAD, the next
// round opens and the circle's due date advances. Either all of it lands or
// none of it does.
func (s *Store) ApplySettlement(ctx context.Context, plan engine.SettlementPlan) error {
	var nextID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var circle models.Circle
		if err := s.forUpdate(tx).Where("id = ?", plan.CircleID).First(&circle).Error; err != nil {
			return err
		}

		// complete only if still OPEN
		res := tx.Model(&models.Round{}).
			Where("id = ? AND status = ?", plan.Round.ID, models.RoundOpen).
			Updates(map[string]any{
				"status":     models.RoundCompleted,
				"winner_id":  plan.WinnerID,
				"bid_amount": plan.Bid,
				"total_pot":  plan.Payout.TotalPot,
				"payables":   plan.Payables,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("round %d of circle %s: %w", plan.Round.RoundNumber, plan.CircleID, ErrRoundAlreadySettled)
		}

		res = tx.Model(&models.SlotMembership{}).
			Where("circle_id = ? AND member_id = ? AND status = ?", plan.CircleID, plan.WinnerID, models.SlotAlive).
			Updates(map[string]any{
				"status":     models.SlotDead,
				"won_round":  plan.Round.RoundNumber,
				"bid_amount": plan.Bid,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: member %s no longer holds an alive slot", engine.ErrIneligibleWinner, plan.WinnerID)
		}

		if plan.NextRound == nil {
			return nil
		}
		next := *plan.NextRound
		if err := tx.Create(&next).Error; err != nil {
			return err
		}
		nextID = next.ID
		return tx.Model(&models.Circle{}).
			Where("id = ?", plan.CircleID).
			Update("next_due_date", plan.NextDueDate).Error
	})
	if err != nil {
		if errors.Is(err, engine.ErrIneligibleWinner) {
			return err
		}
		return wrap("apply settlement", err)
	}

	changes := []events.Change{
		events.NewChange(events.TableRounds, events.OpUpdate, plan.Round.ID),
		events.NewChange(events.TableCircleMembers, events.OpUpdate, plan.WinnerID),
	}
	if nextID != "" {
		changes = append(changes,
			events.NewChange(events.TableRounds, events.OpInsert, nextID),
			events.NewChange(events.TableCircles, events.OpUpdate, plan.CircleID),
		)
	}
	s.publish(ctx, changes...)
	return nil
}
