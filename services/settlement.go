package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oumpowerman/thaoshare/engine"
	"github.com/oumpowerman/thaoshare/metrics"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/oumpowerman/thaoshare/repository"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type SettleInput struct {
	CircleID string
	WinnerID string
	Bid      decimal.Decimal
	// ExpectedPot is the pot the admin saw in the preview, if any.
	ExpectedPot *decimal.Decimal
	// OperatorID is the admin recording the result; they are told it landed.
	OperatorID string
}

type SettleResult struct {
	Circle   models.Circle `json:"circle"`
	Payout   engine.Payout `json:"payout"`
	Round    int           `json:"round"`
	Finished bool          `json:"finished"`
}

type SettlementService struct {
	store   Store
	notify  *NotificationService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewSettlementService(store Store, notify *NotificationService, m *metrics.Metrics, logger *slog.Logger) *SettlementService {
	return &SettlementService{store: store, notify: notify, metrics: m, logger: logger}
}

// Preview computes the payout for a candidate winner and bid without
// writing anything.
func (s *SettlementService) Preview(ctx context.Context, circleID, winnerID string, bid decimal.Decimal) (engine.Payout, error) {
	circle, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		return engine.Payout{}, err
	}
	if _, ok := circle.OpenRound(); !ok {
		return engine.Payout{}, fmt.Errorf("%w: circle %s has no open round", engine.ErrNoOpenRound, circleID)
	}
	return engine.CalculatePayout(circle, winnerID, bid)
}

// Settle records an auction result. The snapshot is re-read, the bid
// re-validated, and the whole transition committed atomically.
func (s *SettlementService) Settle(ctx context.Context, in SettleInput) (SettleResult, error) {
	ctx, span := tracer.Start(ctx, "settlement.settle", trace.WithAttributes(
		attribute.String("circle.id", in.CircleID),
		attribute.String("winner.id", in.WinnerID),
		attribute.String("bid", in.Bid.String()),
	))
	defer span.End()
	start := time.Now()

	res, err := s.settle(ctx, in)

	if s.metrics != nil {
		s.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
		s.metrics.Settlements.WithLabelValues(outcome(err)).Inc()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("settlement rejected", "circle", in.CircleID, "winner", in.WinnerID, "bid", in.Bid.String(), "error", err)
		return SettleResult{}, err
	}
	span.SetAttributes(attribute.Int("round", res.Round), attribute.String("pot", res.Payout.TotalPot.String()))
	return res, nil
}

func (s *SettlementService) settle(ctx context.Context, in SettleInput) (SettleResult, error) {
	circle, err := s.store.GetCircle(ctx, in.CircleID)
	if err != nil {
		return SettleResult{}, err
	}
	plan, err := engine.PlanSettlement(circle, in.WinnerID, in.Bid, in.ExpectedPot)
	if err != nil {
		return SettleResult{}, err
	}
	if err := s.store.ApplySettlement(ctx, plan); err != nil {
		return SettleResult{}, err
	}
	plan.Apply(&circle)

	s.logger.Info("round settled",
		"circle", circle.ID,
		"round", plan.Round.RoundNumber,
		"winner", plan.WinnerID,
		"bid", plan.Bid.String(),
		"pot", plan.Payout.TotalPot.String(),
		"finished", plan.Finished(),
	)
	s.announce(ctx, circle, plan, in.OperatorID)

	return SettleResult{
		Circle:   circle,
		Payout:   plan.Payout,
		Round:    plan.Round.RoundNumber,
		Finished: plan.Finished(),
	}, nil
}

// announce is best-effort: the settlement is already committed.
func (s *SettlementService) announce(ctx context.Context, circle models.Circle, plan engine.SettlementPlan, operatorID string) {
	if s.notify == nil {
		return
	}
	round := plan.Round.RoundNumber
	ref := fmt.Sprintf("settled:%s:%d", circle.ID, round)
	var nextDue string
	if !plan.Finished() {
		nextDue = plan.NextDueDate.Format(time.DateOnly)
	}

	for _, m := range circle.Members {
		var err error
		if m.MemberID == plan.WinnerID {
			err = s.notify.NotifyWithPayload(ctx, m.MemberID, models.NotifySuccess,
				"You won the pot",
				fmt.Sprintf("%s round %d: you receive %s (bid %s).", circle.Name, round, plan.Payout.TotalPot.StringFixed(2), plan.Bid.StringFixed(2)),
				ref,
				models.NotificationPayload{CircleID: circle.ID, Round: round, Amount: plan.Payout.TotalPot, DueDate: nextDue})
		} else {
			msg := fmt.Sprintf("%s round %d was settled.", circle.Name, round)
			share := decimal.Zero
			if p, ok := plan.Payout.For(m.MemberID); ok {
				share = p.Amount
				msg = fmt.Sprintf("%s round %d was settled. Your share: %s.", circle.Name, round, p.Amount.StringFixed(2))
			}
			if nextDue != "" {
				msg += fmt.Sprintf(" Next due %s.", nextDue)
			}
			err = s.notify.NotifyWithPayload(ctx, m.MemberID, models.NotifyInfo, "Round settled", msg, ref,
				models.NotificationPayload{CircleID: circle.ID, Round: round, Amount: share, DueDate: nextDue})
		}
		if err != nil {
			s.logger.Warn("settlement notification failed", "circle", circle.ID, "member", m.MemberID, "error", err)
		}
	}

	if operatorID == "" {
		return
	}
	if _, seated := circle.Membership(operatorID); seated {
		return
	}
	winner := plan.WinnerID
	if w, err := s.store.GetMember(ctx, plan.WinnerID); err == nil {
		winner = w.Name
	}
	err := s.notify.NotifyWithPayload(ctx, operatorID, models.NotifySuccess,
		"Auction recorded",
		fmt.Sprintf("%s round %d: %s wins %s with a bid of %s.", circle.Name, round, winner, plan.Payout.TotalPot.StringFixed(2), plan.Bid.StringFixed(2)),
		ref,
		models.NotificationPayload{CircleID: circle.ID, Round: round, Amount: plan.Payout.TotalPot, DueDate: nextDue})
	if err != nil {
		s.logger.Warn("settlement notification failed", "circle", circle.ID, "member", operatorID, "error", err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, repository.ErrRoundAlreadySettled):
		return "conflict"
	case errors.Is(err, engine.ErrPotMismatch):
		return "stale"
	case errors.Is(err, engine.ErrInvalidBid),
		errors.Is(err, engine.ErrIneligibleWinner),
		errors.Is(err, engine.ErrNoOpenRound):
		return "rejected"
	default:
		return "error"
	}
}
