package engine

import (
	"fmt"
	"time"

	"github.com/oumpowerman/thaoshare/models"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SettlementPlan is everything a store must write, in one transaction, to
// commit an auction result.
type SettlementPlan struct {
	CircleID string
	Round    models.Round
	WinnerID string
	Bid      decimal.Decimal
	Payout   Payout
	// Payables is Payout.Payables as committed to the round row.
	Payables datatypes.JSON

	// NextRound is nil when the settled round was the circle's last.
	NextRound   *models.Round
	NextDueDate time.Time
}

func (p SettlementPlan) Finished() bool {
	return p.NextRound == nil
}

// PlanSettlement validates a bid against a circle snapshot and derives the
// state transition. expectedPot, when given, must equal the recomputed pot.
func PlanSettlement(circle models.Circle, winnerID string, bid decimal.Decimal, expectedPot *decimal.Decimal) (SettlementPlan, error) {
	circle.Normalize()

	open, ok := circle.OpenRound()
	if !ok {
		return SettlementPlan{}, fmt.Errorf("%w: circle %s has no open round", ErrNoOpenRound, circle.ID)
	}

	payout, err := CalculatePayout(circle, winnerID, bid)
	if err != nil {
		return SettlementPlan{}, err
	}
	if expectedPot != nil && !expectedPot.Equal(payout.TotalPot) {
		return SettlementPlan{}, fmt.Errorf("%w: previewed %s, current %s", ErrPotMismatch, expectedPot, payout.TotalPot)
	}

	payables, err := models.EncodePayables(payout.Payables)
	if err != nil {
		return SettlementPlan{}, err
	}

	plan := SettlementPlan{
		CircleID:    circle.ID,
		Round:       open,
		WinnerID:    winnerID,
		Bid:         bid,
		Payout:      payout,
		Payables:    payables,
		NextDueDate: open.Date,
	}

	if circle.CompletedRounds()+1 < circle.TotalSlots {
		next := NextDueDate(open.Date, circle.Period, circle.AnchorDay)
		plan.NextDueDate = next
		plan.NextRound = &models.Round{
			CircleID:    circle.ID,
			RoundNumber: open.RoundNumber + 1,
			Date:        next,
			Status:      models.RoundOpen,
			BidAmount:   decimal.Zero,
			TotalPot:    decimal.Zero,
		}
	}
	return plan, nil
}

// Apply replays the plan on an in-memory snapshot, mirroring what the store
// commits. Used to answer callers without a second read.
func (p SettlementPlan) Apply(circle *models.Circle) {
	won := p.Round.RoundNumber
	for i := range circle.Members {
		if circle.Members[i].MemberID == p.WinnerID {
			circle.Members[i].Status = models.SlotDead
			circle.Members[i].WonRound = &won
			circle.Members[i].BidAmount = decimal.NewNullDecimal(p.Bid)
		}
	}
	winner := p.WinnerID
	for i := range circle.Rounds {
		if circle.Rounds[i].RoundNumber == won {
			circle.Rounds[i].Status = models.RoundCompleted
			circle.Rounds[i].WinnerID = &winner
			circle.Rounds[i].BidAmount = p.Bid
			circle.Rounds[i].TotalPot = p.Payout.TotalPot
			circle.Rounds[i].Payables = p.Payables
		}
	}
	if p.NextRound != nil {
		circle.Rounds = append(circle.Rounds, *p.NextRound)
		circle.NextDueDate = p.NextDueDate
	}
}

// Stalled reports a circle whose open round has no ALIVE seated member left
// to win it. This happens when vacant slots outnumber the remaining rounds.
func Stalled(circle models.Circle) bool {
	if _, ok := circle.OpenRound(); !ok {
		return false
	}
	for _, m := range circle.Members {
		if m.Status == models.SlotAlive {
			return false
		}
	}
	return true
}
