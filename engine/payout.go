package engine

import (
	"fmt"

	"github.com/oumpowerman/thaoshare/models"
	"github.com/shopspring/decimal"
)

// Payout is the result of pricing one auction round: what every membership
// pays and the pot the winner takes home.
type Payout struct {
	CircleID string           `json:"circle_id"`
	WinnerID string           `json:"winner_id"`
	Bid      decimal.Decimal  `json:"bid"`
	Payables []models.Payable `json:"payables"`
	TotalPot decimal.Decimal  `json:"total_pot"`
}

func (p Payout) For(memberID string) (models.Payable, bool) {
	for _, pay := range p.Payables {
		if pay.MemberID == memberID {
			return pay, true
		}
	}
	return models.Payable{}, false
}

// CalculatePayout prices a candidate bid. It never mutates the circle and
// may be called repeatedly for live previews.
func CalculatePayout(circle models.Circle, winnerID string, bid decimal.Decimal) (Payout, error) {
	if bid.IsNegative() {
		return Payout{}, fmt.Errorf("%w: bid %s is negative", ErrInvalidBid, bid)
	}
	if !circle.Principal.IsPositive() {
		return Payout{}, fmt.Errorf("%w: principal must be positive", ErrInvalidCircle)
	}
	winner, ok := circle.Membership(winnerID)
	if !ok {
		return Payout{}, fmt.Errorf("%w: %s is not a member of circle %s", ErrIneligibleWinner, winnerID, circle.ID)
	}
	if winner.Status != models.SlotAlive {
		return Payout{}, fmt.Errorf("%w: %s already won round %d", ErrIneligibleWinner, winnerID, derefInt(winner.WonRound))
	}

	principal := circle.Principal
	out := Payout{
		CircleID: circle.ID,
		WinnerID: winnerID,
		Bid:      bid,
		Payables: make([]models.Payable, 0, len(circle.Members)),
		TotalPot: decimal.Zero,
	}

	for _, m := range circle.Members {
		p := models.Payable{
			MemberID:   m.MemberID,
			SlotNumber: m.SlotNumber,
			Status:     m.Status,
		}
		switch {
		case m.MemberID == winnerID:
			p.Amount = principal
			p.Classification = models.ClassWinner
			p.Note = "winner, own principal folded into the pot"
		case m.Status == models.SlotDead:
			p.Classification = models.ClassDeadHand
			p.Amount = deadHandDue(circle.Type, principal, m)
			if circle.Type == models.InterestDeferred {
				p.Note = fmt.Sprintf("dead hand, principal %s + interest %s", principal, m.BidAmount.Decimal)
			} else {
				p.Note = "dead hand, full principal"
			}
		default:
			p.Classification = models.ClassAliveHand
			if circle.Type == models.InterestDeducted {
				p.Amount = decimal.Max(decimal.Zero, principal.Sub(bid))
				p.Note = fmt.Sprintf("alive hand, interest %s deducted", bid)
			} else {
				p.Amount = principal
				p.Note = "alive hand, full principal"
			}
		}
		out.TotalPot = out.TotalPot.Add(p.Amount)
		out.Payables = append(out.Payables, p)
	}
	return out, nil
}

func deadHandDue(t models.AuctionType, principal decimal.Decimal, m models.SlotMembership) decimal.Decimal {
	if t == models.InterestDeferred && m.BidAmount.Valid {
		return principal.Add(m.BidAmount.Decimal)
	}
	return principal
}

// CurrentObligation is what a membership owes for the period before the
// round's bid is known. Alive hands in an interest-deducted circle are quoted
// the full principal; the discount only exists once someone wins.
func CurrentObligation(circle models.Circle, m models.SlotMembership) decimal.Decimal {
	if m.Status == models.SlotDead {
		return deadHandDue(circle.Type, circle.Principal, m)
	}
	return circle.Principal
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
