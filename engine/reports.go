package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/oumpowerman/thaoshare/models"
	"github.com/shopspring/decimal"
)

// CircleStanding is one member's position in one circle.
//
// Invested is the compatibility approximation: every round that exists so
// far (open round included) times the flat principal. It ignores the
// per-round obligation differences of the payout rules. LedgerPaid is the
// exact sum of this member's committed payables over settled rounds.
type CircleStanding struct {
	CircleID      string              `json:"circle_id"`
	CircleName    string              `json:"circle_name"`
	CircleType    models.AuctionType  `json:"circle_type"`
	SlotNumber    int                 `json:"slot_number"`
	Status        models.SlotStatus   `json:"status"`
	WonRound      *int                `json:"won_round,omitempty"`
	BidAmount     decimal.NullDecimal `json:"bid_amount"`
	RoundsElapsed int                 `json:"rounds_elapsed"`
	Invested      decimal.Decimal     `json:"invested"`
	Received      decimal.Decimal     `json:"received"`
	LedgerPaid    decimal.Decimal     `json:"ledger_paid"`
}

type MemberSummary struct {
	MemberID       string           `json:"member_id"`
	Circles        []CircleStanding `json:"circles"`
	TotalInvested  decimal.Decimal  `json:"total_invested"`
	TotalReceived  decimal.Decimal  `json:"total_received"`
	Net            decimal.Decimal  `json:"net"`
	LedgerPaid     decimal.Decimal  `json:"ledger_paid"`
	LedgerNet      decimal.Decimal  `json:"ledger_net"`
	Hands          int              `json:"hands"`
	WonCount       int              `json:"won_count"`
	TotalPrincipal decimal.Decimal  `json:"total_principal"`
	TotalBids      decimal.Decimal  `json:"total_bids"`
}

// SummarizeMember folds over every circle the member holds a slot in.
func SummarizeMember(memberID string, circles []models.Circle) (MemberSummary, error) {
	sum := MemberSummary{
		MemberID:       memberID,
		Circles:        []CircleStanding{},
		TotalInvested:  decimal.Zero,
		TotalReceived:  decimal.Zero,
		LedgerPaid:     decimal.Zero,
		TotalPrincipal: decimal.Zero,
		TotalBids:      decimal.Zero,
	}
	for _, c := range circles {
		m, ok := c.Membership(memberID)
		if !ok {
			continue
		}
		st := CircleStanding{
			CircleID:      c.ID,
			CircleName:    c.Name,
			CircleType:    c.Type,
			SlotNumber:    m.SlotNumber,
			Status:        m.Status,
			WonRound:      m.WonRound,
			BidAmount:     m.BidAmount,
			RoundsElapsed: len(c.Rounds),
			Invested:      c.Principal.Mul(decimal.NewFromInt(int64(len(c.Rounds)))),
			Received:      decimal.Zero,
			LedgerPaid:    decimal.Zero,
		}
		for _, r := range c.Rounds {
			if r.Status != models.RoundCompleted {
				continue
			}
			if r.WinnerID != nil && *r.WinnerID == memberID {
				st.Received = st.Received.Add(r.TotalPot)
			}
			payables, err := r.DecodePayables()
			if err != nil {
				return MemberSummary{}, fmt.Errorf("circle %s: %w", c.ID, err)
			}
			for _, p := range payables {
				if p.MemberID == memberID {
					st.LedgerPaid = st.LedgerPaid.Add(p.Amount)
				}
			}
		}

		sum.Hands++
		sum.TotalPrincipal = sum.TotalPrincipal.Add(c.Principal)
		if m.Status == models.SlotDead {
			sum.WonCount++
			if m.BidAmount.Valid {
				sum.TotalBids = sum.TotalBids.Add(m.BidAmount.Decimal)
			}
		}
		sum.TotalInvested = sum.TotalInvested.Add(st.Invested)
		sum.TotalReceived = sum.TotalReceived.Add(st.Received)
		sum.LedgerPaid = sum.LedgerPaid.Add(st.LedgerPaid)
		sum.Circles = append(sum.Circles, st)
	}
	sum.Net = sum.TotalReceived.Sub(sum.TotalInvested)
	sum.LedgerNet = sum.TotalReceived.Sub(sum.LedgerPaid)
	return sum, nil
}

type Win struct {
	CircleID    string             `json:"circle_id"`
	CircleName  string             `json:"circle_name"`
	CircleType  models.AuctionType `json:"circle_type"`
	RoundNumber int                `json:"round_number"`
	Date        time.Time          `json:"date"`
	BidAmount   decimal.Decimal    `json:"bid_amount"`
	TotalPot    decimal.Decimal    `json:"total_pot"`
}

// WinningHistory lists the rounds a member won, newest first.
func WinningHistory(memberID string, circles []models.Circle) []Win {
	wins := []Win{}
	for _, c := range circles {
		for _, r := range c.Rounds {
			if r.WinnerID == nil || *r.WinnerID != memberID {
				continue
			}
			wins = append(wins, Win{
				CircleID:    c.ID,
				CircleName:  c.Name,
				CircleType:  c.Type,
				RoundNumber: r.RoundNumber,
				Date:        r.Date,
				BidAmount:   r.BidAmount,
				TotalPot:    r.TotalPot,
			})
		}
	}
	sort.SliceStable(wins, func(i, j int) bool { return wins[i].Date.After(wins[j].Date) })
	return wins
}

type Upcoming struct {
	CircleID    string             `json:"circle_id"`
	CircleName  string             `json:"circle_name"`
	CircleType  models.AuctionType `json:"circle_type"`
	RoundNumber int                `json:"round_number"`
	DueDate     time.Time          `json:"due_date"`
	Amount      decimal.Decimal    `json:"amount"`
	Status      models.SlotStatus  `json:"status"`
}

// UpcomingPayments lists what the member owes in every unfinished circle,
// soonest due first.
func UpcomingPayments(memberID string, circles []models.Circle) []Upcoming {
	out := []Upcoming{}
	for _, c := range circles {
		m, ok := c.Membership(memberID)
		if !ok {
			continue
		}
		open, ok := c.OpenRound()
		if !ok {
			continue
		}
		out = append(out, Upcoming{
			CircleID:    c.ID,
			CircleName:  c.Name,
			CircleType:  c.Type,
			RoundNumber: open.RoundNumber,
			DueDate:     c.NextDueDate,
			Amount:      CurrentObligation(c, m),
			Status:      m.Status,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

type DuePayment struct {
	CircleID   string             `json:"circle_id"`
	CircleName string             `json:"circle_name"`
	CircleType models.AuctionType `json:"circle_type"`
	MemberID   string             `json:"member_id"`
	MemberName string             `json:"member_name"`
	SlotNumber int                `json:"slot_number"`
	Status     models.SlotStatus  `json:"status"`
	Amount     decimal.Decimal    `json:"amount"`
	Note       string             `json:"note"`
}

type Dashboard struct {
	Members            int             `json:"members"`
	Circles            int             `json:"circles"`
	AliveHands         int             `json:"alive_hands"`
	DeadHands          int             `json:"dead_hands"`
	VacantSlots        int             `json:"vacant_slots"`
	ExpectedCollection decimal.Decimal `json:"expected_collection"`
	Due                []DuePayment    `json:"due"`
}

func BuildDashboard(circles []models.Circle, members []models.Member) Dashboard {
	names := memberNames(members)
	d := Dashboard{
		Members:            len(members),
		Circles:            len(circles),
		ExpectedCollection: decimal.Zero,
		Due:                []DuePayment{},
	}
	for _, c := range circles {
		d.VacantSlots += len(VacantSlots(c))
		for _, m := range c.Members {
			note := "principal, deduction pending"
			if m.Status == models.SlotDead {
				d.DeadHands++
				if c.Type == models.InterestDeferred {
					note = "principal + deferred interest"
				} else {
					note = "full principal, dead hand"
				}
			} else {
				d.AliveHands++
			}
			if _, open := c.OpenRound(); !open {
				continue
			}
			amount := CurrentObligation(c, m)
			d.ExpectedCollection = d.ExpectedCollection.Add(amount)
			d.Due = append(d.Due, DuePayment{
				CircleID:   c.ID,
				CircleName: c.Name,
				CircleType: c.Type,
				MemberID:   m.MemberID,
				MemberName: names[m.MemberID],
				SlotNumber: m.SlotNumber,
				Status:     m.Status,
				Amount:     amount,
				Note:       note,
			})
		}
	}
	return d
}

func memberNames(members []models.Member) map[string]string {
	out := make(map[string]string, len(members))
	for _, m := range members {
		out[m.ID] = m.Name
	}
	return out
}
