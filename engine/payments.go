package engine

import (
	"fmt"
	"time"

	"github.com/oumpowerman/thaoshare/models"
	"github.com/shopspring/decimal"
)

// PaymentStatusFor classifies a submitted payment. A short payment stays
// PENDING; a full one made after the end of the due day is LATE.
func PaymentStatusFor(expected, paid decimal.Decimal, due, at time.Time) models.PaymentStatus {
	if paid.LessThan(expected) {
		return models.PaymentPending
	}
	if !due.IsZero() && at.After(models.DateOnly(due).AddDate(0, 0, 1)) {
		return models.PaymentLate
	}
	return models.PaymentPaid
}

// LatestTransaction picks the authoritative record for a circle, round and
// member triple: the one with the newest timestamp.
func LatestTransaction(txs []models.Transaction, circleID, memberID string, round int) (models.Transaction, bool) {
	var best models.Transaction
	found := false
	for _, tx := range txs {
		if tx.CircleID != circleID || tx.MemberID != memberID || tx.RoundNumber != round {
			continue
		}
		if !found || tx.Timestamp.After(best.Timestamp) {
			best = tx
			found = true
		}
	}
	return best, found
}

type CollectionRow struct {
	MemberID      string               `json:"member_id"`
	MemberName    string               `json:"member_name"`
	SlotNumber    int                  `json:"slot_number"`
	Amount        decimal.Decimal      `json:"amount"`
	Status        models.PaymentStatus `json:"status"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	SlipURL       string               `json:"slip_url,omitempty"`
	TransactionID string               `json:"transaction_id,omitempty"`
}

type Collection struct {
	CircleID    string          `json:"circle_id"`
	RoundNumber int             `json:"round_number"`
	Rows        []CollectionRow `json:"rows"`
	Paid        int             `json:"paid"`
	Total       int             `json:"total"`
	Progress    float64         `json:"progress"`
}

// BuildCollection shows, for the circle's current period, who has paid.
// Payments recorded without a round (round 0) count for the current one.
func BuildCollection(circle models.Circle, members []models.Member, txs []models.Transaction) Collection {
	names := memberNames(members)
	round := 0
	if open, ok := circle.OpenRound(); ok {
		round = open.RoundNumber
	}
	col := Collection{CircleID: circle.ID, RoundNumber: round, Rows: []CollectionRow{}}
	for _, m := range circle.Members {
		row := CollectionRow{
			MemberID:   m.MemberID,
			MemberName: names[m.MemberID],
			SlotNumber: m.SlotNumber,
			Amount:     CurrentObligation(circle, m),
			Status:     models.PaymentPending,
		}
		tx, ok := LatestTransaction(txs, circle.ID, m.MemberID, round)
		if !ok && round != 0 {
			tx, ok = LatestTransaction(txs, circle.ID, m.MemberID, 0)
		}
		if ok {
			at := tx.Timestamp
			row.Status = tx.Status
			row.PaidAt = &at
			row.SlipURL = tx.SlipURL
			row.TransactionID = tx.ID
			if tx.Status != models.PaymentPending {
				col.Paid++
			}
		}
		col.Rows = append(col.Rows, row)
	}
	col.Total = len(col.Rows)
	if col.Total > 0 {
		col.Progress = float64(col.Paid) / float64(col.Total) * 100
	}
	return col
}

type ReconciliationStatus string

const (
	ReconPaid    ReconciliationStatus = "PAID"
	ReconShort   ReconciliationStatus = "SHORT"
	ReconMissing ReconciliationStatus = "MISSING"
)

// ReconciliationRow compares one member's obligation with what they
// recorded. Exact is false when the obligation is an estimate (round not
// settled yet); Bound is false when the matched payment carried no round.
type ReconciliationRow struct {
	MemberID      string               `json:"member_id"`
	SlotNumber    int                  `json:"slot_number"`
	Expected      decimal.Decimal      `json:"expected"`
	Paid          decimal.Decimal      `json:"paid"`
	TransactionID string               `json:"transaction_id,omitempty"`
	Status        ReconciliationStatus `json:"status"`
	Exact         bool                 `json:"exact"`
	Bound         bool                 `json:"bound"`
}

// Reconcile is best-effort: payments are not tied to computed obligations
// at submission time, so the match is by triple with a round-0 fallback.
func Reconcile(circle models.Circle, roundNumber int, txs []models.Transaction) ([]ReconciliationRow, error) {
	round, ok := circle.Round(roundNumber)
	if !ok {
		return nil, fmt.Errorf("%w: circle %s has no round %d", ErrUnknownRound, circle.ID, roundNumber)
	}
	payables, err := round.DecodePayables()
	if err != nil {
		return nil, err
	}
	settled := make(map[string]decimal.Decimal, len(payables))
	for _, p := range payables {
		settled[p.MemberID] = p.Amount
	}

	rows := make([]ReconciliationRow, 0, len(circle.Members))
	for _, m := range circle.Members {
		row := ReconciliationRow{
			MemberID:   m.MemberID,
			SlotNumber: m.SlotNumber,
			Paid:       decimal.Zero,
			Status:     ReconMissing,
		}
		if amt, ok := settled[m.MemberID]; ok && round.Status == models.RoundCompleted {
			row.Expected = amt
			row.Exact = true
		} else {
			row.Expected = CurrentObligation(circle, m)
		}

		tx, found := LatestTransaction(txs, circle.ID, m.MemberID, roundNumber)
		row.Bound = found
		if !found {
			tx, found = LatestTransaction(txs, circle.ID, m.MemberID, 0)
		}
		if found {
			row.Paid = tx.AmountPaid
			row.TransactionID = tx.ID
			if tx.AmountPaid.LessThan(row.Expected) {
				row.Status = ReconShort
			} else {
				row.Status = ReconPaid
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
