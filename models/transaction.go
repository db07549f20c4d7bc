package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentLate    PaymentStatus = "LATE"
)

// Transaction is a member's payment evidence for a circle. Rows are never
// updated; a correction is a new row and the latest Timestamp wins.
type Transaction struct {
	Base

	CircleID       string          `gorm:"size:36;not null;index:idx_tx_triple" json:"circle_id"`
	RoundNumber    int             `gorm:"not null;index:idx_tx_triple" json:"round_number"`
	MemberID       string          `gorm:"size:36;not null;index:idx_tx_triple" json:"member_id"`
	AmountExpected decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount_expected"`
	AmountPaid     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount_paid"`
	Status         PaymentStatus   `gorm:"size:16;not null;index" json:"status"`
	SlipURL        string          `gorm:"size:512" json:"slip_url,omitempty"`
	Timestamp      time.Time       `gorm:"not null;index" json:"timestamp"`
}

func (Transaction) TableName() string {
	return "transactions"
}
