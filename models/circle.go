package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type AuctionType string

const (
	// InterestDeducted (dok hak): alive hands pay principal minus the winning bid.
	InterestDeducted AuctionType = "INTEREST_DEDUCTED"
	// InterestDeferred (dok tam): the winner repays their bid every later round.
	InterestDeferred AuctionType = "INTEREST_DEFERRED"
)

func (t AuctionType) Valid() bool {
	return t == InterestDeducted || t == InterestDeferred
}

type Period string

const (
	PeriodDaily   Period = "DAILY"
	PeriodWeekly  Period = "WEEKLY"
	PeriodMonthly Period = "MONTHLY"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

type SlotStatus string

const (
	SlotAlive SlotStatus = "ALIVE"
	SlotDead  SlotStatus = "DEAD"
)

type RoundStatus string

const (
	RoundOpen      RoundStatus = "OPEN"
	RoundCompleted RoundStatus = "COMPLETED"
)

type Circle struct {
	Base

	Name        string          `gorm:"size:128;not null" json:"name"`
	Principal   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"principal"`
	TotalSlots  int             `gorm:"not null" json:"total_slots"`
	Type        AuctionType     `gorm:"size:24;not null" json:"type"`
	Period      Period          `gorm:"size:16;not null" json:"period"`
	StartDate   time.Time       `gorm:"not null" json:"start_date"`
	NextDueDate time.Time       `gorm:"not null;index" json:"next_due_date"`
	AnchorDay   int             `gorm:"not null" json:"anchor_day"`

	Members []SlotMembership `gorm:"foreignKey:CircleID;constraint:OnDelete:CASCADE" json:"members"`
	Rounds  []Round          `gorm:"foreignKey:CircleID;constraint:OnDelete:CASCADE" json:"rounds"`
}

func (Circle) TableName() string {
	return "circles"
}

// Normalize orders memberships by slot and rounds by number.
func (c *Circle) Normalize() {
	sort.Slice(c.Members, func(i, j int) bool { return c.Members[i].SlotNumber < c.Members[j].SlotNumber })
	sort.Slice(c.Rounds, func(i, j int) bool { return c.Rounds[i].RoundNumber < c.Rounds[j].RoundNumber })
}

func (c Circle) Membership(memberID string) (SlotMembership, bool) {
	for _, m := range c.Members {
		if m.MemberID == memberID {
			return m, true
		}
	}
	return SlotMembership{}, false
}

func (c Circle) OpenRound() (Round, bool) {
	for _, r := range c.Rounds {
		if r.Status == RoundOpen {
			return r, true
		}
	}
	return Round{}, false
}

func (c Circle) Round(number int) (Round, bool) {
	for _, r := range c.Rounds {
		if r.RoundNumber == number {
			return r, true
		}
	}
	return Round{}, false
}

func (c Circle) CompletedRounds() int {
	n := 0
	for _, r := range c.Rounds {
		if r.Status == RoundCompleted {
			n++
		}
	}
	return n
}

func (c Circle) Finished() bool {
	_, open := c.OpenRound()
	return !open && c.CompletedRounds() >= c.TotalSlots
}

// SlotMembership binds one member to one slot. WonRound and BidAmount are
// set exactly when Status is DEAD.
type SlotMembership struct {
	Base

	CircleID   string              `gorm:"size:36;not null;uniqueIndex:idx_slot_circle_number;uniqueIndex:idx_slot_circle_member" json:"circle_id"`
	MemberID   string              `gorm:"size:36;not null;index;uniqueIndex:idx_slot_circle_member" json:"member_id"`
	SlotNumber int                 `gorm:"not null;uniqueIndex:idx_slot_circle_number" json:"slot_number"`
	Status     SlotStatus          `gorm:"size:8;not null;default:ALIVE" json:"status"`
	WonRound   *int                `json:"won_round,omitempty"`
	BidAmount  decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"bid_amount"`
}

func (SlotMembership) TableName() string {
	return "circle_members"
}

type Round struct {
	Base

	CircleID    string          `gorm:"size:36;not null;uniqueIndex:idx_round_circle_number" json:"circle_id"`
	RoundNumber int             `gorm:"not null;uniqueIndex:idx_round_circle_number" json:"round_number"`
	Date        time.Time       `gorm:"not null" json:"date"`
	Status      RoundStatus     `gorm:"size:16;not null;index" json:"status"`
	WinnerID    *string         `gorm:"size:36;index" json:"winner_id,omitempty"`
	BidAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"bid_amount"`
	TotalPot    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_pot"`
	Payables    datatypes.JSON  `json:"payables,omitempty"`
}

func (Round) TableName() string {
	return "rounds"
}
