package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Classification string

const (
	ClassWinner    Classification = "WINNER"
	ClassDeadHand  Classification = "DEAD_HAND"
	ClassAliveHand Classification = "ALIVE_HAND"
)

// Payable is one membership's obligation for a round.
type Payable struct {
	MemberID       string          `json:"member_id"`
	SlotNumber     int             `json:"slot_number"`
	Status         SlotStatus      `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	Classification Classification  `json:"classification"`
	Note           string          `json:"note"`
}

func EncodePayables(p []Payable) (datatypes.JSON, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payables: %w", err)
	}
	return datatypes.JSON(b), nil
}

// DecodePayables returns nil for rounds that were never settled.
func (r Round) DecodePayables() ([]Payable, error) {
	if len(r.Payables) == 0 {
		return nil, nil
	}
	var out []Payable
	if err := json.Unmarshal(r.Payables, &out); err != nil {
		return nil, fmt.Errorf("decode payables of round %d: %w", r.RoundNumber, err)
	}
	return out, nil
}
