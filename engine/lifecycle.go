package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/oumpowerman/thaoshare/models"
	"github.com/shopspring/decimal"
)

const MinSlots = 2

type CircleSpec struct {
	Name       string
	Principal  decimal.Decimal
	TotalSlots int
	Type       models.AuctionType
	Period     models.Period
	StartDate  time.Time
	MemberIDs  []string
}

// NewCircle builds a circle with slots 1..len(MemberIDs) filled in list
// order, every hand alive, and round 1 open on the start date. Slots past
// the candidate list stay vacant.
func NewCircle(spec CircleSpec) (models.Circle, error) {
	name := strings.TrimSpace(spec.Name)
	switch {
	case name == "":
		return models.Circle{}, fmt.Errorf("%w: name is required", ErrInvalidCircle)
	case !spec.Principal.IsPositive():
		return models.Circle{}, fmt.Errorf("%w: principal must be positive", ErrInvalidCircle)
	case spec.TotalSlots < MinSlots:
		return models.Circle{}, fmt.Errorf("%w: at least %d slots required", ErrInvalidCircle, MinSlots)
	case !spec.Type.Valid():
		return models.Circle{}, fmt.Errorf("%w: unknown auction type %q", ErrInvalidCircle, spec.Type)
	case !spec.Period.Valid():
		return models.Circle{}, fmt.Errorf("%w: unknown period %q", ErrInvalidCircle, spec.Period)
	case spec.StartDate.IsZero():
		return models.Circle{}, fmt.Errorf("%w: start date is required", ErrInvalidCircle)
	case len(spec.MemberIDs) > spec.TotalSlots:
		return models.Circle{}, fmt.Errorf("%w: %d members for %d slots", ErrInvalidCircle, len(spec.MemberIDs), spec.TotalSlots)
	}

	seen := make(map[string]struct{}, len(spec.MemberIDs))
	members := make([]models.SlotMembership, 0, len(spec.MemberIDs))
	for i, id := range spec.MemberIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return models.Circle{}, fmt.Errorf("%w: empty member id at position %d", ErrInvalidCircle, i+1)
		}
		if _, dup := seen[id]; dup {
			return models.Circle{}, fmt.Errorf("%w: %s", ErrDuplicateMember, id)
		}
		seen[id] = struct{}{}
		members = append(members, models.SlotMembership{
			MemberID:   id,
			SlotNumber: i + 1,
			Status:     models.SlotAlive,
		})
	}

	start := models.DateOnly(spec.StartDate)
	return models.Circle{
		Name:        name,
		Principal:   spec.Principal,
		TotalSlots:  spec.TotalSlots,
		Type:        spec.Type,
		Period:      spec.Period,
		StartDate:   start,
		NextDueDate: start,
		AnchorDay:   start.Day(),
		Members:     members,
		Rounds: []models.Round{{
			RoundNumber: 1,
			Date:        start,
			Status:      models.RoundOpen,
			BidAmount:   decimal.Zero,
			TotalPot:    decimal.Zero,
		}},
	}, nil
}

// VacantSlots lists slot numbers with no membership.
func VacantSlots(c models.Circle) []int {
	taken := make(map[int]bool, len(c.Members))
	for _, m := range c.Members {
		taken[m.SlotNumber] = true
	}
	var out []int
	for i := 1; i <= c.TotalSlots; i++ {
		if !taken[i] {
			out = append(out, i)
		}
	}
	return out
}
