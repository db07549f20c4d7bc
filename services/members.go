package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/oumpowerman/thaoshare/engine"
	"github.com/oumpowerman/thaoshare/models"
)

type RegisterMemberInput struct {
	Email    string
	Name     string
	Phone    string
	Role     models.Role
	RiskTier models.RiskTier
}

type ProfileInput struct {
	Name        *string
	Phone       *string
	AvatarURL   *string
	BankName    *string
	BankAccount *string
	PromptPay   *string
}

// MemberReport is everything the member screen shows.
type MemberReport struct {
	Member   models.Member        `json:"member"`
	Summary  engine.MemberSummary `json:"summary"`
	Wins     []engine.Win         `json:"wins"`
	Upcoming []engine.Upcoming    `json:"upcoming"`
}

type MemberService struct {
	store  Store
	logger *slog.Logger
}

func NewMemberService(store Store, logger *slog.Logger) *MemberService {
	return &MemberService{store: store, logger: logger}
}

func (s *MemberService) Register(ctx context.Context, in RegisterMemberInput) (models.Member, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Member{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return models.Member{}, fmt.Errorf("%w: email %q", ErrInvalidInput, in.Email)
		}
	}
	if in.Role == "" {
		in.Role = models.RoleParticipant
	}
	if !in.Role.Valid() {
		return models.Member{}, fmt.Errorf("%w: role %q", ErrInvalidInput, in.Role)
	}
	if in.RiskTier == "" {
		in.RiskTier = models.RiskA
	}
	if !in.RiskTier.Valid() {
		return models.Member{}, fmt.Errorf("%w: risk tier %q", ErrInvalidInput, in.RiskTier)
	}

	m := models.Member{
		Email:    in.Email,
		Name:     name,
		Phone:    strings.TrimSpace(in.Phone),
		Role:     in.Role,
		RiskTier: in.RiskTier,
		Status:   models.MemberActive,
	}
	if err := s.store.CreateMember(ctx, &m); err != nil {
		return models.Member{}, err
	}
	s.logger.Info("member registered", "member", m.ID, "role", m.Role)
	return m, nil
}

func (s *MemberService) List(ctx context.Context) ([]models.Member, error) {
	return s.store.ListMembers(ctx)
}

func (s *MemberService) Get(ctx context.Context, id string) (models.Member, error) {
	return s.store.GetMember(ctx, id)
}

// UpdateProfile changes the member's own contact and payout details.
func (s *MemberService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (models.Member, error) {
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return models.Member{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.Member{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		m.Name = name
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&m.Phone, in.Phone)
	set(&m.AvatarURL, in.AvatarURL)
	set(&m.BankName, in.BankName)
	set(&m.BankAccount, in.BankAccount)
	set(&m.PromptPay, in.PromptPay)

	if err := s.store.UpdateMember(ctx, &m); err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// SetStanding is the admin's watchlist/blacklist and risk tier control.
// Zero values leave the field unchanged.
func (s *MemberService) SetStanding(ctx context.Context, id string, status models.MemberStatus, tier models.RiskTier) (models.Member, error) {
	if status != "" && !status.Valid() {
		return models.Member{}, fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}
	if tier != "" && !tier.Valid() {
		return models.Member{}, fmt.Errorf("%w: risk tier %q", ErrInvalidInput, tier)
	}
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return models.Member{}, err
	}
	if status != "" {
		m.Status = status
	}
	if tier != "" {
		m.RiskTier = tier
	}
	if err := s.store.UpdateMember(ctx, &m); err != nil {
		return models.Member{}, err
	}
	s.logger.Info("member standing changed", "member", m.ID, "status", m.Status, "risk_tier", m.RiskTier)
	return m, nil
}

func (s *MemberService) Report(ctx context.Context, id string) (MemberReport, error) {
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return MemberReport{}, err
	}
	circles, err := s.store.ListCirclesForMember(ctx, id)
	if err != nil {
		return MemberReport{}, err
	}
	sum, err := engine.SummarizeMember(id, circles)
	if err != nil {
		return MemberReport{}, err
	}
	return MemberReport{
		Member:   m,
		Summary:  sum,
		Wins:     engine.WinningHistory(id, circles),
		Upcoming: engine.UpcomingPayments(id, circles),
	}, nil
}

func (s *MemberService) Wins(ctx context.Context, id string) ([]engine.Win, error) {
	circles, err := s.store.ListCirclesForMember(ctx, id)
	if err != nil {
		return nil, err
	}
	return engine.WinningHistory(id, circles), nil
}

func (s *MemberService) Upcoming(ctx context.Context, id string) ([]engine.Upcoming, error) {
	circles, err := s.store.ListCirclesForMember(ctx, id)
	if err != nil {
		return nil, err
	}
	return engine.UpcomingPayments(id, circles), nil
}
