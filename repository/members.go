package repository

import (
	"context"
	"strings"

	"github.com/oumpowerman/thaoshare/events"
	"github.com/oumpowerman/thaoshare/models"
)

func (s *Store) ListMembers(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	err := s.db.WithContext(ctx).Order("name ASC").Find(&members).Error
	return members, wrap("list members", err)
}

func (s *Store) GetMember(ctx context.Context, id string) (models.Member, error) {
	var m models.Member
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	return m, wrap("get member", err)
}

func (s *Store) GetMemberByEmail(ctx context.Context, email string) (models.Member, error) {
	var m models.Member
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&m).Error
	return m, wrap("get member by email", err)
}

func (s *Store) CreateMember(ctx context.Context, m *models.Member) error {
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return wrap("create member", err)
	}
	s.publish(ctx, events.NewChange(events.TableMembers, events.OpInsert, m.ID))
	return nil
}

func (s *Store) UpdateMember(ctx context.Context, m *models.Member) error {
	res := s.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", m.ID).Updates(map[string]any{
		"name":         m.Name,
		"phone":        m.Phone,
		"avatar_url":   m.AvatarURL,
		"bank_name":    m.BankName,
		"bank_account": m.BankAccount,
		"prompt_pay":   m.PromptPay,
		"role":         m.Role,
		"risk_tier":    m.RiskTier,
		"status":       m.Status,
	})
	if res.Error != nil {
		return wrap("update member", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("update member", ErrNotFound)
	}
	s.publish(ctx, events.NewChange(events.TableMembers, events.OpUpdate, m.ID))
	return nil
}
