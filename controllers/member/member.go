package member

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/oumpowerman/thaoshare/helpers"
	"github.com/oumpowerman/thaoshare/middlewares"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/oumpowerman/thaoshare/services"
)

type Handler struct {
	Members *services.MemberService
}

type RegisterMemberRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	RiskTier string `json:"risk_tier"`
}

type StandingRequest struct {
	Status   string `json:"status"`
	RiskTier string `json:"risk_tier"`
}

type ProfileRequest struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	AvatarURL   *string `json:"avatar_url"`
	BankName    *string `json:"bank_name"`
	BankAccount *string `json:"bank_account"`
	PromptPay   *string `json:"prompt_pay"`
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	m, err := h.Members.Register(c.UserContext(), services.RegisterMemberInput{
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     models.Role(strings.ToUpper(strings.TrimSpace(req.Role))),
		RiskTier: models.RiskTier(strings.ToUpper(strings.TrimSpace(req.RiskTier))),
	})
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONCreated(c, "Member registered successfully", m)
}

func (h *Handler) List(c *fiber.Ctx) error {
	members, err := h.Members.List(c.UserContext())
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Members retrieved successfully", members)
}

func (h *Handler) SetStanding(c *fiber.Ctx) error {
	var req StandingRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	m, err := h.Members.SetStanding(c.UserContext(), c.Params("id"),
		models.MemberStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		models.RiskTier(strings.ToUpper(strings.TrimSpace(req.RiskTier))),
	)
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Member updated successfully", m)
}

func (h *Handler) Summary(c *fiber.Ctx) error {
	r, err := h.Members.Report(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Member summary retrieved successfully", r)
}

// Wins is open to admins and to the member themself.
func (h *Handler) Wins(c *fiber.Ctx) error {
	id := c.Params("id")
	me, _ := middlewares.CurrentMember(c)
	if me.Role != models.RoleAdmin && me.ID != id {
		return helpers.Fail(c, services.ErrForbidden)
	}
	wins, err := h.Members.Wins(c.UserContext(), id)
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Winning history retrieved successfully", wins)
}

func (h *Handler) Me(c *fiber.Ctx) error {
	me, _ := middlewares.CurrentMember(c)
	return helpers.JSONSuccess(c, "Profile retrieved successfully", me)
}

func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	me, _ := middlewares.CurrentMember(c)
	m, err := h.Members.UpdateProfile(c.UserContext(), me.ID, services.ProfileInput{
		Name:        req.Name,
		Phone:       req.Phone,
		AvatarURL:   req.AvatarURL,
		BankName:    req.BankName,
		BankAccount: req.BankAccount,
		PromptPay:   req.PromptPay,
	})
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Profile updated successfully", m)
}

func (h *Handler) MySummary(c *fiber.Ctx) error {
	me, _ := middlewares.CurrentMember(c)
	r, err := h.Members.Report(c.UserContext(), me.ID)
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Summary retrieved successfully", r)
}

func (h *Handler) MyUpcoming(c *fiber.Ctx) error {
	me, _ := middlewares.CurrentMember(c)
	up, err := h.Members.Upcoming(c.UserContext(), me.ID)
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Upcoming payments retrieved successfully", up)
}
