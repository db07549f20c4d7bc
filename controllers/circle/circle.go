package circle

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oumpowerman/thaoshare/engine"
	"github.com/oumpowerman/thaoshare/helpers"
	"github.com/oumpowerman/thaoshare/middlewares"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/oumpowerman/thaoshare/services"
)

type Handler struct {
	Circles *services.CircleService
}

type CreateCircleRequest struct {
	Name       string                 `json:"name"`
	Principal  helpers.FlexibleAmount `json:"principal"`
	TotalSlots int                    `json:"total_slots"`
	Type       string                 `json:"type"`
	Period     string                 `json:"period"`
	StartDate  string                 `json:"start_date"`
	MemberIDs  []string               `json:"member_ids"`
}

// View is a circle plus the values screens derive from it.
type View struct {
	models.Circle
	VacantSlots []int `json:"vacant_slots"`
	OpenRound   *int  `json:"open_round"`
	Finished    bool  `json:"finished"`
	// Stalled marks an open round that no seated member can win.
	Stalled bool `json:"stalled"`
}

func NewView(c models.Circle) View {
	v := View{Circle: c, VacantSlots: engine.VacantSlots(c), Finished: c.Finished(), Stalled: engine.Stalled(c)}
	if r, ok := c.OpenRound(); ok {
		n := r.RoundNumber
		v.OpenRound = &n
	}
	return v
}

// List returns every circle to admins and the member's own circles to
// everyone else, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	me, _ := middlewares.CurrentMember(c)

	var (
		circles []models.Circle
		err     error
	)
	if me.Role == models.RoleAdmin {
		circles, err = h.Circles.List(c.UserContext())
	} else {
		circles, err = h.Circles.ListForMember(c.UserContext(), me.ID)
	}
	if err != nil {
		return helpers.Fail(c, err)
	}

	views := make([]View, 0, len(circles))
	for _, ci := range circles {
		views = append(views, NewView(ci))
	}
	return helpers.JSONSuccess(c, "Circles retrieved successfully", views)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	circle, err := h.Circles.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}
	me, _ := middlewares.CurrentMember(c)
	if me.Role != models.RoleAdmin {
		if _, ok := circle.Membership(me.ID); !ok {
			return helpers.Fail(c, services.ErrNotMember)
		}
	}
	return helpers.JSONSuccess(c, "Circle retrieved successfully", NewView(circle))
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var req CreateCircleRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	if strings.TrimSpace(req.Name) == "" {
		return helpers.JSONError(c, "NAME_REQUIRED")
	}
	principal, err := req.Principal.Decimal()
	if err != nil {
		return helpers.JSONErrorStatus(c, fiber.StatusBadRequest, "INVALID_PRINCIPAL", err.Error())
	}
	typ := models.AuctionType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if !typ.Valid() {
		return helpers.JSONError(c, "INVALID_TYPE")
	}
	period := models.Period(strings.ToUpper(strings.TrimSpace(req.Period)))
	if period == "" {
		period = models.PeriodMonthly
	}
	if !period.Valid() {
		return helpers.JSONError(c, "INVALID_PERIOD")
	}
	start, err := time.Parse(time.DateOnly, strings.TrimSpace(req.StartDate))
	if err != nil {
		return helpers.JSONError(c, "INVALID_START_DATE")
	}

	circle, err := h.Circles.Create(c.UserContext(), services.CreateCircleInput{
		Name:       req.Name,
		Principal:  principal,
		TotalSlots: req.TotalSlots,
		Type:       typ,
		Period:     period,
		StartDate:  start,
		MemberIDs:  req.MemberIDs,
	})
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONCreated(c, "Circle created successfully", NewView(circle))
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Circles.Delete(c.UserContext(), id); err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Circle deleted successfully", fiber.Map{"id": id})
}
