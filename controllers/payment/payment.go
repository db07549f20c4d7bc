package payment

import (
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/oumpowerman/thaoshare/helpers"
	"github.com/oumpowerman/thaoshare/middlewares"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/oumpowerman/thaoshare/repository"
	"github.com/oumpowerman/thaoshare/services"
)

const maxSlipBytes = 5 << 20

type Handler struct {
	Payments *services.PaymentService
}

// Submit takes a multipart form: amount, an optional slip image and, for
// admins recording on someone's behalf, member_id.
func (h *Handler) Submit(c *fiber.Ctx) error {
	me, _ := middlewares.CurrentMember(c)

	amount, err := helpers.FlexibleAmount(c.FormValue("amount")).Decimal()
	if err != nil {
		return helpers.JSONErrorStatus(c, fiber.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	}

	memberID := me.ID
	if other := strings.TrimSpace(c.FormValue("member_id")); other != "" && other != me.ID {
		if me.Role != models.RoleAdmin {
			return helpers.Fail(c, services.ErrForbidden)
		}
		memberID = other
	}

	in := services.SubmitPaymentInput{CircleID: c.Params("id"), MemberID: memberID, Amount: amount}

	if form, err := c.MultipartForm(); err == nil && len(form.File["slip"]) > 0 {
		fh := form.File["slip"][0]
		if fh.Size > maxSlipBytes {
			return helpers.JSONErrorStatus(c, fiber.StatusRequestEntityTooLarge, "SLIP_TOO_LARGE", "")
		}
		f, err := fh.Open()
		if err != nil {
			return helpers.JSONError(c, "INVALID_SLIP")
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxSlipBytes))
		if err != nil {
			return helpers.JSONError(c, "INVALID_SLIP")
		}
		in.Slip = &services.Slip{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Data:        data,
		}
	}

	tx, err := h.Payments.Submit(c.UserContext(), in)
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONCreated(c, "Payment recorded successfully", tx)
}

// List returns every transaction to admins (optionally filtered) and only
// the caller's own otherwise.
func (h *Handler) List(c *fiber.Ctx) error {
	me, _ := middlewares.CurrentMember(c)
	f := repository.TransactionFilter{CircleID: c.Query("circle_id")}
	if me.Role == models.RoleAdmin {
		f.MemberID = c.Query("member_id")
	} else {
		f.MemberID = me.ID
	}
	txs, err := h.Payments.List(c.UserContext(), f)
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Transactions retrieved successfully", txs)
}

func (h *Handler) Collection(c *fiber.Ctx) error {
	col, err := h.Payments.Collection(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Collection retrieved successfully", col)
}

func (h *Handler) Reconcile(c *fiber.Ctx) error {
	round, err := strconv.Atoi(c.Params("round"))
	if err != nil || round < 1 {
		return helpers.JSONError(c, "INVALID_ROUND")
	}
	rows, err := h.Payments.Reconcile(c.UserContext(), c.Params("id"), round)
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Reconciliation retrieved successfully", rows)
}
