package bidding

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/oumpowerman/thaoshare/helpers"
	"github.com/oumpowerman/thaoshare/middlewares"
	"github.com/oumpowerman/thaoshare/services"
	"github.com/shopspring/decimal"
)

type Handler struct {
	Settlement *services.SettlementService
}

type BidRequest struct {
	WinnerID    string                 `json:"winner_id"`
	Bid         helpers.FlexibleAmount `json:"bid"`
	ExpectedPot helpers.FlexibleAmount `json:"expected_pot"`
}

// bid validates the request shape; an empty bid means zero.
func (r BidRequest) bid() (decimal.Decimal, error) {
	if r.Bid.IsZero() {
		return decimal.Zero, nil
	}
	return r.Bid.Decimal()
}

// Preview shows the pot and every member's payable for a candidate winner
// and bid. Nothing is written.
func (h *Handler) Preview(c *fiber.Ctx) error {
	var req BidRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if strings.TrimSpace(req.WinnerID) == "" {
		return helpers.JSONError(c, "WINNER_REQUIRED")
	}
	bid, err := req.bid()
	if err != nil {
		return helpers.JSONErrorStatus(c, fiber.StatusUnprocessableEntity, "INVALID_BID", err.Error())
	}

	payout, err := h.Settlement.Preview(c.UserContext(), c.Params("id"), strings.TrimSpace(req.WinnerID), bid)
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Payout calculated", payout)
}

func (h *Handler) Settle(c *fiber.Ctx) error {
	var req BidRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if strings.TrimSpace(req.WinnerID) == "" {
		return helpers.JSONError(c, "WINNER_REQUIRED")
	}
	bid, err := req.bid()
	if err != nil {
		return helpers.JSONErrorStatus(c, fiber.StatusUnprocessableEntity, "INVALID_BID", err.Error())
	}

	me, _ := middlewares.CurrentMember(c)
	in := services.SettleInput{CircleID: c.Params("id"), WinnerID: strings.TrimSpace(req.WinnerID), Bid: bid, OperatorID: me.ID}
	if !req.ExpectedPot.IsZero() {
		pot, err := req.ExpectedPot.Decimal()
		if err != nil {
			return helpers.JSONErrorStatus(c, fiber.StatusBadRequest, "INVALID_EXPECTED_POT", err.Error())
		}
		in.ExpectedPot = &pot
	}

	res, err := h.Settlement.Settle(c.UserContext(), in)
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Round settled successfully", res)
}
