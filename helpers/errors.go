package helpers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/oumpowerman/thaoshare/engine"
	"github.com/oumpowerman/thaoshare/repository"
	"github.com/oumpowerman/thaoshare/services"
)

type errorCode struct {
	err    error
	status int
	code   string
}

var errorCodes = []errorCode{
	{engine.ErrInvalidBid, fiber.StatusUnprocessableEntity, "INVALID_BID"},
	{engine.ErrIneligibleWinner, fiber.StatusUnprocessableEntity, "INELIGIBLE_WINNER"},
	{engine.ErrNoOpenRound, fiber.StatusConflict, "NO_OPEN_ROUND"},
	{engine.ErrDuplicateMember, fiber.StatusBadRequest, "DUPLICATE_MEMBER"},
	{engine.ErrInvalidCircle, fiber.StatusBadRequest, "INVALID_CIRCLE"},
	{engine.ErrPotMismatch, fiber.StatusConflict, "POT_MISMATCH"},
	{engine.ErrUnknownRound, fiber.StatusNotFound, "ROUND_NOT_FOUND"},
	{repository.ErrRoundAlreadySettled, fiber.StatusConflict, "ROUND_ALREADY_SETTLED"},
	{repository.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{services.ErrInvalidInput, fiber.StatusBadRequest, "INVALID_INPUT"},
	{services.ErrNotMember, fiber.StatusForbidden, "NOT_CIRCLE_MEMBER"},
	{services.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{services.ErrInvalidSlip, fiber.StatusUnsupportedMediaType, "INVALID_SLIP"},
}

// Fail maps a service error onto the response envelope.
func Fail(c *fiber.Ctx, err error) error {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return JSONErrorStatus(c, ec.status, ec.code, err.Error())
		}
	}
	var se *repository.StorageError
	if errors.As(err, &se) {
		slog.Error("storage failure", "op", se.Op, "error", se.Err, "path", c.Path())
		return JSONErrorStatus(c, fiber.StatusInternalServerError, "STORAGE_FAILURE", "")
	}
	slog.Error("unhandled error", "error", err, "path", c.Path())
	return JSONErrorStatus(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "")
}
