package handlers

import (
	"encoding/json"
	"errors"

	"shelfpos/internal/domain"
	applog "shelfpos/internal/log"

	"github.com/gofiber/fiber/v2"
)

const genericError = "Something went wrong. Please try again."

// fail maps a service error onto a JSON response. Unknown errors are logged
// and answered with a generic message.
func fail(c *fiber.Ctx, action string, err error) error {
	var capErr *domain.CapacityError
	switch {
	case errors.As(err, &capErr):
		applog.Warn(c, action+".capacity", map[string]any{"item": capErr.ItemID, "available": capErr.Available})
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     capErr.Error(),
			"itemId":    capErr.ItemID,
			"available": capErr.Available,
		})
	case errors.Is(err, domain.ErrInvalidNumber), errors.Is(err, domain.ErrInvalidInput):
		applog.Security(c, "validation.fail", map[string]any{"action": action, "reason": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrNoOwner):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateBrand), errors.Is(err, domain.ErrItemChanged):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrCheckoutInFlight):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrCheckoutFailed):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Checkout could not be completed. Your cart was kept, please try again."})
	}
	applog.Error(c, action+".fail", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": genericError})
}

// badBody answers a request whose body could not be decoded.
func badBody(c *fiber.Ctx, action string, err error) error {
	applog.Security(c, "validation.fail", map[string]any{"action": action, "reason": err.Error()})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
}

// field accepts a JSON string or number so clients may send "3" or 3.
type field string

func (f *field) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = field(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = field(n.String())
	return nil
}
