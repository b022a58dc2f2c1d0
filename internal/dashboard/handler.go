package dashboard

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// GET /api/shops/:id/dashboard
func ShopDashboardHandler(agg *Aggregator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var shopID uint
		if _, err := fmt.Sscan(c.Params("id"), &shopID); err != nil || shopID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		view, err := agg.View(shopID)
		if err != nil {
			if errors.Is(err, ErrShopNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Dashboard oluşturulamadı")
		}

		return c.JSON(view)
	}
}
