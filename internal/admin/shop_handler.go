package admin

import (
	"strings"

	"dukkan-backend/internal/database"
	"dukkan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ShopResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
}

type CreateShopRequest struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   *string `json:"phone"` // Opsiyonel
}

type UpdateShopRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

func toShopResponse(s *models.Shop) ShopResponse {
	return ShopResponse{
		ID:        s.ID,
		Name:      s.Name,
		Address:   s.Address,
		Phone:     s.Phone,
		CreatedAt: s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ----------------------------------------
// DÜKKAN CRUD
// ----------------------------------------

func CreateShopHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateShopRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Dükkan adı boş olamaz")
		}

		shop := models.Shop{
			Name:    body.Name,
			Address: body.Address,
		}
		if body.Phone != nil {
			shop.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Create(&shop).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dükkan oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toShopResponse(&shop))
	}
}

func ListShopsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var shops []models.Shop
		if err := database.DB.Order("name asc").Find(&shops).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dükkanlar listelenemedi")
		}

		res := make([]ShopResponse, 0, len(shops))
		for i := range shops {
			res = append(res, toShopResponse(&shops[i]))
		}

		return c.JSON(res)
	}
}

func GetShopHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var shop models.Shop
		if err := database.DB.First(&shop, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Dükkan bulunamadı")
		}

		return c.JSON(toShopResponse(&shop))
	}
}

func UpdateShopHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var shop models.Shop
		if err := database.DB.First(&shop, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Dükkan bulunamadı")
		}

		var body UpdateShopRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Dükkan adı boş olamaz")
			}
			shop.Name = name
		}
		if body.Address != nil {
			shop.Address = *body.Address
		}
		if body.Phone != nil {
			shop.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Save(&shop).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dükkan güncellenemedi")
		}

		return c.JSON(toShopResponse(&shop))
	}
}

// Dükkan silinince payları, işlemleri ve mutabakatları da cascade gider.
func DeleteShopHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var shop models.Shop
		if err := database.DB.First(&shop, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Dükkan bulunamadı")
		}

		if err := database.DB.Delete(&shop).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dükkan silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
