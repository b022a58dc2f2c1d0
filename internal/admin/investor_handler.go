package admin

import (
	"strings"

	"dukkan-backend/internal/database"
	"dukkan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type InvestorResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Note      string `json:"note"`
	CreatedAt string `json:"created_at"`
}

type CreateInvestorRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Note  string `json:"note"`
}

type UpdateInvestorRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
	Note  *string `json:"note"`
}

func toInvestorResponse(i *models.Investor) InvestorResponse {
	return InvestorResponse{
		ID:        i.ID,
		Name:      i.Name,
		Phone:     i.Phone,
		Email:     i.Email,
		Note:      i.Note,
		CreatedAt: i.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ----------------------------------------
// YATIRIMCI CRUD
// ----------------------------------------

func CreateInvestorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateInvestorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Yatırımcı adı boş olamaz")
		}

		investor := models.Investor{
			Name:  body.Name,
			Phone: strings.TrimSpace(body.Phone),
			Email: strings.ToLower(strings.TrimSpace(body.Email)),
			Note:  body.Note,
		}

		if err := database.DB.Create(&investor).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yatırımcı oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toInvestorResponse(&investor))
	}
}

func ListInvestorsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var investors []models.Investor
		if err := database.DB.Order("name asc").Find(&investors).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yatırımcılar listelenemedi")
		}

		res := make([]InvestorResponse, 0, len(investors))
		for i := range investors {
			res = append(res, toInvestorResponse(&investors[i]))
		}

		return c.JSON(res)
	}
}

func GetInvestorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var investor models.Investor
		if err := database.DB.First(&investor, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Yatırımcı bulunamadı")
		}

		return c.JSON(toInvestorResponse(&investor))
	}
}

func UpdateInvestorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var investor models.Investor
		if err := database.DB.First(&investor, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Yatırımcı bulunamadı")
		}

		var body UpdateInvestorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Yatırımcı adı boş olamaz")
			}
			investor.Name = name
		}
		if body.Phone != nil {
			investor.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			investor.Email = strings.ToLower(strings.TrimSpace(*body.Email))
		}
		if body.Note != nil {
			investor.Note = *body.Note
		}

		if err := database.DB.Save(&investor).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yatırımcı güncellenemedi")
		}

		return c.JSON(toInvestorResponse(&investor))
	}
}

// Ortaklık kaydı olan yatırımcı silinemez; önce paylar kapatılmalı.
func DeleteInvestorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var investor models.Investor
		if err := database.DB.First(&investor, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Yatırımcı bulunamadı")
		}

		var shareCount int64
		if err := database.DB.Model(&models.OwnershipShare{}).
			Where("investor_id = ?", investor.ID).
			Count(&shareCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ortaklık kontrolü yapılamadı")
		}
		if shareCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Ortaklık kaydı olan yatırımcı silinemez")
		}

		if err := database.DB.Delete(&investor).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yatırımcı silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
