package allocation

import (
	"errors"
	"fmt"
	"time"

	"dukkan-backend/internal/audit"
	"dukkan-backend/internal/auth"
	"dukkan-backend/internal/database"
	"dukkan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AssignShareRequest struct {
	InvestorID      uint    `json:"investor_id"`
	SharePercentage float64 `json:"share_percentage"`
	JoinedDate      string  `json:"joined_date"` // "2025-12-09", boşsa bugün
}

type EditShareRequest struct {
	SharePercentage float64 `json:"share_percentage"`
}

type ShareResponse struct {
	ID              uint    `json:"id"`
	ShopID          uint    `json:"shop_id"`
	InvestorID      uint    `json:"investor_id"`
	InvestorName    string  `json:"investor_name"`
	SharePercentage float64 `json:"share_percentage"`
	Status          string  `json:"status"`
	JoinedDate      string  `json:"joined_date"`
	CreatedAt       string  `json:"created_at"`
}

type ShareListResponse struct {
	ShopID              uint            `json:"shop_id"`
	AllocatedPercentage float64         `json:"allocated_percentage"`
	RemainingPercentage float64         `json:"remaining_percentage"`
	Shares              []ShareResponse `json:"shares"`
}

// Servis hatasını HTTP cevabına çevir. Doğrulama hataları mesajlarında
// düzeltme ipucunu (kalan / olması gereken yüzde) zaten taşır.
func toFiberError(err error) error {
	var invalid *InvalidShareError
	switch {
	case errors.As(err, &invalid):
		return fiber.NewError(fiber.StatusBadRequest, invalid.Message)
	case errors.Is(err, ErrDuplicateAssignment):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrShopNotFound),
		errors.Is(err, ErrInvestorNotFound),
		errors.Is(err, ErrShareNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
	}
}

func toShareResponse(s *models.OwnershipShare) ShareResponse {
	return ShareResponse{
		ID:              s.ID,
		ShopID:          s.ShopID,
		InvestorID:      s.InvestorID,
		InvestorName:    s.Investor.Name,
		SharePercentage: s.SharePercentage,
		Status:          string(s.Status),
		JoinedDate:      s.JoinedDate.Format("2006-01-02"),
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
	}
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params(name), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" geçersiz")
	}
	return id, nil
}

func getUserInfo(c *fiber.Ctx) (uint, string, error) {
	userIDVal := c.Locals(auth.CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	return userID, user.Name, nil
}

// POST /api/shops/:id/shares
func AssignShareHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var body AssignShareRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if body.InvestorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "investor_id zorunlu")
		}

		var joined time.Time
		if body.JoinedDate != "" {
			joined, err = time.Parse("2006-01-02", body.JoinedDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
		}

		share, err := svc.Assign(shopID, body.InvestorID, body.SharePercentage, joined)
		if err != nil {
			return toFiberError(err)
		}

		// Audit log yaz
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			afterData := map[string]interface{}{
				"id":               share.ID,
				"shop_id":          share.ShopID,
				"investor_id":      share.InvestorID,
				"share_percentage": share.SharePercentage,
				"status":           string(share.Status),
				"joined_date":      share.JoinedDate.Format("2006-01-02"),
			}
			shopIDForLog := &share.ShopID
			if logErr := audit.WriteLog(audit.LogOptions{
				ShopID:      shopIDForLog,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "ownership_share",
				EntityID:    share.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Ortak eklendi: %s - %%%.2f", share.Investor.Name, share.SharePercentage),
				Before:      nil,
				After:       afterData,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toShareResponse(share))
	}
}

// PUT /api/shares/:id
func EditShareHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shareID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var before models.OwnershipShare
		if err := database.DB.First(&before, "id = ?", shareID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ortaklık kaydı bulunamadı")
		}

		var body EditShareRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		share, err := svc.EditShare(shareID, body.SharePercentage)
		if err != nil {
			return toFiberError(err)
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			shopIDForLog := &share.ShopID
			if logErr := audit.WriteLog(audit.LogOptions{
				ShopID:      shopIDForLog,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "ownership_share",
				EntityID:    share.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Pay güncellendi: %%%.2f -> %%%.2f", before.SharePercentage, share.SharePercentage),
				Before: map[string]interface{}{
					"share_percentage": before.SharePercentage,
					"status":           string(before.Status),
					"joined_date":      before.JoinedDate,
				},
				After: map[string]interface{}{
					"share_percentage": share.SharePercentage,
					"status":           string(share.Status),
					"joined_date":      share.JoinedDate,
				},
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(toShareResponse(share))
	}
}

// POST /api/shares/:id/deactivate
func DeactivateShareHandler(svc *Service) fiber.Handler {
	return setStatusHandler(svc, false)
}

// POST /api/shares/:id/reactivate
func ReactivateShareHandler(svc *Service) fiber.Handler {
	return setStatusHandler(svc, true)
}

func setStatusHandler(svc *Service, activate bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shareID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var share *models.OwnershipShare
		if activate {
			share, err = svc.Reactivate(shareID)
		} else {
			share, err = svc.Deactivate(shareID)
		}
		if err != nil {
			return toFiberError(err)
		}

		action := "pasife alındı"
		prevStatus := models.ShareStatusActive
		if activate {
			action = "yeniden aktifleştirildi"
			prevStatus = models.ShareStatusInactive
		}
		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			shopIDForLog := &share.ShopID
			if logErr := audit.WriteLog(audit.LogOptions{
				ShopID:      shopIDForLog,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "ownership_share",
				EntityID:    share.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Ortaklık %s: %s", action, share.Investor.Name),
				Before: map[string]interface{}{
					"share_percentage": share.SharePercentage,
					"status":           string(prevStatus),
					"joined_date":      share.JoinedDate,
				},
				After: map[string]interface{}{
					"share_percentage": share.SharePercentage,
					"status":           string(share.Status),
					"joined_date":      share.JoinedDate,
				},
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(toShareResponse(share))
	}
}

// GET /api/shops/:id/shares
func ListSharesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		allocated, err := svc.TotalAllocated(shopID)
		if err != nil {
			return toFiberError(err)
		}

		shares, err := svc.ListByShop(shopID)
		if err != nil {
			return toFiberError(err)
		}

		resp := ShareListResponse{
			ShopID:              shopID,
			AllocatedPercentage: allocated,
			RemainingPercentage: 100 - allocated,
			Shares:              make([]ShareResponse, 0, len(shares)),
		}
		for i := range shares {
			resp.Shares = append(resp.Shares, toShareResponse(&shares[i]))
		}

		return c.JSON(resp)
	}
}
