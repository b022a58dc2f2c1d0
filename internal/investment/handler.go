package investment

import (
	"errors"
	"fmt"
	"time"

	"dukkan-backend/internal/audit"
	"dukkan-backend/internal/auth"
	"dukkan-backend/internal/database"
	"dukkan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateTransactionRequest struct {
	Amount          float64 `json:"amount"`
	TransactionDate string  `json:"transaction_date"` // "2025-12-09", boşsa bugün
	Phase           string  `json:"phase"`
	Note            string  `json:"note"`
}

type UpdateTransactionRequest struct {
	Amount          *float64 `json:"amount"`
	TransactionDate *string  `json:"transaction_date"`
	Phase           *string  `json:"phase"`
	Note            *string  `json:"note"`
}

type TransactionResponse struct {
	ID               uint    `json:"id"`
	OwnershipShareID uint    `json:"ownership_share_id"`
	InvestorName     string  `json:"investor_name,omitempty"`
	Amount           float64 `json:"amount"`
	TransactionDate  string  `json:"transaction_date"`
	Phase            string  `json:"phase"`
	Note             string  `json:"note"`
	CreatedAt        string  `json:"created_at"`
}

func toFiberError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnknownShare), errors.Is(err, ErrTransactionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
	}
}

func toTransactionResponse(tx *models.InvestmentTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:               tx.ID,
		OwnershipShareID: tx.OwnershipShareID,
		Amount:           tx.Amount.InexactFloat64(),
		TransactionDate:  tx.TransactionDate.Format("2006-01-02"),
		Phase:            tx.Phase,
		Note:             tx.Note,
		CreatedAt:        tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.OwnershipShare.Investor.ID != 0 {
		resp.InvestorName = tx.OwnershipShare.Investor.Name
	}
	return resp
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

func writeTxAudit(c *fiber.Ctx, tx *models.InvestmentTransaction, action models.AuditAction, desc string, before, after any) {
	userID, userName, err := getUserInfo(c)
	if err != nil {
		return
	}

	var shopID *uint
	if tx.OwnershipShare.ID != 0 {
		shopID = &tx.OwnershipShare.ShopID
	}
	if logErr := audit.WriteLog(audit.LogOptions{
		ShopID:      shopID,
		UserID:      userID,
		UserName:    userName,
		EntityType:  "investment_transaction",
		EntityID:    tx.ID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	}); logErr != nil {
		fmt.Printf("Audit log yazılamadı: %v\n", logErr)
	}
}

func txAuditData(tx *models.InvestmentTransaction) map[string]interface{} {
	return map[string]interface{}{
		"id":                 tx.ID,
		"ownership_share_id": tx.OwnershipShareID,
		"amount":             tx.Amount,
		"transaction_date":   tx.TransactionDate,
		"phase":              tx.Phase,
		"note":               tx.Note,
	}
}

// POST /api/shares/:id/transactions
func CreateTransactionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shareID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var body CreateTransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		var date time.Time
		if body.TransactionDate != "" {
			date, err = time.Parse("2006-01-02", body.TransactionDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
		}

		tx, err := svc.Record(shareID, decimal.NewFromFloat(body.Amount), date, body.Phase, body.Note)
		if err != nil {
			return toFiberError(err)
		}

		// Audit için pay bilgisini yükle
		database.DB.Preload("Investor").First(&tx.OwnershipShare, "id = ?", tx.OwnershipShareID)
		writeTxAudit(c, tx, models.AuditActionCreate,
			fmt.Sprintf("Ödeme eklendi: %s - %s TL (%s)", tx.OwnershipShare.Investor.Name, tx.Amount.StringFixed(2), tx.Phase),
			nil, txAuditData(tx))

		return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(tx))
	}
}

// PUT /api/transactions/:id
func UpdateTransactionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		txID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var body UpdateTransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		var before models.InvestmentTransaction
		if err := database.DB.First(&before, "id = ?", txID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İşlem bulunamadı")
		}
		beforeData := txAuditData(&before)

		var amount *decimal.Decimal
		if body.Amount != nil {
			d := decimal.NewFromFloat(*body.Amount)
			amount = &d
		}
		var date *time.Time
		if body.TransactionDate != nil {
			d, err := time.Parse("2006-01-02", *body.TransactionDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			date = &d
		}

		tx, err := svc.Update(txID, amount, date, body.Phase, body.Note)
		if err != nil {
			return toFiberError(err)
		}

		writeTxAudit(c, tx, models.AuditActionUpdate,
			fmt.Sprintf("Ödeme güncellendi: %s TL", tx.Amount.StringFixed(2)),
			beforeData, txAuditData(tx))

		return c.JSON(toTransactionResponse(tx))
	}
}

// DELETE /api/transactions/:id
func DeleteTransactionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		txID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		tx, err := svc.Remove(txID)
		if err != nil {
			return toFiberError(err)
		}

		writeTxAudit(c, tx, models.AuditActionDelete,
			fmt.Sprintf("Ödeme silindi: %s TL", tx.Amount.StringFixed(2)),
			txAuditData(tx), nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/shops/:id/transactions
func ListTransactionsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		txs, err := svc.ListByShop(shopID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlemler listelenemedi")
		}

		resp := make([]TransactionResponse, 0, len(txs))
		for i := range txs {
			resp = append(resp, toTransactionResponse(&txs[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/shops/:id/phases
func ListPhasesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		phases, err := svc.Phases(shopID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Etaplar listelenemedi")
		}
		return c.JSON(fiber.Map{"phases": phases})
	}
}
