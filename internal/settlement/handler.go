package settlement

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

type CalculateRequest struct {
	AsOfDate   string `json:"as_of_date"` // "2025-12-31", boşsa bugün
	BoundTotal bool   `json:"bound_total"`
}

type ConfirmRequest struct {
	Year       int    `json:"year"`
	Note       string `json:"note"`
	AsOfDate   string `json:"as_of_date"`
	BoundTotal bool   `json:"bound_total"`
}

type PayoutRequest struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date"` // boşsa bugün
}

type EntryResponse struct {
	ID                   uint     `json:"id,omitempty"`
	InvestorID           uint     `json:"investor_id"`
	InvestorName         string   `json:"investor_name"`
	SharePercentage      float64  `json:"share_percentage"`
	FairShareAmount      float64  `json:"fair_share_amount"`
	ActualPaidAmount     float64  `json:"actual_paid_amount"`
	BalanceAmount        float64  `json:"balance_amount"`
	SettlementPaidAmount float64  `json:"settlement_paid_amount"`
	SettlementPaidDate   *string  `json:"settlement_paid_date,omitempty"`
}

type SettlementResponse struct {
	ID             uint            `json:"id"`
	ReferenceNo    string          `json:"reference_no"`
	ShopID         uint            `json:"shop_id"`
	Year           int             `json:"year"`
	TotalInvested  float64         `json:"total_invested"`
	SettlementDate string          `json:"settlement_date"`
	Note           string          `json:"note"`
	Entries        []EntryResponse `json:"entries"`
}

type CalculateResponse struct {
	ShopID        uint            `json:"shop_id"`
	TotalInvested float64         `json:"total_invested"`
	Entries       []EntryResponse `json:"entries"`
}

func toFiberError(err error) error {
	switch {
	case errors.Is(err, ErrNothingToSettle), errors.Is(err, ErrInvalidPayout):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrShopNotFound),
		errors.Is(err, ErrSettlementNotFound),
		errors.Is(err, ErrEntryNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
	}
}

func toEntryResponse(e *models.SettlementEntry) EntryResponse {
	resp := EntryResponse{
		ID:                   e.ID,
		InvestorID:           e.InvestorID,
		InvestorName:         e.Investor.Name,
		SharePercentage:      e.SharePercentage,
		FairShareAmount:      e.FairShareAmount.InexactFloat64(),
		ActualPaidAmount:     e.ActualPaidAmount.InexactFloat64(),
		BalanceAmount:        e.BalanceAmount.InexactFloat64(),
		SettlementPaidAmount: e.SettlementPaidAmount.InexactFloat64(),
	}
	if e.SettlementPaidDate != nil {
		d := e.SettlementPaidDate.Format("2006-01-02")
		resp.SettlementPaidDate = &d
	}
	return resp
}

func toSettlementResponse(s *models.Settlement) SettlementResponse {
	resp := SettlementResponse{
		ID:             s.ID,
		ReferenceNo:    s.ReferenceNo,
		ShopID:         s.ShopID,
		Year:           s.Year,
		TotalInvested:  s.TotalInvested.InexactFloat64(),
		SettlementDate: s.SettlementDate.Format("2006-01-02"),
		Note:           s.Note,
		Entries:        make([]EntryResponse, 0, len(s.Entries)),
	}
	for i := range s.Entries {
		resp.Entries = append(resp.Entries, toEntryResponse(&s.Entries[i]))
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

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
	}
	return t, nil
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

// POST /api/shops/:id/settlements/preview
// Taslak hesaplar, hiçbir şey yazmaz.
func CalculateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var body CalculateRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
			}
		}

		asOf, err := parseDate(body.AsOfDate)
		if err != nil {
			return err
		}

		result, err := svc.Calculate(shopID, asOf, body.BoundTotal)
		if err != nil {
			return toFiberError(err)
		}

		resp := CalculateResponse{
			ShopID:        shopID,
			TotalInvested: result.TotalInvested.InexactFloat64(),
			Entries:       make([]EntryResponse, 0, len(result.Entries)),
		}
		for _, draft := range result.Entries {
			resp.Entries = append(resp.Entries, EntryResponse{
				InvestorID:       draft.InvestorID,
				InvestorName:     draft.InvestorName,
				SharePercentage:  draft.SharePercentage,
				FairShareAmount:  draft.FairShareAmount.InexactFloat64(),
				ActualPaidAmount: draft.ActualPaidAmount.InexactFloat64(),
				BalanceAmount:    draft.BalanceAmount.InexactFloat64(),
			})
		}

		return c.JSON(resp)
	}
}

// POST /api/shops/:id/settlements
func ConfirmHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var body ConfirmRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if body.Year == 0 {
			body.Year = time.Now().Year()
		}

		asOf, err := parseDate(body.AsOfDate)
		if err != nil {
			return err
		}

		settlement, err := svc.Confirm(shopID, body.Year, body.Note, asOf, body.BoundTotal)
		if err != nil {
			return toFiberError(err)
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			shopIDForLog := &settlement.ShopID
			if logErr := audit.WriteLog(audit.LogOptions{
				ShopID:      shopIDForLog,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "settlement",
				EntityID:    settlement.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Mutabakat oluşturuldu: %d yılı, toplam %s", settlement.Year, settlement.TotalInvested.StringFixed(2)),
				Before:      nil,
				After: map[string]interface{}{
					"reference_no":   settlement.ReferenceNo,
					"year":           settlement.Year,
					"total_invested": settlement.TotalInvested.InexactFloat64(),
					"entry_count":    len(settlement.Entries),
				},
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		// Entries preload'suz oluşturuldu, yatırımcı adlarıyla tekrar yükle
		full, err := svc.Get(settlement.ID)
		if err != nil {
			return toFiberError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(toSettlementResponse(full))
	}
}

// GET /api/shops/:id/settlements
func ListSettlementsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		settlements, err := svc.ListByShop(shopID)
		if err != nil {
			return toFiberError(err)
		}

		resp := make([]SettlementResponse, 0, len(settlements))
		for i := range settlements {
			resp = append(resp, toSettlementResponse(&settlements[i]))
		}

		return c.JSON(resp)
	}
}

// GET /api/settlements/:id
func GetSettlementHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		settlement, err := svc.Get(id)
		if err != nil {
			return toFiberError(err)
		}

		return c.JSON(toSettlementResponse(settlement))
	}
}

// PUT /api/settlement-entries/:id/payout
func RecordPayoutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entryID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var body PayoutRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		date, err := parseDate(body.Date)
		if err != nil {
			return err
		}

		entry, err := svc.RecordPayout(entryID, decimal.NewFromFloat(body.Amount), date)
		if err != nil {
			return toFiberError(err)
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "settlement_entry",
				EntityID:    entry.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Mutabakat ödemesi işlendi: %s - %s", entry.Investor.Name, entry.SettlementPaidAmount.StringFixed(2)),
				After: map[string]interface{}{
					"settlement_paid_amount": entry.SettlementPaidAmount.InexactFloat64(),
					"settlement_paid_date":   entry.SettlementPaidDate,
				},
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(toEntryResponse(entry))
	}
}

// GET /api/settlements/:id/export
func ExportSettlementHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		f, err := svc.ExportXLSX(id)
		if err != nil {
			return toFiberError(err)
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="mutabakat-%d.xlsx"`, id))

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}
		return c.Send(buf.Bytes())
	}
}
