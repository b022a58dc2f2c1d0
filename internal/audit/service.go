package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"dukkan-backend/internal/database"
	"dukkan-backend/internal/models"

	"github.com/shopspring/decimal"
)

type LogOptions struct {
	ShopID      *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null" // Default: null JSON
	afterStr := "null"  // Default: null JSON

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		ShopID:      opts.ShopID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
		Undone:      false,
		IsUndone:    false,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}

	return nil
}

// UndoLog - Bir audit log'u undo et. Mutabakat kayıtları donmuş fotoğraf
// olduğu için undo kapsamı dışındadır.
func UndoLog(logID uint, userID uint, userName string) error {
	var log models.AuditLog
	if err := database.DB.First(&log, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("log bulunamadı: %w", err)
	}

	// Zaten undo edilmiş mi?
	if log.IsUndone {
		return fmt.Errorf("bu işlem zaten geri alınmış")
	}

	if log.EntityType == "settlement" || log.EntityType == "settlement_entry" {
		return fmt.Errorf("mutabakat kayıtları geri alınamaz")
	}

	// Undo işlemini gerçekleştir
	switch log.Action {
	case models.AuditActionCreate:
		// Create ise entity'yi sil
		if err := deleteEntity(log.EntityType, log.EntityID); err != nil {
			return fmt.Errorf("entity silinemedi: %w", err)
		}

	case models.AuditActionUpdate:
		// Update ise önceki haline geri döndür
		if err := restoreEntity(log.EntityType, log.EntityID, log.BeforeData); err != nil {
			return fmt.Errorf("entity geri yüklenemedi: %w", err)
		}

	case models.AuditActionDelete:
		// Delete ise entity'yi geri oluştur (create)
		if err := recreateEntity(log.EntityType, log.AfterData); err != nil {
			return fmt.Errorf("entity geri oluşturulamadı: %w", err)
		}

	default:
		return fmt.Errorf("bu işlem türü geri alınamaz")
	}

	// Log'u işaretle
	now := time.Now()
	log.IsUndone = true
	log.UndoneBy = &userID
	log.UndoneAt = &now

	if err := database.DB.Save(&log).Error; err != nil {
		return fmt.Errorf("log güncellenemedi: %w", err)
	}

	// Undo işlemi için yeni bir log oluştur
	undoLog := models.AuditLog{
		ShopID:      log.ShopID,
		UserID:      userID,
		UserName:    userName,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Action:      models.AuditActionUndo,
		Description: fmt.Sprintf("Geri alındı: %s", log.Description),
		BeforeData:  log.AfterData,
		AfterData:   log.BeforeData,
		Undone:      true,
		IsUndone:    false,
	}

	if err := database.DB.Create(&undoLog).Error; err != nil {
		return fmt.Errorf("undo log kaydedilemedi: %w", err)
	}

	return nil
}

// Audit payload'ları snake_case anahtarlarla serileştirilir; model
// struct'larında json tag'i olmadığından geri okuma bu tiplerle yapılır.
type txPayload struct {
	ID               uint            `json:"id"`
	OwnershipShareID uint            `json:"ownership_share_id"`
	Amount           decimal.Decimal `json:"amount"`
	TransactionDate  time.Time       `json:"transaction_date"`
	Phase            string          `json:"phase"`
	Note             string          `json:"note"`
}

type sharePayload struct {
	ID              uint               `json:"id"`
	ShopID          uint               `json:"shop_id"`
	InvestorID      uint               `json:"investor_id"`
	SharePercentage float64            `json:"share_percentage"`
	Status          models.ShareStatus `json:"status"`
	JoinedDate      time.Time          `json:"joined_date"`
}

// deleteEntity - Entity'yi sil
func deleteEntity(entityType string, entityID uint) error {
	switch entityType {
	case "investment_transaction":
		return database.DB.Delete(&models.InvestmentTransaction{}, "id = ?", entityID).Error
	case "ownership_share":
		// Bağlı işlemler cascade ile silinir
		return database.DB.Delete(&models.OwnershipShare{}, "id = ?", entityID).Error
	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

// recreateEntity - Silinen entity'yi geri oluştur
func recreateEntity(entityType string, dataJSON string) error {
	switch entityType {
	case "investment_transaction":
		var p txPayload
		if err := json.Unmarshal([]byte(dataJSON), &p); err != nil {
			return err
		}
		tx := models.InvestmentTransaction{
			OwnershipShareID: p.OwnershipShareID,
			Amount:           p.Amount,
			TransactionDate:  p.TransactionDate,
			Phase:            p.Phase,
			Note:             p.Note,
		}
		return database.DB.Create(&tx).Error

	case "ownership_share":
		var p sharePayload
		if err := json.Unmarshal([]byte(dataJSON), &p); err != nil {
			return err
		}
		// Cascade ile silinen işlemler geri gelmez; sadece pay kaydı döner
		share := models.OwnershipShare{
			ShopID:          p.ShopID,
			InvestorID:      p.InvestorID,
			SharePercentage: p.SharePercentage,
			Status:          p.Status,
			JoinedDate:      p.JoinedDate,
		}
		return database.DB.Create(&share).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

// restoreEntity - Entity'yi geri yükle (update)
func restoreEntity(entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case "investment_transaction":
		var p txPayload
		if err := json.Unmarshal([]byte(dataJSON), &p); err != nil {
			return err
		}
		return database.DB.Model(&models.InvestmentTransaction{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"ownership_share_id": p.OwnershipShareID,
			"amount":             p.Amount,
			"transaction_date":   p.TransactionDate,
			"phase":              p.Phase,
			"note":               p.Note,
		}).Error

	case "ownership_share":
		var p sharePayload
		if err := json.Unmarshal([]byte(dataJSON), &p); err != nil {
			return err
		}
		return database.DB.Model(&models.OwnershipShare{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"share_percentage": p.SharePercentage,
			"status":           p.Status,
			"joined_date":      p.JoinedDate,
		}).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}
