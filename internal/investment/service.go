// Package investment - sermaye ödemesi kayıt defteri. Etap ödemelerini
// pay kayıtlarına işler; toplamlar her okumada işlem setinden taze türetilir.
package investment

import (
	"errors"
	"fmt"
	"time"

	"dukkan-backend/internal/events"
	"dukkan-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount       = errors.New("tutar 0'dan büyük olmalı")
	ErrUnknownShare        = errors.New("ortaklık kaydı bulunamadı veya aktif değil")
	ErrTransactionNotFound = errors.New("işlem bulunamadı")
)

type Service struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewService(db *gorm.DB, bus *events.Bus) *Service {
	return &Service{db: db, bus: bus}
}

// Record - aktif bir paya etap ödemesi işler.
func (s *Service) Record(shareID uint, amount decimal.Decimal, date time.Time, phase, note string) (*models.InvestmentTransaction, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	var share models.OwnershipShare
	if err := s.db.First(&share, "id = ? AND status = ?", shareID, models.ShareStatusActive).Error; err != nil {
		return nil, ErrUnknownShare
	}

	if date.IsZero() {
		date = time.Now()
	}

	tx := models.InvestmentTransaction{
		OwnershipShareID: shareID,
		Amount:           amount,
		TransactionDate:  date,
		Phase:            phase,
		Note:             note,
	}
	if err := s.db.Create(&tx).Error; err != nil {
		return nil, fmt.Errorf("işlem kaydedilemedi: %w", err)
	}

	s.publish(share.ShopID)
	return &tx, nil
}

// Update - düzeltme amaçlı günceller. Daha önce kaydedilmiş mutabakatlar
// donmuş fotoğraf olduğu için onlara dokunmaz.
func (s *Service) Update(txID uint, amount *decimal.Decimal, date *time.Time, phase, note *string) (*models.InvestmentTransaction, error) {
	var tx models.InvestmentTransaction
	if err := s.db.Preload("OwnershipShare").First(&tx, "id = ?", txID).Error; err != nil {
		return nil, ErrTransactionNotFound
	}

	if amount != nil {
		if amount.Sign() <= 0 {
			return nil, ErrInvalidAmount
		}
		tx.Amount = *amount
	}
	if date != nil {
		tx.TransactionDate = *date
	}
	if phase != nil {
		tx.Phase = *phase
	}
	if note != nil {
		tx.Note = *note
	}

	if err := s.db.Save(&tx).Error; err != nil {
		return nil, fmt.Errorf("işlem güncellenemedi: %w", err)
	}

	s.publish(tx.OwnershipShare.ShopID)
	return &tx, nil
}

// Remove - işlemi siler; geçmiş mutabakatları etkilemez.
func (s *Service) Remove(txID uint) (*models.InvestmentTransaction, error) {
	var tx models.InvestmentTransaction
	if err := s.db.Preload("OwnershipShare").First(&tx, "id = ?", txID).Error; err != nil {
		return nil, ErrTransactionNotFound
	}

	if err := s.db.Delete(&tx).Error; err != nil {
		return nil, fmt.Errorf("işlem silinemedi: %w", err)
	}

	s.publish(tx.OwnershipShare.ShopID)
	return &tx, nil
}

// TotalPaidByShare - bir payın tüm etap ödemelerinin toplamı.
func (s *Service) TotalPaidByShare(shareID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := s.db.Model(&models.InvestmentTransaction{}).
		Where("ownership_share_id = ?", shareID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return decimal.Zero, fmt.Errorf("toplam hesaplanamadı: %w", err)
	}
	return total, nil
}

// TotalPaidForShop - dükkandaki tüm işlemlerin toplamı (statüden bağımsız).
func (s *Service) TotalPaidForShop(shopID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := s.db.Model(&models.InvestmentTransaction{}).
		Joins("JOIN ownership_shares ON ownership_shares.id = investment_transactions.ownership_share_id").
		Where("ownership_shares.shop_id = ?", shopID).
		Select("COALESCE(SUM(investment_transactions.amount), 0)").
		Scan(&total).Error; err != nil {
		return decimal.Zero, fmt.Errorf("toplam hesaplanamadı: %w", err)
	}
	return total, nil
}

// TotalPaidByInvestorForShop - bir yatırımcının bir dükkana ödediği toplam.
func (s *Service) TotalPaidByInvestorForShop(shopID, investorID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := s.db.Model(&models.InvestmentTransaction{}).
		Joins("JOIN ownership_shares ON ownership_shares.id = investment_transactions.ownership_share_id").
		Where("ownership_shares.shop_id = ? AND ownership_shares.investor_id = ?", shopID, investorID).
		Select("COALESCE(SUM(investment_transactions.amount), 0)").
		Scan(&total).Error; err != nil {
		return decimal.Zero, fmt.Errorf("toplam hesaplanamadı: %w", err)
	}
	return total, nil
}

// Phases - dükkanda kullanılmış etap etiketleri (autocomplete için, artan
// sırada).
func (s *Service) Phases(shopID uint) ([]string, error) {
	var phases []string
	if err := s.db.Model(&models.InvestmentTransaction{}).
		Joins("JOIN ownership_shares ON ownership_shares.id = investment_transactions.ownership_share_id").
		Where("ownership_shares.shop_id = ? AND investment_transactions.phase <> ''", shopID).
		Distinct("investment_transactions.phase").
		Order("investment_transactions.phase asc").
		Pluck("investment_transactions.phase", &phases).Error; err != nil {
		return nil, fmt.Errorf("etaplar listelenemedi: %w", err)
	}
	return phases, nil
}

// ListByShop - dükkandaki tüm işlemler, pay ve yatırımcı bilgisiyle.
func (s *Service) ListByShop(shopID uint) ([]models.InvestmentTransaction, error) {
	var txs []models.InvestmentTransaction
	if err := s.db.Preload("OwnershipShare").Preload("OwnershipShare.Investor").
		Joins("JOIN ownership_shares ON ownership_shares.id = investment_transactions.ownership_share_id").
		Where("ownership_shares.shop_id = ?", shopID).
		Order("investment_transactions.transaction_date desc, investment_transactions.id desc").
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("işlemler listelenemedi: %w", err)
	}
	return txs, nil
}

func (s *Service) publish(shopID uint) {
	if s.bus != nil {
		s.bus.Publish(shopID)
	}
}
