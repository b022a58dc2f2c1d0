package settlement

import (
	"errors"
	"fmt"
	"time"

	"dukkan-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrShopNotFound       = errors.New("dükkan bulunamadı")
	ErrSettlementNotFound = errors.New("mutabakat bulunamadı")
	ErrEntryNotFound      = errors.New("mutabakat satırı bulunamadı")
	ErrNothingToSettle    = errors.New("bu dükkanda mutabakat yapılacak aktif ortak yok")
	ErrInvalidPayout      = errors.New("ödeme tutarı negatif olamaz")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Result - hesaplama çıktısı: satırlar + kayda girecek toplam yatırım.
type Result struct {
	TotalInvested decimal.Decimal `json:"total_invested"`
	Entries       []EntryDraft    `json:"entries"`
}

// Calculate - asOf tarihi itibarıyla dükkanın mutabakat taslağını üretir.
// Tüm okumalar tek transaction içinde yapılır ki satırlar ve toplam aynı
// anın fotoğrafı olsun.
//
// asOf filtresi ortak seçimine uygulanır: asOf'tan sonra katılan ortak o
// dönemin mutabakatına girmez. totalInvested ise varsayılan olarak defterin
// bugüne kadarki tamamından hesaplanır (eski davranış); boundTotal ile
// toplam da asOf'a sınırlanır. İki mod da bilinçli olarak açıkta bırakıldı,
// tercih çağırana ait.
func (s *Service) Calculate(shopID uint, asOf time.Time, boundTotal bool) (*Result, error) {
	var result *Result
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = calculate(tx, shopID, asOf, boundTotal)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func calculate(tx *gorm.DB, shopID uint, asOf time.Time, boundTotal bool) (*Result, error) {
	var shop models.Shop
	if err := tx.First(&shop, "id = ?", shopID).Error; err != nil {
		return nil, ErrShopNotFound
	}

	if asOf.IsZero() {
		asOf = time.Now()
	}

	var shares []models.OwnershipShare
	if err := tx.Preload("Investor").
		Where("shop_id = ? AND status = ? AND joined_date <= ?", shopID, models.ShareStatusActive, asOf).
		Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("ortaklıklar yüklenemedi: %w", err)
	}

	totalQuery := tx.Model(&models.InvestmentTransaction{}).
		Joins("JOIN ownership_shares ON ownership_shares.id = investment_transactions.ownership_share_id").
		Where("ownership_shares.shop_id = ?", shopID)
	if boundTotal {
		totalQuery = totalQuery.Where("investment_transactions.transaction_date <= ?", asOf)
	}

	var totalInvested decimal.Decimal
	if err := totalQuery.
		Select("COALESCE(SUM(investment_transactions.amount), 0)").
		Scan(&totalInvested).Error; err != nil {
		return nil, fmt.Errorf("toplam yatırım hesaplanamadı: %w", err)
	}

	type paidRow struct {
		OwnershipShareID uint            `gorm:"column:ownership_share_id"`
		Total            decimal.Decimal `gorm:"column:total"`
	}
	paidQuery := tx.Model(&models.InvestmentTransaction{}).
		Joins("JOIN ownership_shares ON ownership_shares.id = investment_transactions.ownership_share_id").
		Where("ownership_shares.shop_id = ?", shopID)
	if boundTotal {
		paidQuery = paidQuery.Where("investment_transactions.transaction_date <= ?", asOf)
	}

	var rows []paidRow
	if err := paidQuery.
		Select("investment_transactions.ownership_share_id, COALESCE(SUM(investment_transactions.amount), 0) as total").
		Group("investment_transactions.ownership_share_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("pay başına ödemeler hesaplanamadı: %w", err)
	}

	paidByShare := make(map[uint]decimal.Decimal, len(rows))
	for _, r := range rows {
		paidByShare[r.OwnershipShareID] = r.Total
	}

	return &Result{
		TotalInvested: totalInvested.Round(4),
		Entries:       ComputeEntries(shares, paidByShare, totalInvested),
	}, nil
}

// Confirm - mutabakatı kalıcılaştırır. Taslak aynı transaction içinde
// yeniden hesaplanır (hesap ile araya başka yazma giremesin diye) ve başlık
// + tüm satırlar ya hep ya hiç yazılır; yarım kalan yazımda hiçbir kayıt
// kalmaz, başlık yetim bırakılmaz.
func (s *Service) Confirm(shopID uint, year int, note string, asOf time.Time, boundTotal bool) (*models.Settlement, error) {
	var settlement *models.Settlement

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result, err := calculate(tx, shopID, asOf, boundTotal)
		if err != nil {
			return err
		}
		if len(result.Entries) == 0 {
			return ErrNothingToSettle
		}

		header := models.Settlement{
			ReferenceNo:    uuid.New().String(),
			ShopID:         shopID,
			Year:           year,
			TotalInvested:  result.TotalInvested,
			SettlementDate: time.Now(),
			Note:           note,
		}
		if err := tx.Create(&header).Error; err != nil {
			return fmt.Errorf("mutabakat kaydedilemedi: %w", err)
		}

		for _, draft := range result.Entries {
			entry := models.SettlementEntry{
				SettlementID:         header.ID,
				InvestorID:           draft.InvestorID,
				SharePercentage:      draft.SharePercentage,
				FairShareAmount:      draft.FairShareAmount,
				ActualPaidAmount:     draft.ActualPaidAmount,
				BalanceAmount:        draft.BalanceAmount,
				SettlementPaidAmount: decimal.Zero,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("mutabakat satırı kaydedilemedi: %w", err)
			}
			header.Entries = append(header.Entries, entry)
		}

		settlement = &header
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// RecordPayout - bakiyeyi kapatmak için yapılan ödemeyi satıra işler.
// Mutabakat kayıtları değişmezdir; oluşturma sonrası sadece bu iki alan
// güncellenebilir.
func (s *Service) RecordPayout(entryID uint, amount decimal.Decimal, date time.Time) (*models.SettlementEntry, error) {
	if amount.Sign() < 0 {
		return nil, ErrInvalidPayout
	}

	var entry models.SettlementEntry
	if err := s.db.Preload("Investor").First(&entry, "id = ?", entryID).Error; err != nil {
		return nil, ErrEntryNotFound
	}

	if date.IsZero() {
		date = time.Now()
	}

	if err := s.db.Model(&entry).Updates(map[string]interface{}{
		"settlement_paid_amount": amount.Round(4),
		"settlement_paid_date":   date,
	}).Error; err != nil {
		return nil, fmt.Errorf("ödeme kaydedilemedi: %w", err)
	}

	entry.SettlementPaidAmount = amount.Round(4)
	entry.SettlementPaidDate = &date
	return &entry, nil
}

// ListByShop - dükkanın mutabakat geçmişi, yeniden eskiye.
func (s *Service) ListByShop(shopID uint) ([]models.Settlement, error) {
	var settlements []models.Settlement
	if err := s.db.Preload("Entries").Preload("Entries.Investor").
		Where("shop_id = ?", shopID).
		Order("settlement_date desc, id desc").
		Find(&settlements).Error; err != nil {
		return nil, fmt.Errorf("mutabakatlar listelenemedi: %w", err)
	}
	return settlements, nil
}

// Get - tek mutabakat, satırlarıyla birlikte.
func (s *Service) Get(id uint) (*models.Settlement, error) {
	var settlement models.Settlement
	if err := s.db.Preload("Entries").Preload("Entries.Investor").Preload("Shop").
		First(&settlement, "id = ?", id).Error; err != nil {
		return nil, ErrSettlementNotFound
	}
	return &settlement, nil
}
