// Package dashboard - dükkan yatırım özet görünümü. Pay dağılımını, ödenen
// toplamları ve ortak başına durumu tek cevapta birleştirir; Watch ile
// değişiklik oldukça güncellenen canlı akış sunar.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dukkan-backend/internal/events"
	"dukkan-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrShopNotFound = errors.New("dükkan bulunamadı")

// InvestorSummary - görünümdeki tek ortak satırı.
type InvestorSummary struct {
	InvestorID      uint    `json:"investor_id"`
	InvestorName    string  `json:"investor_name"`
	SharePercentage float64 `json:"share_percentage"`
	Status          string  `json:"status"`
	JoinedDate      string  `json:"joined_date"`
	TotalPaid       float64 `json:"total_paid"`
}

// TransactionRow - görünümdeki tek ödeme satırı, yatırımcı adıyla birlikte.
type TransactionRow struct {
	ID              uint    `json:"id"`
	InvestorID      uint    `json:"investor_id"`
	InvestorName    string  `json:"investor_name"`
	Amount          float64 `json:"amount"`
	TransactionDate string  `json:"transaction_date"`
	Phase           string  `json:"phase"`
	Note            string  `json:"note"`
}

// ShopInvestmentView - dükkanın o anki yatırım fotoğrafı. Her zaman tek
// seferde, bütün olarak üretilir; yarım görünüm dönmez.
type ShopInvestmentView struct {
	ShopID              uint              `json:"shop_id"`
	ShopName            string            `json:"shop_name"`
	TotalInvested       float64           `json:"total_invested"`
	AllocatedPercentage float64           `json:"allocated_percentage"`
	RemainingPercentage float64           `json:"remaining_percentage"`
	InvestorCount       int               `json:"investor_count"`
	Phases              []string          `json:"phases"`
	Investors           []InvestorSummary `json:"investors"`
	Transactions        []TransactionRow  `json:"transactions"`
	GeneratedAt         string            `json:"generated_at"`
}

type Aggregator struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewAggregator(db *gorm.DB, bus *events.Bus) *Aggregator {
	return &Aggregator{db: db, bus: bus}
}

// View - görünümü store'dan sıfırdan kurar.
func (a *Aggregator) View(shopID uint) (*ShopInvestmentView, error) {
	var shop models.Shop
	if err := a.db.First(&shop, "id = ?", shopID).Error; err != nil {
		return nil, ErrShopNotFound
	}

	var shares []models.OwnershipShare
	if err := a.db.Preload("Investor").
		Where("shop_id = ?", shopID).
		Order("share_percentage desc, investor_id asc").
		Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("ortaklıklar yüklenemedi: %w", err)
	}

	var totalInvested decimal.Decimal
	if err := a.db.Model(&models.InvestmentTransaction{}).
		Joins("JOIN ownership_shares ON ownership_shares.id = investment_transactions.ownership_share_id").
		Where("ownership_shares.shop_id = ?", shopID).
		Select("COALESCE(SUM(investment_transactions.amount), 0)").
		Scan(&totalInvested).Error; err != nil {
		return nil, fmt.Errorf("toplam yatırım hesaplanamadı: %w", err)
	}

	type paidRow struct {
		OwnershipShareID uint            `gorm:"column:ownership_share_id"`
		Total            decimal.Decimal `gorm:"column:total"`
	}
	var rows []paidRow
	if err := a.db.Model(&models.InvestmentTransaction{}).
		Joins("JOIN ownership_shares ON ownership_shares.id = investment_transactions.ownership_share_id").
		Where("ownership_shares.shop_id = ?", shopID).
		Select("investment_transactions.ownership_share_id, COALESCE(SUM(investment_transactions.amount), 0) as total").
		Group("investment_transactions.ownership_share_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("pay başına ödemeler hesaplanamadı: %w", err)
	}
	paidByShare := make(map[uint]decimal.Decimal, len(rows))
	for _, r := range rows {
		paidByShare[r.OwnershipShareID] = r.Total
	}

	var phases []string
	if err := a.db.Model(&models.InvestmentTransaction{}).
		Joins("JOIN ownership_shares ON ownership_shares.id = investment_transactions.ownership_share_id").
		Where("ownership_shares.shop_id = ? AND investment_transactions.phase <> ''", shopID).
		Distinct("investment_transactions.phase").
		Order("investment_transactions.phase asc").
		Pluck("investment_transactions.phase", &phases).Error; err != nil {
		return nil, fmt.Errorf("fazlar yüklenemedi: %w", err)
	}

	var txs []models.InvestmentTransaction
	if err := a.db.Preload("OwnershipShare.Investor").
		Joins("JOIN ownership_shares ON ownership_shares.id = investment_transactions.ownership_share_id").
		Where("ownership_shares.shop_id = ?", shopID).
		Order("investment_transactions.transaction_date desc, investment_transactions.id desc").
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("işlemler yüklenemedi: %w", err)
	}

	view := &ShopInvestmentView{
		ShopID:       shop.ID,
		ShopName:     shop.Name,
		Phases:       phases,
		Investors:    make([]InvestorSummary, 0, len(shares)),
		Transactions: make([]TransactionRow, 0, len(txs)),
		GeneratedAt:  time.Now().Format(time.RFC3339),
	}
	for i := range txs {
		tx := &txs[i]
		view.Transactions = append(view.Transactions, TransactionRow{
			ID:              tx.ID,
			InvestorID:      tx.OwnershipShare.InvestorID,
			InvestorName:    tx.OwnershipShare.Investor.Name,
			Amount:          tx.Amount.InexactFloat64(),
			TransactionDate: tx.TransactionDate.Format("2006-01-02"),
			Phase:           tx.Phase,
			Note:            tx.Note,
		})
	}
	view.TotalInvested = totalInvested.Round(4).InexactFloat64()

	allocated := 0.0
	activeCount := 0
	for i := range shares {
		share := &shares[i]
		if share.Status == models.ShareStatusActive {
			allocated += share.SharePercentage
			activeCount++
		}
		view.Investors = append(view.Investors, InvestorSummary{
			InvestorID:      share.InvestorID,
			InvestorName:    share.Investor.Name,
			SharePercentage: share.SharePercentage,
			Status:          string(share.Status),
			JoinedDate:      share.JoinedDate.Format("2006-01-02"),
			TotalPaid:       paidByShare[share.ID].Round(4).InexactFloat64(),
		})
	}
	view.AllocatedPercentage = allocated
	view.RemainingPercentage = 100 - allocated
	view.InvestorCount = activeCount

	return view, nil
}

// Watch - önce mevcut görünümü, sonra her değişiklikte yeniden kurulan
// görünümü akıtır. Sinyaller birleştirildiği için hızlı ardışık yazmalarda
// ara durumlar atlanabilir ama son durum her zaman gelir. Kanal ctx iptal
// edilince kapanır.
func (a *Aggregator) Watch(ctx context.Context, shopID uint) (<-chan *ShopInvestmentView, error) {
	// Dükkan yoksa akış başlamadan hata ver
	if _, err := a.View(shopID); err != nil {
		return nil, err
	}

	signals, cancel := a.bus.Subscribe(shopID)
	out := make(chan *ShopInvestmentView, 1)

	go func() {
		defer cancel()
		defer close(out)

		send := func() bool {
			view, err := a.View(shopID)
			if err != nil {
				return false
			}
			select {
			case out <- view:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-signals:
				if !send() {
					return
				}
			}
		}
	}()

	return out, nil
}
