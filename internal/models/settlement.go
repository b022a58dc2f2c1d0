package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement - Bir dükkanın dönemsel mutabakat kaydı. Oluşturulduktan sonra
// değiştirilmez; kayıt anındaki toplam yatırım ve ortak bakiyeleri donmuş
// bir fotoğraf olarak saklanır. Defterdeki işlemler sonradan düzeltilse bile
// geçmiş mutabakatlar etkilenmez.
type Settlement struct {
	ID             uint            `gorm:"primaryKey"`
	ReferenceNo    string          `gorm:"size:36;uniqueIndex;not null"` // UUID, denetim referansı
	ShopID         uint            `gorm:"index;not null"`
	Shop           Shop            `gorm:"foreignKey:ShopID"`
	Year           int             `gorm:"index;not null"`
	TotalInvested  decimal.Decimal `gorm:"type:decimal(20,4);not null"` // Kayıt anındaki toplam yatırım
	SettlementDate time.Time       `gorm:"index;not null"`
	Note           string          `gorm:"size:255"`
	CarriedForward bool            `gorm:"default:false"` // Bakiyeler sonraki döneme devredildi mi
	CreatedAt      time.Time

	Entries []SettlementEntry `gorm:"foreignKey:SettlementID;constraint:OnDelete:CASCADE"`
}

// SettlementEntry - Mutabakattaki tek bir ortak satırı.
// BalanceAmount = ActualPaidAmount - FairShareAmount
// (pozitif = fazla ödemiş, negatif = eksik ödemiş).
// Oluşturulduktan sonra sadece SettlementPaidAmount/Date güncellenebilir.
type SettlementEntry struct {
	ID                   uint            `gorm:"primaryKey"`
	SettlementID         uint            `gorm:"index;not null"`
	Settlement           Settlement      `gorm:"foreignKey:SettlementID"`
	InvestorID           uint            `gorm:"index;not null"`
	Investor             Investor        `gorm:"foreignKey:InvestorID"`
	SharePercentage      float64         `gorm:"not null"` // Kayıt anındaki pay yüzdesi
	FairShareAmount      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	ActualPaidAmount     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	BalanceAmount        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	SettlementPaidAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0"` // Bakiyeyi kapatmak için yapılan ödeme
	SettlementPaidDate   *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
