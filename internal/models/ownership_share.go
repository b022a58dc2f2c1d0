package models

import "time"

type ShareStatus string

const (
	ShareStatusActive   ShareStatus = "active"   // Aktif ortak
	ShareStatusInactive ShareStatus = "inactive" // Pasif (ayrılmış / dondurulmuş)
)

// ShareTolerance - Yüzde toplam kontrolünde yuvarlama payı.
// Bir dükkandaki aktif payların toplamı 100 + ShareTolerance'ı geçemez.
const ShareTolerance = 0.5

// OwnershipShare - Dükkan x yatırımcı bağlantısı. Bir yatırımcının bir
// dükkandaki yüzde payını tutar. Aynı (dükkan, yatırımcı) ikilisi için
// ikinci kayıt açılamaz; ayrılan ortak tekrar eklenmek istenirse mevcut
// kayıt reaktive edilir.
type OwnershipShare struct {
	ID              uint        `gorm:"primaryKey"`
	ShopID          uint        `gorm:"index;not null;uniqueIndex:idx_shop_investor"`
	Shop            Shop        `gorm:"foreignKey:ShopID"`
	InvestorID      uint        `gorm:"index;not null;uniqueIndex:idx_shop_investor"`
	Investor        Investor    `gorm:"foreignKey:InvestorID"`
	SharePercentage float64     `gorm:"not null"`                        // 0 < p <= 100
	Status          ShareStatus `gorm:"type:varchar(20);not null;index"` // "active" / "inactive"
	JoinedDate      time.Time   `gorm:"index;not null"`                  // Ortaklığa katılım tarihi
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Transactions []InvestmentTransaction `gorm:"foreignKey:OwnershipShareID;constraint:OnDelete:CASCADE"`
}
