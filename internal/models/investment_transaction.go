package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentTransaction - Bir ortaklık payına yapılan sermaye ödemesi.
// Phase serbest metin bir etiket ("1. Etap" vs.), tekillik şartı yok.
type InvestmentTransaction struct {
	ID               uint            `gorm:"primaryKey"`
	OwnershipShareID uint            `gorm:"index;not null"`
	OwnershipShare   OwnershipShare  `gorm:"foreignKey:OwnershipShareID"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);not null"` // Tutar, > 0
	TransactionDate  time.Time       `gorm:"index;not null"`
	Phase            string          `gorm:"size:100"` // Ödeme turu etiketi
	Note             string          `gorm:"size:255"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
