package models

import "time"

type Investor struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	Phone     string `gorm:"size:50"`
	Email     string `gorm:"size:100"`
	Note      string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Shares []OwnershipShare `gorm:"foreignKey:InvestorID"`
}
