package database

import (
	"dukkan-backend/internal/config"
	"dukkan-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	err = DB.AutoMigrate(
		&models.Shop{},
		&models.Investor{},
		&models.User{},
		&models.OwnershipShare{},
		&models.InvestmentTransaction{},
		&models.Settlement{},
		&models.SettlementEntry{},
		&models.AuditLog{},
	)
	if err != nil {
		logrus.Fatalf("AutoMigrate hatası: %v", err)
	}

	// Cascade constraint'leri garanti et. AutoMigrate mevcut tablolarda eski
	// constraint'i güncellemeyebiliyor; mutabakat silme ve pay silme
	// senaryolarında yetim kayıt kalmaması için elle düzeltiyoruz.
	ensureCascade("investment_transactions", "fk_ownership_shares_transactions",
		"ownership_share_id", "ownership_shares")
	ensureCascade("settlement_entries", "fk_settlements_entries",
		"settlement_id", "settlements")

	logrus.Info("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// ensureCascade - childTable.fkColumn -> parentTable(id) ON DELETE CASCADE
func ensureCascade(childTable, constraint, fkColumn, parentTable string) {
	var exists bool
	DB.Raw(`
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.table_constraints
			WHERE table_name = ? AND constraint_name = ?
		)
	`, childTable, constraint).Scan(&exists)

	if exists {
		return
	}

	logrus.Infof("%s için cascade constraint ekleniyor...", childTable)
	if err := DB.Exec(
		"ALTER TABLE " + childTable + " DROP CONSTRAINT IF EXISTS " + constraint,
	).Error; err != nil {
		logrus.Warnf("Eski constraint kaldırılırken hata (devam ediliyor): %v", err)
	}
	if err := DB.Exec(
		"ALTER TABLE " + childTable +
			" ADD CONSTRAINT " + constraint +
			" FOREIGN KEY (" + fkColumn + ") REFERENCES " + parentTable + "(id) ON DELETE CASCADE",
	).Error; err != nil {
		logrus.Warnf("Cascade constraint eklenirken hata: %v", err)
	}
}
