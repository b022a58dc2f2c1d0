package settlement

import (
	"errors"
	"testing"
	"time"

	"dukkan-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}

	// :memory: her bağlantıda ayrı veritabanı verir, tek bağlantıya sabitle
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Shop{},
		&models.Investor{},
		&models.OwnershipShare{},
		&models.InvestmentTransaction{},
		&models.Settlement{},
		&models.SettlementEntry{},
	); err != nil {
		t.Fatalf("migrasyon başarısız: %v", err)
	}

	return db
}

func day(n int) time.Time {
	return time.Date(2025, 1, n, 0, 0, 0, 0, time.UTC)
}

func seedShop(t *testing.T, db *gorm.DB) *models.Shop {
	t.Helper()
	shop := models.Shop{Name: "Çınar Kafe"}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("dükkan oluşturulamadı: %v", err)
	}
	return &shop
}

func seedShare(t *testing.T, db *gorm.DB, shopID uint, name string, pct float64, joined time.Time) *models.OwnershipShare {
	t.Helper()
	investor := models.Investor{Name: name}
	if err := db.Create(&investor).Error; err != nil {
		t.Fatalf("yatırımcı oluşturulamadı: %v", err)
	}
	s := models.OwnershipShare{
		ShopID:          shopID,
		InvestorID:      investor.ID,
		SharePercentage: pct,
		Status:          models.ShareStatusActive,
		JoinedDate:      joined,
	}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("ortaklık oluşturulamadı: %v", err)
	}
	return &s
}

func seedTx(t *testing.T, db *gorm.DB, shareID uint, amount float64, date time.Time) {
	t.Helper()
	tx := models.InvestmentTransaction{
		OwnershipShareID: shareID,
		Amount:           decimal.NewFromFloat(amount),
		TransactionDate:  date,
	}
	if err := db.Create(&tx).Error; err != nil {
		t.Fatalf("işlem oluşturulamadı: %v", err)
	}
}

func TestCalculateBalances(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	shop := seedShop(t, db)
	s40 := seedShare(t, db, shop.ID, "Ali", 40, day(1))
	s60 := seedShare(t, db, shop.ID, "Veli", 60, day(1))
	seedTx(t, db, s40.ID, 1000, day(2))
	seedTx(t, db, s40.ID, 500, day(3))
	seedTx(t, db, s60.ID, 3500, day(2))

	result, err := svc.Calculate(shop.ID, time.Time{}, false)
	if err != nil {
		t.Fatalf("hesaplama başarısız: %v", err)
	}

	if !result.TotalInvested.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("toplam yatırım 5000 bekleniyordu, %s geldi", result.TotalInvested)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("2 satır bekleniyordu, %d geldi", len(result.Entries))
	}

	// %60 önce gelir
	ali := result.Entries[1]
	if ali.InvestorID != s40.InvestorID {
		t.Fatalf("ikinci satır %%40'lık ortak olmalıydı")
	}
	if !ali.FairShareAmount.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("adil pay 2000 bekleniyordu, %s geldi", ali.FairShareAmount)
	}
	if !ali.BalanceAmount.Equal(decimal.NewFromInt(-500)) {
		t.Errorf("bakiye -500 bekleniyordu, %s geldi", ali.BalanceAmount)
	}
}

func TestCalculateAsOfExcludesLateJoiner(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	shop := seedShop(t, db)
	early := seedShare(t, db, shop.ID, "Ali", 80, day(1))
	seedShare(t, db, shop.ID, "Geç Katılan", 20, day(10))
	seedTx(t, db, early.ID, 1000, day(2))

	result, err := svc.Calculate(shop.ID, day(5), false)
	if err != nil {
		t.Fatalf("hesaplama başarısız: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("1 satır bekleniyordu, %d geldi", len(result.Entries))
	}
	if result.Entries[0].InvestorID != early.InvestorID {
		t.Errorf("sadece erken katılan ortak kalmalıydı")
	}
}

func TestCalculateBoundTotal(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	shop := seedShop(t, db)
	s := seedShare(t, db, shop.ID, "Ali", 100, day(1))
	seedTx(t, db, s.ID, 1000, day(2))
	seedTx(t, db, s.ID, 500, day(20)) // asOf sonrası

	// Varsayılan: defterin tamamı
	unbounded, err := svc.Calculate(shop.ID, day(5), false)
	if err != nil {
		t.Fatalf("hesaplama başarısız: %v", err)
	}
	if !unbounded.TotalInvested.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("sınırsız toplam 1500 bekleniyordu, %s geldi", unbounded.TotalInvested)
	}

	// boundTotal: sadece asOf'a kadar olan işlemler
	bounded, err := svc.Calculate(shop.ID, day(5), true)
	if err != nil {
		t.Fatalf("hesaplama başarısız: %v", err)
	}
	if !bounded.TotalInvested.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("sınırlı toplam 1000 bekleniyordu, %s geldi", bounded.TotalInvested)
	}
	if !bounded.Entries[0].ActualPaidAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("sınırlı ödenen 1000 bekleniyordu, %s geldi", bounded.Entries[0].ActualPaidAmount)
	}
}

func TestCalculateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	shop := seedShop(t, db)
	s := seedShare(t, db, shop.ID, "Ali", 100, day(1))
	seedTx(t, db, s.ID, 1234.56, day(2))

	first, err := svc.Calculate(shop.ID, time.Time{}, false)
	if err != nil {
		t.Fatalf("hesaplama başarısız: %v", err)
	}
	second, err := svc.Calculate(shop.ID, time.Time{}, false)
	if err != nil {
		t.Fatalf("hesaplama başarısız: %v", err)
	}

	if !first.TotalInvested.Equal(second.TotalInvested) {
		t.Errorf("toplamlar aynı olmalıydı: %s, %s", first.TotalInvested, second.TotalInvested)
	}
	if len(first.Entries) != len(second.Entries) {
		t.Fatalf("satır sayıları aynı olmalıydı: %d, %d", len(first.Entries), len(second.Entries))
	}
	for i := range first.Entries {
		if !first.Entries[i].BalanceAmount.Equal(second.Entries[i].BalanceAmount) {
			t.Errorf("satır %d bakiyesi değişti: %s, %s", i,
				first.Entries[i].BalanceAmount, second.Entries[i].BalanceAmount)
		}
	}

	// Hesaplama hiçbir şey yazmaz
	var count int64
	if err := db.Model(&models.Settlement{}).Count(&count).Error; err != nil {
		t.Fatalf("sayım başarısız: %v", err)
	}
	if count != 0 {
		t.Errorf("hesaplama kayıt bırakmamalıydı, %d mutabakat var", count)
	}
}

func TestCalculateEmptyShop(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	shop := seedShop(t, db)

	result, err := svc.Calculate(shop.ID, time.Time{}, false)
	if err != nil {
		t.Fatalf("boş dükkan hata vermemeli: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("boş liste bekleniyordu, %d satır geldi", len(result.Entries))
	}
}

func TestCalculateUnknownShop(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	if _, err := svc.Calculate(999, time.Time{}, false); !errors.Is(err, ErrShopNotFound) {
		t.Errorf("ErrShopNotFound bekleniyordu, %v geldi", err)
	}
}

func TestConfirmSnapshotIsImmutable(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	shop := seedShop(t, db)
	s := seedShare(t, db, shop.ID, "Ali", 100, day(1))
	seedTx(t, db, s.ID, 1000, day(2))

	settlement, err := svc.Confirm(shop.ID, 2025, "yıl sonu", time.Time{}, false)
	if err != nil {
		t.Fatalf("mutabakat başarısız: %v", err)
	}
	if settlement.ReferenceNo == "" {
		t.Error("referans numarası boş olmamalı")
	}
	if !settlement.TotalInvested.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("mutabakat toplamı 1000 bekleniyordu, %s geldi", settlement.TotalInvested)
	}

	// Defter sonradan değişse bile fotoğraf aynı kalmalı
	seedTx(t, db, s.ID, 9000, day(3))

	stored, err := svc.Get(settlement.ID)
	if err != nil {
		t.Fatalf("mutabakat okunamadı: %v", err)
	}
	if !stored.TotalInvested.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("kayıtlı toplam değişmemeliydi, %s oldu", stored.TotalInvested)
	}
	if len(stored.Entries) != 1 || !stored.Entries[0].ActualPaidAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("kayıtlı satır değişmemeliydi: %+v", stored.Entries)
	}
}

func TestConfirmNothingToSettle(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	shop := seedShop(t, db)

	if _, err := svc.Confirm(shop.ID, 2025, "", time.Time{}, false); !errors.Is(err, ErrNothingToSettle) {
		t.Errorf("ErrNothingToSettle bekleniyordu, %v geldi", err)
	}
}

func TestConfirmIsAtomic(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	shop := seedShop(t, db)
	s := seedShare(t, db, shop.ID, "Ali", 100, day(1))
	seedTx(t, db, s.ID, 1000, day(2))

	// Satır yazımını zorla bozuyoruz: tablo yoksa insert patlar,
	// başlık da geri alınmalı.
	if err := db.Migrator().DropTable(&models.SettlementEntry{}); err != nil {
		t.Fatalf("tablo silinemedi: %v", err)
	}

	if _, err := svc.Confirm(shop.ID, 2025, "", time.Time{}, false); err == nil {
		t.Fatal("hata bekleniyordu")
	}

	var count int64
	if err := db.Model(&models.Settlement{}).Count(&count).Error; err != nil {
		t.Fatalf("sayım başarısız: %v", err)
	}
	if count != 0 {
		t.Errorf("yetim mutabakat başlığı kalmamalıydı, %d kayıt var", count)
	}
}

func TestRecordPayout(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	shop := seedShop(t, db)
	s := seedShare(t, db, shop.ID, "Ali", 100, day(1))
	seedTx(t, db, s.ID, 1000, day(2))

	settlement, err := svc.Confirm(shop.ID, 2025, "", time.Time{}, false)
	if err != nil {
		t.Fatalf("mutabakat başarısız: %v", err)
	}
	entryID := settlement.Entries[0].ID

	entry, err := svc.RecordPayout(entryID, decimal.NewFromFloat(250.5), day(15))
	if err != nil {
		t.Fatalf("ödeme kaydedilemedi: %v", err)
	}
	if !entry.SettlementPaidAmount.Equal(decimal.NewFromFloat(250.5)) {
		t.Errorf("ödeme 250.5 bekleniyordu, %s geldi", entry.SettlementPaidAmount)
	}
	if entry.SettlementPaidDate == nil {
		t.Error("ödeme tarihi boş kalmamalı")
	}

	// Negatif ödeme reddedilir
	if _, err := svc.RecordPayout(entryID, decimal.NewFromInt(-1), day(15)); !errors.Is(err, ErrInvalidPayout) {
		t.Errorf("ErrInvalidPayout bekleniyordu, %v geldi", err)
	}

	// Donmuş alanlar ödeme güncellemesinden etkilenmez
	stored, err := svc.Get(settlement.ID)
	if err != nil {
		t.Fatalf("mutabakat okunamadı: %v", err)
	}
	if !stored.Entries[0].BalanceAmount.Equal(settlement.Entries[0].BalanceAmount) {
		t.Error("bakiye alanı değişmemeliydi")
	}
}

func TestRecordPayoutUnknownEntry(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	if _, err := svc.RecordPayout(42, decimal.NewFromInt(10), day(1)); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("ErrEntryNotFound bekleniyordu, %v geldi", err)
	}
}

func TestListByShopNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	shop := seedShop(t, db)
	s := seedShare(t, db, shop.ID, "Ali", 100, day(1))
	seedTx(t, db, s.ID, 1000, day(2))

	first, err := svc.Confirm(shop.ID, 2024, "", time.Time{}, false)
	if err != nil {
		t.Fatalf("mutabakat başarısız: %v", err)
	}
	second, err := svc.Confirm(shop.ID, 2025, "", time.Time{}, false)
	if err != nil {
		t.Fatalf("mutabakat başarısız: %v", err)
	}

	list, err := svc.ListByShop(shop.ID)
	if err != nil {
		t.Fatalf("listeleme başarısız: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("2 mutabakat bekleniyordu, %d geldi", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("yeniden eskiye sıralama bekleniyordu: %d, %d", list[0].ID, list[1].ID)
	}
}
