package investment

import (
	"errors"
	"testing"
	"time"

	"dukkan-backend/internal/events"
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
	); err != nil {
		t.Fatalf("migrasyon başarısız: %v", err)
	}
	return db
}

func seedActiveShare(t *testing.T, db *gorm.DB) (*models.Shop, *models.OwnershipShare) {
	t.Helper()
	shop := models.Shop{Name: "Çınar Kafe"}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("dükkan oluşturulamadı: %v", err)
	}
	investor := models.Investor{Name: "Ali"}
	if err := db.Create(&investor).Error; err != nil {
		t.Fatalf("yatırımcı oluşturulamadı: %v", err)
	}
	share := models.OwnershipShare{
		ShopID:          shop.ID,
		InvestorID:      investor.ID,
		SharePercentage: 100,
		Status:          models.ShareStatusActive,
		JoinedDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&share).Error; err != nil {
		t.Fatalf("ortaklık oluşturulamadı: %v", err)
	}
	return &shop, &share
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, events.NewBus())
	_, share := seedActiveShare(t, db)

	for _, amount := range []float64{0, -5} {
		_, err := svc.Record(share.ID, decimal.NewFromFloat(amount), time.Now(), "", "")
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("tutar=%v için ErrInvalidAmount bekleniyordu, %v geldi", amount, err)
		}
	}
}

func TestRecordRequiresActiveShare(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, events.NewBus())
	_, share := seedActiveShare(t, db)

	// Bilinmeyen pay
	if _, err := svc.Record(999, decimal.NewFromInt(100), time.Now(), "", ""); !errors.Is(err, ErrUnknownShare) {
		t.Errorf("ErrUnknownShare bekleniyordu, %v geldi", err)
	}

	// Pasif pay da reddedilir
	if err := db.Model(share).Update("status", models.ShareStatusInactive).Error; err != nil {
		t.Fatalf("pay pasife alınamadı: %v", err)
	}
	if _, err := svc.Record(share.ID, decimal.NewFromInt(100), time.Now(), "", ""); !errors.Is(err, ErrUnknownShare) {
		t.Errorf("pasif pay için ErrUnknownShare bekleniyordu, %v geldi", err)
	}
}

func TestDerivedTotalsFollowLedger(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, events.NewBus())
	shop, share := seedActiveShare(t, db)

	tx1, err := svc.Record(share.ID, decimal.NewFromInt(1000), time.Now(), "açılış", "")
	if err != nil {
		t.Fatalf("kayıt başarısız: %v", err)
	}
	tx2, err := svc.Record(share.ID, decimal.NewFromInt(500), time.Now(), "tadilat", "")
	if err != nil {
		t.Fatalf("kayıt başarısız: %v", err)
	}

	total, err := svc.TotalPaidByShare(share.ID)
	if err != nil {
		t.Fatalf("toplam okunamadı: %v", err)
	}
	if !total.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("toplam 1500 bekleniyordu, %s geldi", total)
	}

	// Düzeltme toplamı anında değiştirir
	newAmount := decimal.NewFromInt(700)
	if _, err := svc.Update(tx2.ID, &newAmount, nil, nil, nil); err != nil {
		t.Fatalf("güncelleme başarısız: %v", err)
	}
	total, _ = svc.TotalPaidByShare(share.ID)
	if !total.Equal(decimal.NewFromInt(1700)) {
		t.Errorf("güncelleme sonrası 1700 bekleniyordu, %s geldi", total)
	}

	// Silme de öyle
	if _, err := svc.Remove(tx1.ID); err != nil {
		t.Fatalf("silme başarısız: %v", err)
	}
	total, _ = svc.TotalPaidByShare(share.ID)
	if !total.Equal(decimal.NewFromInt(700)) {
		t.Errorf("silme sonrası 700 bekleniyordu, %s geldi", total)
	}

	shopTotal, err := svc.TotalPaidForShop(shop.ID)
	if err != nil {
		t.Fatalf("dükkan toplamı okunamadı: %v", err)
	}
	if !shopTotal.Equal(decimal.NewFromInt(700)) {
		t.Errorf("dükkan toplamı 700 bekleniyordu, %s geldi", shopTotal)
	}
}

func TestUpdateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, events.NewBus())
	_, share := seedActiveShare(t, db)

	tx, err := svc.Record(share.ID, decimal.NewFromInt(100), time.Now(), "", "")
	if err != nil {
		t.Fatalf("kayıt başarısız: %v", err)
	}

	zero := decimal.Zero
	if _, err := svc.Update(tx.ID, &zero, nil, nil, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("sıfır tutar güncellemesi reddedilmeliydi, %v geldi", err)
	}
	if _, err := svc.Update(999, nil, nil, nil, nil); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("ErrTransactionNotFound bekleniyordu, %v geldi", err)
	}
}

func TestPhasesDistinctSorted(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, events.NewBus())
	shop, share := seedActiveShare(t, db)

	for _, phase := range []string{"tadilat", "açılış", "tadilat", ""} {
		if _, err := svc.Record(share.ID, decimal.NewFromInt(10), time.Now(), phase, ""); err != nil {
			t.Fatalf("kayıt başarısız: %v", err)
		}
	}

	phases, err := svc.Phases(shop.ID)
	if err != nil {
		t.Fatalf("fazlar okunamadı: %v", err)
	}
	want := []string{"açılış", "tadilat"}
	if len(phases) != len(want) {
		t.Fatalf("fazlar %v bekleniyordu, %v geldi", want, phases)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("fazlar %v bekleniyordu, %v geldi", want, phases)
		}
	}
}

func TestTotalPaidByInvestorForShop(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, events.NewBus())
	shop, share := seedActiveShare(t, db)

	if _, err := svc.Record(share.ID, decimal.NewFromFloat(250.25), time.Now(), "", ""); err != nil {
		t.Fatalf("kayıt başarısız: %v", err)
	}

	total, err := svc.TotalPaidByInvestorForShop(shop.ID, share.InvestorID)
	if err != nil {
		t.Fatalf("toplam okunamadı: %v", err)
	}
	if !total.Equal(decimal.NewFromFloat(250.25)) {
		t.Errorf("toplam 250.25 bekleniyordu, %s geldi", total)
	}

	// İşlemi olmayan yatırımcı için sıfır
	other, err := svc.TotalPaidByInvestorForShop(shop.ID, 999)
	if err != nil {
		t.Fatalf("toplam okunamadı: %v", err)
	}
	if !other.Equal(decimal.Zero) {
		t.Errorf("0 bekleniyordu, %s geldi", other)
	}
}
