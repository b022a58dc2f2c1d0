package dashboard

import (
	"context"
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

func seedShopWithShare(t *testing.T, db *gorm.DB, pct float64) (*models.Shop, *models.OwnershipShare) {
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
		SharePercentage: pct,
		Status:          models.ShareStatusActive,
		JoinedDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&share).Error; err != nil {
		t.Fatalf("ortaklık oluşturulamadı: %v", err)
	}
	return &shop, &share
}

func addTx(t *testing.T, db *gorm.DB, shareID uint, amount float64, phase string) {
	t.Helper()
	tx := models.InvestmentTransaction{
		OwnershipShareID: shareID,
		Amount:           decimal.NewFromFloat(amount),
		TransactionDate:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Phase:            phase,
	}
	if err := db.Create(&tx).Error; err != nil {
		t.Fatalf("işlem oluşturulamadı: %v", err)
	}
}

func TestViewAggregates(t *testing.T) {
	db := newTestDB(t)
	agg := NewAggregator(db, events.NewBus())

	shop, share := seedShopWithShare(t, db, 60)
	addTx(t, db, share.ID, 1000, "açılış")
	addTx(t, db, share.ID, 250.5, "tadilat")

	view, err := agg.View(shop.ID)
	if err != nil {
		t.Fatalf("görünüm kurulamadı: %v", err)
	}

	if view.TotalInvested != 1250.5 {
		t.Errorf("toplam 1250.5 bekleniyordu, %v geldi", view.TotalInvested)
	}
	if view.AllocatedPercentage != 60 || view.RemainingPercentage != 40 {
		t.Errorf("dağılım 60/40 bekleniyordu, %v/%v geldi", view.AllocatedPercentage, view.RemainingPercentage)
	}
	if view.InvestorCount != 1 || len(view.Investors) != 1 {
		t.Fatalf("1 ortak bekleniyordu: %+v", view)
	}
	if view.Investors[0].TotalPaid != 1250.5 {
		t.Errorf("ortak ödemesi 1250.5 bekleniyordu, %v geldi", view.Investors[0].TotalPaid)
	}
	if len(view.Phases) != 2 || view.Phases[0] != "açılış" {
		t.Errorf("fazlar [açılış tadilat] bekleniyordu, %v geldi", view.Phases)
	}
	if len(view.Transactions) != 2 {
		t.Fatalf("2 işlem satırı bekleniyordu, %d geldi", len(view.Transactions))
	}
	if view.Transactions[0].InvestorName != "Ali" {
		t.Errorf("işlem satırı yatırımcı adıyla gelmeliydi: %+v", view.Transactions[0])
	}
}

func TestViewUnknownShop(t *testing.T) {
	db := newTestDB(t)
	agg := NewAggregator(db, events.NewBus())

	if _, err := agg.View(99); !errors.Is(err, ErrShopNotFound) {
		t.Errorf("ErrShopNotFound bekleniyordu, %v geldi", err)
	}
}

func TestWatchDeliversUpdates(t *testing.T) {
	db := newTestDB(t)
	bus := events.NewBus()
	agg := NewAggregator(db, bus)

	shop, share := seedShopWithShare(t, db, 100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views, err := agg.Watch(ctx, shop.ID)
	if err != nil {
		t.Fatalf("izleme başlatılamadı: %v", err)
	}

	// İlk görünüm hemen gelir
	select {
	case view := <-views:
		if view.TotalInvested != 0 {
			t.Errorf("ilk görünümde toplam 0 bekleniyordu, %v geldi", view.TotalInvested)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ilk görünüm gelmedi")
	}

	// Değişiklik sonrası yeniden kurulmuş görünüm gelir
	addTx(t, db, share.ID, 500, "")
	bus.Publish(shop.ID)

	select {
	case view := <-views:
		if view.TotalInvested != 500 {
			t.Errorf("güncel görünümde toplam 500 bekleniyordu, %v geldi", view.TotalInvested)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("güncel görünüm gelmedi")
	}

	// İptal ile kanal kapanır
	cancel()
	select {
	case _, open := <-views:
		if open {
			// Kuyruktaki son görünüm olabilir, kapanışı bir kez daha bekle
			select {
			case _, open := <-views:
				if open {
					t.Error("iptal sonrası kanal kapanmalıydı")
				}
			case <-time.After(2 * time.Second):
				t.Error("iptal sonrası kanal kapanmadı")
			}
		}
	case <-time.After(2 * time.Second):
		t.Error("iptal sonrası kanal kapanmadı")
	}
}

func TestWatchUnknownShop(t *testing.T) {
	db := newTestDB(t)
	agg := NewAggregator(db, events.NewBus())

	if _, err := agg.Watch(context.Background(), 99); !errors.Is(err, ErrShopNotFound) {
		t.Errorf("ErrShopNotFound bekleniyordu, %v geldi", err)
	}
}
