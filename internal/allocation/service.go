// Package allocation - pay dağıtım yöneticisi. Bir dükkandaki aktif
// payların toplamının %100'ü (+ yuvarlama payı) aşmaması bu pakette
// garanti edilir.
package allocation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"dukkan-backend/internal/events"
	"dukkan-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrShopNotFound     = errors.New("dükkan bulunamadı")
	ErrInvestorNotFound = errors.New("yatırımcı bulunamadı")
	ErrShareNotFound    = errors.New("ortaklık kaydı bulunamadı")

	// Aynı (dükkan, yatırımcı) ikilisi için ikinci kayıt açılmaz; ayrılan
	// ortak geri gelecekse mevcut kayıt reaktive edilir.
	ErrDuplicateAssignment = errors.New("bu yatırımcı bu dükkana zaten ekli; yeni kayıt yerine mevcut ortaklığı yeniden aktifleştirin")
)

// InvalidShareError - Yüzde doğrulaması hatası. Mesaj kullanıcının girişi
// düzeltmesine yetecek bilgiyi taşır (kalan ya da kullanılması gereken
// yüzde).
type InvalidShareError struct {
	Message string

	// Assign için: dükkanda kalan pay yüzdesi
	Remaining *float64
	// EditShare için: toplamı 100'e tamamlayan yüzde
	Required *float64
}

func (e *InvalidShareError) Error() string {
	return e.Message
}

// Service - pay kayıtları üzerinde çalışan servis. Store handle'ı açıkça
// taşır, global durum tutmaz; tek değişken durumu eşzamanlı assign/edit
// yarışını kapatan kilittir.
type Service struct {
	db  *gorm.DB
	bus *events.Bus

	// Aynı anda iki assign birlikte %100'ü aşamasın diye yazma fazını
	// serileştirir. UI kaynaklı düzenlemeler nadir, tek kilit yeterli.
	mu sync.Mutex
}

func NewService(db *gorm.DB, bus *events.Bus) *Service {
	return &Service{db: db, bus: bus}
}

// Assign - yatırımcıyı dükkana pct yüzdesiyle ortak yapar.
// Açık dağıtım kuralı: mevcut aktif toplam + pct <= 100 + tolerans.
func (s *Service) Assign(shopID, investorID uint, pct float64, joinedDate time.Time) (*models.OwnershipShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var shop models.Shop
	if err := s.db.First(&shop, "id = ?", shopID).Error; err != nil {
		return nil, ErrShopNotFound
	}
	var investor models.Investor
	if err := s.db.First(&investor, "id = ?", investorID).Error; err != nil {
		return nil, ErrInvestorNotFound
	}

	// Statüden bağımsız duplicate kontrolü
	var count int64
	if err := s.db.Model(&models.OwnershipShare{}).
		Where("shop_id = ? AND investor_id = ?", shopID, investorID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("ortaklık kontrolü yapılamadı: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateAssignment
	}

	if pct <= 0 {
		return nil, &InvalidShareError{Message: "Pay yüzdesi 0'dan büyük olmalı"}
	}

	total, err := s.totalAllocated(shopID)
	if err != nil {
		return nil, err
	}
	if total+pct > 100+models.ShareTolerance {
		remaining := 100 - total
		return nil, &InvalidShareError{
			Message:   fmt.Sprintf("Pay toplamı %%100'ü aşıyor: bu dükkan için sadece %%%.2f pay kaldı", remaining),
			Remaining: &remaining,
		}
	}

	if joinedDate.IsZero() {
		joinedDate = time.Now()
	}

	share := models.OwnershipShare{
		ShopID:          shopID,
		InvestorID:      investorID,
		SharePercentage: pct,
		Status:          models.ShareStatusActive,
		JoinedDate:      joinedDate,
	}
	if err := s.db.Create(&share).Error; err != nil {
		return nil, fmt.Errorf("ortaklık kaydedilemedi: %w", err)
	}
	share.Investor = investor

	s.publish(shopID)
	return &share, nil
}

// EditShare - mevcut bir payın yüzdesini değiştirir.
// Kapalı dağıtım kuralı: düzenleme var olan ortaklar arasında yeniden
// paylaştırma sayıldığı için diğer aktif paylar + yeni yüzde tam 100
// etmeli (± tolerans). Assign'daki "<= 100" kuralından bilerek daha katı.
func (s *Service) EditShare(shareID uint, pct float64) (*models.OwnershipShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var share models.OwnershipShare
	if err := s.db.Preload("Investor").First(&share, "id = ?", shareID).Error; err != nil {
		return nil, ErrShareNotFound
	}

	if pct <= 0 {
		return nil, &InvalidShareError{Message: "Pay yüzdesi 0'dan büyük olmalı"}
	}

	var others float64
	if err := s.db.Model(&models.OwnershipShare{}).
		Where("shop_id = ? AND status = ? AND id <> ?", share.ShopID, models.ShareStatusActive, share.ID).
		Select("COALESCE(SUM(share_percentage), 0)").
		Scan(&others).Error; err != nil {
		return nil, fmt.Errorf("pay toplamı hesaplanamadı: %w", err)
	}

	total := others + pct
	if total < 100-models.ShareTolerance || total > 100+models.ShareTolerance {
		required := 100 - others
		return nil, &InvalidShareError{
			Message:  fmt.Sprintf("Paylar toplamı 100 etmeli: bu ortak için %%%.2f kullanılmalı", required),
			Required: &required,
		}
	}

	share.SharePercentage = pct
	if err := s.db.Save(&share).Error; err != nil {
		return nil, fmt.Errorf("ortaklık güncellenemedi: %w", err)
	}

	s.publish(share.ShopID)
	return &share, nil
}

// Deactivate - payı pasife alır, geçmişi silmez.
func (s *Service) Deactivate(shareID uint) (*models.OwnershipShare, error) {
	return s.setStatus(shareID, models.ShareStatusInactive)
}

// Reactivate - payı tekrar aktifleştirir. %100 kontrolü burada bilerek
// yapılmaz; önce diğer paylarla yer açmak çağıranın sorumluluğu.
func (s *Service) Reactivate(shareID uint) (*models.OwnershipShare, error) {
	return s.setStatus(shareID, models.ShareStatusActive)
}

func (s *Service) setStatus(shareID uint, status models.ShareStatus) (*models.OwnershipShare, error) {
	var share models.OwnershipShare
	if err := s.db.Preload("Investor").First(&share, "id = ?", shareID).Error; err != nil {
		return nil, ErrShareNotFound
	}

	share.Status = status
	if err := s.db.Save(&share).Error; err != nil {
		return nil, fmt.Errorf("ortaklık güncellenemedi: %w", err)
	}

	s.publish(share.ShopID)
	return &share, nil
}

// TotalAllocated - dükkandaki aktif payların toplam yüzdesi. Her çağrıda
// taze hesaplanır, cache tutulmaz.
func (s *Service) TotalAllocated(shopID uint) (float64, error) {
	var shop models.Shop
	if err := s.db.First(&shop, "id = ?", shopID).Error; err != nil {
		return 0, ErrShopNotFound
	}
	return s.totalAllocated(shopID)
}

func (s *Service) totalAllocated(shopID uint) (float64, error) {
	var total float64
	if err := s.db.Model(&models.OwnershipShare{}).
		Where("shop_id = ? AND status = ?", shopID, models.ShareStatusActive).
		Select("COALESCE(SUM(share_percentage), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("pay toplamı hesaplanamadı: %w", err)
	}
	return total, nil
}

// ListByShop - dükkanın tüm pay kayıtları (pasifler dahil).
func (s *Service) ListByShop(shopID uint) ([]models.OwnershipShare, error) {
	var shares []models.OwnershipShare
	if err := s.db.Preload("Investor").
		Where("shop_id = ?", shopID).
		Order("share_percentage desc, investor_id asc").
		Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("ortaklıklar listelenemedi: %w", err)
	}
	return shares, nil
}

func (s *Service) publish(shopID uint) {
	if s.bus != nil {
		s.bus.Publish(shopID)
	}
}
