// Package events - dükkan bazlı değişiklik bildirimi. Pay ve işlem yazan
// servisler Publish eder, dashboard canlı görünümü Subscribe ile dinler.
package events

import "sync"

// Bus - dükkan id'sine göre anahtarlanmış değişiklik zili. Sinyaller veri
// taşımaz, sadece "bu dükkanda bir şey değişti" der; dinleyen taraf güncel
// durumu her zaman store'dan yeniden okur. Publish hiçbir zaman bloklamaz:
// kanal kapasitesi 1 olduğu için art arda gelen sinyaller tek sinyale
// birleşir, yavaş dinleyici sadece ara durumları atlar.
type Bus struct {
	mu   sync.Mutex
	subs map[uint]map[chan struct{}]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint]map[chan struct{}]struct{})}
}

// Publish - shopID'deki değişikliği tüm abonelere duyurur.
func (b *Bus) Publish(shopID uint) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[shopID] {
		select {
		case ch <- struct{}{}:
		default:
			// Kanalda zaten bekleyen sinyal var, birleştir
		}
	}
}

// Subscribe - shopID için sinyal kanalı ve aboneliği iptal eden fonksiyon
// döner. İptal sonrası kanala yazılmaz.
func (b *Bus) Subscribe(shopID uint) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	if b.subs[shopID] == nil {
		b.subs[shopID] = make(map[chan struct{}]struct{})
	}
	b.subs[shopID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[shopID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, shopID)
			}
		}
	}

	return ch, cancel
}
