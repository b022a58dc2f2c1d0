package events

import "testing"

func TestPublishReachesOnlyMatchingShop(t *testing.T) {
	bus := NewBus()

	ch1, cancel1 := bus.Subscribe(1)
	defer cancel1()
	ch2, cancel2 := bus.Subscribe(2)
	defer cancel2()

	bus.Publish(1)

	select {
	case <-ch1:
	default:
		t.Fatal("dükkan 1 abonesi sinyal almalıydı")
	}

	select {
	case <-ch2:
		t.Fatal("dükkan 2 abonesi sinyal almamalıydı")
	default:
	}
}

func TestPublishCoalescesSignals(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	// Okunmadan art arda publish: bloklamamalı, tek sinyale birleşmeli
	bus.Publish(1)
	bus.Publish(1)
	bus.Publish(1)

	<-ch

	select {
	case <-ch:
		t.Fatal("sinyaller tek sinyale birleşmeliydi")
	default:
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe(7)
	cancel()

	bus.Publish(7)

	select {
	case <-ch:
		t.Fatal("iptal edilen abone sinyal almamalıydı")
	default:
	}
}
