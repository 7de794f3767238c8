package services

import (
	"sync"
	"testing"
	"time"
)

func TestEventBusPreservesOrderPerConsumer(t *testing.T) {
	bus := NewEventBus()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	const total = 100
	bus.Subscribe("collector", func(event interface{}) {
		mu.Lock()
		got = append(got, event.(int))
		if len(got) == total {
			close(done)
		}
		mu.Unlock()
	})

	for i := 0; i < total; i++ {
		bus.Publish(i)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		if v != i {
			t.Fatalf("event %d arrived at position %d", v, i)
		}
	}
}

func TestEventBusFansOutToAllConsumers(t *testing.T) {
	bus := NewEventBus()

	first := make(chan interface{}, 1)
	second := make(chan interface{}, 1)
	bus.Subscribe("first", func(event interface{}) { first <- event })
	bus.Subscribe("second", func(event interface{}) { second <- event })

	bus.Publish("hello")

	for name, ch := range map[string]chan interface{}{"first": first, "second": second} {
		select {
		case v := <-ch:
			if v != "hello" {
				t.Fatalf("consumer %s got %v", name, v)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("consumer %s never received the event", name)
		}
	}
}

func TestEventBusIsolatesPanickingConsumer(t *testing.T) {
	bus := NewEventBus()

	bus.Subscribe("panicker", func(event interface{}) {
		panic("boom")
	})

	healthy := make(chan interface{}, 2)
	bus.Subscribe("healthy", func(event interface{}) { healthy <- event })

	bus.Publish(1)
	bus.Publish(2)

	for want := 1; want <= 2; want++ {
		select {
		case v := <-healthy:
			if v != want {
				t.Fatalf("got %v, want %d", v, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("healthy consumer starved after publish %d", want)
		}
	}
}

func TestEventBusPublishNeverBlocks(t *testing.T) {
	bus := NewEventBus()

	block := make(chan struct{})
	bus.Subscribe("stuck", func(event interface{}) {
		<-block
	})
	defer close(block)

	// Far more events than the queue holds; Publish must drop, not stall.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a stuck consumer")
	}
}
