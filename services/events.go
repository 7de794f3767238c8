package services

import (
	"log"
	"sync"
)

// Domain events emitted by persistence operations. Consumers subscribe on the
// bus; a failing consumer never reaches the publisher.

type MessageCreated struct {
	RoomID      uint
	SenderID    uint
	RecipientID uint
	Message     MessagePayload
}

type ReviewPosted struct {
	ReviewID      uint
	PropertyID    uint
	LandlordID    uint
	TenantID      uint
	TenantName    string
	PropertyTitle string
	Rating        int
}

type subscriber struct {
	name string
	ch   chan interface{}
}

// EventBus fans out domain events to registered consumers. Each consumer
// drains its own queue on a dedicated goroutine, so delivery order per
// consumer matches publish order and a slow consumer only ever loses its own
// events.
type EventBus struct {
	mu   sync.RWMutex
	subs []*subscriber
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Events is the process-wide bus. Consumers register in main.
var Events = NewEventBus()

// Subscribe registers a named consumer. The handler runs on its own
// goroutine; panics are contained and logged.
func (b *EventBus) Subscribe(name string, handler func(event interface{})) {
	s := &subscriber{name: name, ch: make(chan interface{}, 256)}

	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	go func() {
		for event := range s.ch {
			runHandler(name, handler, event)
		}
	}()
}

func runHandler(name string, handler func(event interface{}), event interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ event bus: consumer %q panicked on %T: %v", name, event, r)
		}
	}()
	handler(event)
}

// Publish hands the event to every consumer queue without blocking. A consumer
// whose queue is full misses the event.
func (b *EventBus) Publish(event interface{}) {
	b.mu.RLock()
	subs := make([]*subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.ch <- event:
		default:
			log.Printf("⚠️  event bus: consumer %q backlog full, dropping %T", s.name, event)
		}
	}
}
