package events

import (
	"context"
	"strings"
	"sync"
	"testing"

	"dealdesk_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (e testEvent) EventName() string { return "test.event" }

func TestPublishSyncRecoversHandlerPanic(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		panic("boom")
	}))

	var handled bool
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		handled = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if err == nil || !strings.Contains(err.Error(), "panic") {
		t.Fatalf("expected a panic error, got %v", err)
	}
	if !handled {
		t.Fatal("panic in one handler stopped the others")
	}
}

func TestPublishRecoversHandlerPanic(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	var wg sync.WaitGroup
	wg.Add(1)
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		defer wg.Done()
		panic("boom")
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	wg.Wait()

	// The bus must still dispatch after a subscriber panicked.
	var handled bool
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		handled = true
		return nil
	}))
	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err == nil {
		t.Fatal("expected the panicking subscriber to surface as an error")
	}
	if !handled {
		t.Fatal("bus stopped dispatching after a panic")
	}
}
