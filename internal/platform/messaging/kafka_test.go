package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	eventsv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/events/v1"

	"go.uber.org/goleak"
)

func envelope(t *testing.T, eventID string) eventsv1.Envelope {
	t.Helper()
	event, err := eventsv1.New(eventID, "election.ballot_cast", "election-core", "election_id", "election-1",
		time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC), map[string]string{"ballot_hash": "bh-1"})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	return event
}

func TestKafkaDeliversToEverySubscriberAndStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus, err := NewKafka([]string{"localhost:9092"}, nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())

	received := make(chan string, 4)
	for _, group := range []string{"tally", "audit"} {
		group := group
		if err := bus.Subscribe(ctx, "election.ballot_cast", group, func(_ context.Context, event eventsv1.Envelope) error {
			received <- group + ":" + event.EventID
			return nil
		}); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	if err := bus.Notify(context.Background(), "election.ballot_cast", envelope(t, "event-1")); err != nil {
		t.Fatalf("notify: %v", err)
	}
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case got := <-received:
			seen[got] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
	if !seen["tally:event-1"] || !seen["audit:event-1"] {
		t.Fatalf("expected both groups to receive the event, got %v", seen)
	}

	cancel()
	bus.Wait()
}

func TestKafkaRejectsInvalidEnvelope(t *testing.T) {
	bus, _ := NewKafka(nil, nil)
	if err := bus.Publish(context.Background(), "topic", eventsv1.Envelope{}); !errors.Is(err, eventsv1.ErrInvalidEnvelope) {
		t.Fatalf("expected invalid envelope, got %v", err)
	}
}

func TestKafkaPublishWaitsForHandlersBeyondBufferSize(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus, _ := NewKafka(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	var handled atomic.Int64
	if err := bus.Subscribe(ctx, "judgment.verdict_finalized", "election-core", func(context.Context, eventsv1.Envelope) error {
		time.Sleep(100 * time.Microsecond)
		handled.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	const total = 300
	for i := 0; i < total; i++ {
		if err := bus.Publish(context.Background(), "judgment.verdict_finalized", envelope(t, "verdict-event")); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
		if got := handled.Load(); got != int64(i+1) {
			t.Fatalf("publish %d returned before its handler ran: handled=%d", i, got)
		}
	}

	cancel()
	bus.Wait()
}

func TestKafkaPublishReturnsHandlerError(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus, _ := NewKafka(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errRemedy := errors.New("connection reset")
	var calls atomic.Int64
	if err := bus.Subscribe(ctx, "judgment.verdict_finalized", "election-core", func(context.Context, eventsv1.Envelope) error {
		if calls.Add(1) == 1 {
			return errRemedy
		}
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	event := envelope(t, "verdict-event-1")
	if err := bus.Publish(context.Background(), "judgment.verdict_finalized", event); !errors.Is(err, errRemedy) {
		t.Fatalf("expected handler error to reach the publisher, got %v", err)
	}
	if err := bus.Publish(context.Background(), "judgment.verdict_finalized", event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected two deliveries, got %d", calls.Load())
	}

	cancel()
	bus.Wait()
}

func TestKafkaPublishFailsForStoppedSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus, _ := NewKafka(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := bus.Subscribe(ctx, "topic", "group", func(context.Context, eventsv1.Envelope) error { return nil }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	sub := bus.snapshot("topic")[0]
	cancel()
	bus.Wait()

	if err := bus.deliver(context.Background(), sub, envelope(t, "late")); !errors.Is(err, ErrSubscriberStopped) {
		t.Fatalf("expected stopped subscriber error, got %v", err)
	}
	if err := bus.Publish(context.Background(), "topic", envelope(t, "late")); err != nil {
		t.Fatalf("a removed subscriber must not fail later publishes: %v", err)
	}
}
