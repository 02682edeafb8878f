package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	eventsv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/events/v1"
)

var ErrSubscriberStopped = errors.New("subscriber stopped before handling the event")

// Kafka is the event bus adapter used by the outbox relays, the receipt
// notifier and the verdict consumer. Delivery is in-process publish/subscribe;
// brokers are recorded for the external deployment.
//
// Publish is acknowledged: it returns only after every subscriber's handler
// ran and reports their errors, so the outbox keeps a row pending until it was
// consumed. Notify is fire-and-forget and may drop events for a full
// subscriber.
type Kafka struct {
	mu          sync.RWMutex
	subscribers map[string][]subscriber
	brokers     []string
	wg          sync.WaitGroup
	logger      *slog.Logger
}

type subscriber struct {
	group string
	ch    chan delivery
	done  chan struct{}
}

// delivery carries an event and, for acknowledged publishes, the channel the
// handler result is reported on.
type delivery struct {
	event eventsv1.Envelope
	ack   chan error
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	return &Kafka{
		subscribers: make(map[string][]subscriber),
		brokers:     append([]string(nil), brokers...),
		logger:      logger,
	}, nil
}

func (k *Kafka) Brokers() []string {
	return append([]string(nil), k.brokers...)
}

// Wait blocks until every subscriber goroutine has exited.
func (k *Kafka) Wait() {
	k.wg.Wait()
}

// Notify enqueues event without waiting for subscribers. A subscriber whose
// buffer is full misses the event.
func (k *Kafka) Notify(ctx context.Context, topic string, event eventsv1.Envelope) error {
	if err := event.Validate(); err != nil {
		return err
	}
	for _, sub := range k.snapshot(topic) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub.ch <- delivery{event: event}:
		default:
			k.log(slog.LevelWarn, "dropping notification for slow subscriber",
				"event", "kafka_notify_drop",
				"topic", topic,
				"consumer_group", sub.group,
				"event_id", event.EventID,
			)
		}
	}
	return nil
}

// Publish delivers event to every subscriber of topic and waits for each
// handler. Any handler error, or a subscriber that stopped first, fails the
// publish so the caller retries; handlers dedupe by event ID.
func (k *Kafka) Publish(ctx context.Context, topic string, event eventsv1.Envelope) error {
	if err := event.Validate(); err != nil {
		return err
	}

	var errs []error
	for _, sub := range k.snapshot(topic) {
		if err := k.deliver(ctx, sub, event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, fmt.Errorf("consumer group %s: %w", sub.group, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		k.log(slog.LevelError, "event publish failed",
			"event", "kafka_publish_failed",
			"topic", topic,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	k.log(slog.LevelInfo, "event published",
		"event", "kafka_publish",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

func (k *Kafka) deliver(ctx context.Context, sub subscriber, event eventsv1.Envelope) error {
	ack := make(chan error, 1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-sub.done:
		return ErrSubscriberStopped
	case sub.ch <- delivery{event: event, ack: ack}:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-sub.done:
		// The handler may have finished just before the subscriber stopped.
		select {
		case err := <-ack:
			return err
		default:
			return ErrSubscriberStopped
		}
	case err := <-ack:
		return err
	}
}

func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, eventsv1.Envelope) error,
) error {
	sub := subscriber{
		group: consumerGroup,
		ch:    make(chan delivery, 128),
		done:  make(chan struct{}),
	}

	k.mu.Lock()
	k.subscribers[topic] = append(k.subscribers[topic], sub)
	k.mu.Unlock()

	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		for {
			select {
			case <-ctx.Done():
				k.removeSubscriber(topic, sub.ch)
				close(sub.done)
				return
			case item := <-sub.ch:
				err := handler(ctx, item.event)
				if err != nil {
					k.log(slog.LevelError, "consumer handler failed",
						"event", "kafka_consume_failed",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", item.event.EventID,
						"event_type", item.event.EventType,
						"error", err.Error(),
					)
				}
				if item.ack != nil {
					item.ack <- err
				}
			}
		}
	}()
	return nil
}

func (k *Kafka) snapshot(topic string) []subscriber {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]subscriber(nil), k.subscribers[topic]...)
}

func (k *Kafka) removeSubscriber(topic string, target chan delivery) {
	k.mu.Lock()
	defer k.mu.Unlock()

	items := k.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]subscriber, 0, len(items))
	for _, item := range items {
		if item.ch != target {
			filtered = append(filtered, item)
		}
	}
	k.subscribers[topic] = filtered
}

func (k *Kafka) log(level slog.Level, msg string, args ...any) {
	if k.logger == nil {
		return
	}
	args = append(args, "module", "internal/platform/messaging", "layer", "platform")
	k.logger.Log(context.Background(), level, msg, args...)
}
