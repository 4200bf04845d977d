package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/pkg/config"
)

// EventService broadcasts change events over Redis pub/sub, one channel
// per request collection. Subscribers receive invalidation signals and
// re-read the collection themselves.
type EventService struct {
	client *redis.Client
	config config.EventsConfig
	logger *zap.Logger
}

// Subscription is a live change-feed subscription. Events arrives until
// Close is called or the subscribing context is cancelled.
type Subscription struct {
	Events <-chan models.ChangeEvent
	cancel context.CancelFunc
	pubsub *redis.PubSub
}

// Close terminates the subscription and releases the Redis channel.
func (s *Subscription) Close() {
	s.cancel()
	_ = s.pubsub.Close()
}

// NewEventService constructs an EventService instance.
func NewEventService(client *redis.Client, cfg config.EventsConfig, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{client: client, config: cfg, logger: logger}
}

func (s *EventService) channel(collection models.RequestKind) string {
	return fmt.Sprintf("%s:%s", s.config.ChannelPrefix, collection)
}

// Publish emits a change event on the collection channel. Publishing is
// best effort; a failed publish never fails the originating write.
func (s *EventService) Publish(ctx context.Context, event models.ChangeEvent) error {
	if !s.config.Enabled || s.client == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if err := s.client.Publish(ctx, s.channel(event.Collection), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe opens a subscription covering all request collections. The
// returned channel is closed when the subscription ends.
func (s *EventService) Subscribe(ctx context.Context) (*Subscription, error) {
	if !s.config.Enabled || s.client == nil {
		return nil, fmt.Errorf("change feed is disabled")
	}

	channels := make([]string, 0, len(models.RequestKinds))
	for _, kind := range models.RequestKinds {
		channels = append(channels, s.channel(kind))
	}

	pubsub := s.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to change feed: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	events := make(chan models.ChangeEvent, s.config.StreamBuffer)

	go func() {
		defer close(events)
		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event models.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.logger.Warn("dropping malformed change event", zap.Error(err))
					continue
				}
				select {
				case events <- event:
				case <-subCtx.Done():
					return
				default:
					// Slow consumers lose events rather than block the feed.
					s.logger.Warn("dropping change event for slow subscriber",
						zap.String("collection", string(event.Collection)))
				}
			}
		}
	}()

	return &Subscription{Events: events, cancel: cancel, pubsub: pubsub}, nil
}
