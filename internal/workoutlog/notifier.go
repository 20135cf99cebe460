package workoutlog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const changeChannelPrefix = "workoutlog:changes:"

func changeChannel(userID string) string {
	return changeChannelPrefix + userID
}

// Notifier delivers workout day change events over redis pub/sub, one
// channel per user.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{
		rdb: rdb,
	}
}

func (n *Notifier) Publish(ctx context.Context, event ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := n.rdb.Publish(ctx, changeChannel(event.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Subscribe starts a pub/sub subscription on the user's change channel
// and invokes onEvent for every received message. A message that fails
// to decode is still delivered as a bare event for the user, since
// consumers re-read everything regardless of the event content.
func (n *Notifier) Subscribe(ctx context.Context, userID string, onEvent func(ChangeEvent)) (Subscription, error) {
	pubsub := n.rdb.Subscribe(ctx, changeChannel(userID))

	// confirm the subscription before handing it out
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", changeChannel(userID), err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		for msg := range pubsub.Channel() {
			var event ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Errorf("notifier [%s]: unmarshal change event [%s]: %s", userID, msg.Payload, err)
				event = ChangeEvent{UserID: userID}
			}
			onEvent(event)
		}
	}()

	return sub, nil
}

type redisSubscription struct {
	pubsub    *redis.PubSub
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Close shuts the pub/sub connection down and waits for the delivery
// goroutine to drain. Subsequent calls are no-ops.
func (s *redisSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.pubsub.Close()
		<-s.done
	})
	return s.closeErr
}
