package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	eventChannelPrefix = "event:"
	userChannelPrefix  = "user:"
	publishTimeout     = 5 * time.Second
)

// redisPayload is the message published to Redis for cross-instance delivery.
type redisPayload struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

// RedisPubSub implements RedisPublisher and RedisSubscriber over Redis pub/sub.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates a Redis pub/sub bridge for hub messages.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	return &RedisPubSub{client: client, logger: logger}
}

func (r *RedisPubSub) publish(channel, event string, payload []byte) error {
	body, err := json.Marshal(redisPayload{Event: event, Data: payload, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return r.client.Publish(ctx, channel, body).Err()
}

// PublishEventRoom publishes a message to an event room's channel.
func (r *RedisPubSub) PublishEventRoom(eventID uuid.UUID, event string, payload []byte) error {
	return r.publish(eventChannelPrefix+eventID.String(), event, payload)
}

// PublishToUser publishes a message to a user's channel.
func (r *RedisPubSub) PublishToUser(userID uuid.UUID, event string, payload []byte) error {
	return r.publish(userChannelPrefix+userID.String(), event, payload)
}

// SubscribeEventRoom subscribes to one event room's channel and calls handler
// for each message. Returns a cancel function to stop the subscription.
func (r *RedisPubSub) SubscribeEventRoom(eventID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error) {
	channel := eventChannelPrefix + eventID.String()
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	go r.consume(ctx, pubsub, func(_ string, p redisPayload) {
		handler(p.Event, p.Data)
	})
	return cancelCtx, nil
}

// SubscribeUsers pattern-subscribes to all user channels so one goroutine
// serves every locally connected user.
func (r *RedisPubSub) SubscribeUsers(handler func(userID uuid.UUID, event string, payload []byte)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		return nil, fmt.Errorf("psubscribe users: %w", err)
	}
	go r.consume(ctx, pubsub, func(channel string, p redisPayload) {
		idStr := strings.TrimPrefix(channel, userChannelPrefix)
		userID, err := uuid.Parse(idStr)
		if err != nil {
			return
		}
		handler(userID, p.Event, p.Data)
	})
	return cancelCtx, nil
}

func (r *RedisPubSub) consume(ctx context.Context, pubsub *redis.PubSub, handle func(channel string, p redisPayload)) {
	defer pubsub.Close()
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var p redisPayload
			if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
				r.logger.Debug("invalid pubsub payload", zap.String("channel", msg.Channel))
				continue
			}
			handle(msg.Channel, p)
		}
	}
}
