package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains WebSocket connections keyed by user, with optional per-event
// rooms for poll broadcasts. Uses Redis pub/sub for horizontal scaling: local
// delivery plus publish to Redis for other instances.
type Hub struct {
	// userID -> map[clientID]*Client; every connection is user-keyed.
	users map[uuid.UUID]map[string]*Client
	// eventID -> map[clientID]*Client; connections that joined an event room.
	events map[uuid.UUID]map[string]*Client
	// cancel Redis subscription per event room.
	eventSubs map[uuid.UUID]func()
	mu        sync.RWMutex
	logger    *zap.Logger
	redisPub  RedisPublisher
	redisSub  RedisSubscriber
	userSub   func()
}

// RedisPublisher publishes hub messages to Redis for cross-instance delivery.
type RedisPublisher interface {
	PublishEventRoom(eventID uuid.UUID, event string, payload []byte) error
	PublishToUser(userID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to hub channels and invokes the handler for
// incoming messages.
type RedisSubscriber interface {
	SubscribeEventRoom(eventID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
	SubscribeUsers(handler func(userID uuid.UUID, event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a WebSocket hub. The user channel subscription starts
// immediately so notification pushes from other instances reach local clients.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	h := &Hub{
		users:     make(map[uuid.UUID]map[string]*Client),
		events:    make(map[uuid.UUID]map[string]*Client),
		eventSubs: make(map[uuid.UUID]func()),
		logger:    logger,
		redisPub:  redisPub,
		redisSub:  redisSub,
	}
	if redisSub != nil {
		cancel, err := redisSub.SubscribeUsers(func(userID uuid.UUID, event string, payload []byte) {
			h.sendToUserLocal(userID, event, json.RawMessage(payload))
		})
		if err != nil {
			logger.Warn("user channel subscription failed", zap.Error(err))
		} else {
			h.userSub = cancel
		}
	}
	return h
}

// Close stops the hub's Redis subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.userSub != nil {
		h.userSub()
		h.userSub = nil
	}
	for id, cancel := range h.eventSubs {
		cancel()
		delete(h.eventSubs, id)
	}
}

// Register adds a client. If the client joined an event room and it is the
// first local client there, a Redis subscription for the room starts.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[string]*Client)
	}
	h.users[c.UserID][c.ID] = c

	if c.EventID != nil {
		eventID := *c.EventID
		if h.events[eventID] == nil {
			h.events[eventID] = make(map[string]*Client)
			if h.redisSub != nil {
				cancel, err := h.redisSub.SubscribeEventRoom(eventID, func(event string, payload []byte) {
					h.broadcastToEventLocal(eventID, event, json.RawMessage(payload))
				})
				if err == nil {
					h.eventSubs[eventID] = cancel
				}
			}
		}
		h.events[eventID][c.ID] = c
	}
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// Unregister removes a client; the event room's Redis subscription is
// cancelled when the last local client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.users[c.UserID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.users, c.UserID)
		}
	}
	if c.EventID != nil {
		eventID := *c.EventID
		if m, ok := h.events[eventID]; ok {
			delete(m, c.ID)
			if len(m) == 0 {
				delete(h.events, eventID)
				if cancel, ok := h.eventSubs[eventID]; ok {
					cancel()
					delete(h.eventSubs, eventID)
				}
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

func marshalPayload(payload interface{}) []byte {
	switch v := payload.(type) {
	case []byte:
		return v
	case json.RawMessage:
		return v
	default:
		data, _ := json.Marshal(payload)
		return data
	}
}

func (h *Hub) broadcastToEventLocal(eventID uuid.UUID, event string, payload interface{}) {
	msg := WSMessage{Event: event, Data: marshalPayload(payload)}

	h.mu.RLock()
	clients := h.events[eventID]
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// BroadcastToEvent sends to all local clients in an event room and publishes
// to Redis for other instances.
func (h *Hub) BroadcastToEvent(eventID uuid.UUID, event string, payload interface{}) {
	data := marshalPayload(payload)
	h.broadcastToEventLocal(eventID, event, json.RawMessage(data))
	if h.redisPub != nil {
		_ = h.redisPub.PublishEventRoom(eventID, event, data)
	}
}

func (h *Hub) sendToUserLocal(userID uuid.UUID, event string, payload interface{}) {
	msg := WSMessage{Event: event, Data: marshalPayload(payload)}

	h.mu.RLock()
	clients := h.users[userID]
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// SendToUser delivers to all of a user's connections on every instance.
// With Redis available it publishes only; the user-channel subscription
// (including this instance's) performs the delivery exactly once.
func (h *Hub) SendToUser(userID uuid.UUID, event string, payload interface{}) {
	data := marshalPayload(payload)
	if h.redisPub != nil {
		_ = h.redisPub.PublishToUser(userID, event, data)
		return
	}
	h.sendToUserLocal(userID, event, json.RawMessage(data))
}

// PublishOnlyPusher delivers user events through redis pub/sub without a
// local hub. Used by processes that hold no WebSocket connections, like the
// worker.
type PublishOnlyPusher struct {
	Pub RedisPublisher
}

// SendToUser publishes to the user's channel; server instances subscribed to
// it deliver to their local connections.
func (p PublishOnlyPusher) SendToUser(userID uuid.UUID, event string, payload interface{}) {
	_ = p.Pub.PublishToUser(userID, event, marshalPayload(payload))
}

// RoomCount returns the number of connected clients in an event room.
func (h *Hub) RoomCount(eventID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events[eventID])
}
