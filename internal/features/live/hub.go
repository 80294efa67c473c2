package live

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hicham-zad/pikonote-backend/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sendBuffer = 32

// Publisher fans an event out to the session's subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Subscriber struct {
	ID        uuid.UUID
	SessionID string
	UserID    string
	Send      chan []byte
}

// Hub tracks the websocket subscribers of this instance, keyed by session.
// It only caches connections; session state always comes from the store.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[uuid.UUID]*Subscriber
	closed   bool
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[uuid.UUID]*Subscriber),
		logger:   logger.Named("live"),
	}
}

// Subscribe registers a subscriber for sessionID. It returns nil after Close.
func (h *Hub) Subscribe(sessionID, userID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	sub := &Subscriber{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		Send:      make(chan []byte, sendBuffer),
	}
	if _, ok := h.sessions[sessionID]; !ok {
		h.sessions[sessionID] = make(map[uuid.UUID]*Subscriber)
	}
	h.sessions[sessionID][sub.ID] = sub
	metrics.LiveSubscribers.Inc()
	return sub
}

// Unsubscribe removes sub and closes its Send channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.sessions[sub.SessionID]
	if !ok {
		return
	}
	if _, ok := subs[sub.ID]; !ok {
		return
	}
	delete(subs, sub.ID)
	if len(subs) == 0 {
		delete(h.sessions, sub.SessionID)
	}
	close(sub.Send)
	metrics.LiveSubscribers.Dec()
}

// Deliver sends event to the local subscribers of its session. Slow
// subscribers miss the event instead of blocking the caller.
func (h *Hub) Deliver(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode live event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.sessions[event.SessionID] {
		select {
		case sub.Send <- data:
		default:
			h.logger.Debug("subscriber send buffer full", zap.String("subscriber", sub.ID.String()))
		}
	}
}

// Publish delivers locally; used when no relay is configured.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	h.Deliver(event)
	return nil
}

func (h *Hub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for sessionID, subs := range h.sessions {
		for _, sub := range subs {
			close(sub.Send)
			metrics.LiveSubscribers.Dec()
		}
		delete(h.sessions, sessionID)
	}
}
