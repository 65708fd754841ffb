package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Topic names for rotation and configuration events.
const (
	TopicConfigUpdated        = "config.updated"
	TopicRotationAdvanced     = "rotation.advanced"
	TopicRotationExhausted    = "rotation.exhausted"
	TopicRotationShortCircuit = "rotation.short_circuit"
	TopicRotationIndexSet     = "rotation.index_set"

	// TopicAll subscribes a handler to every topic.
	TopicAll = "*"
)

// Event represents a published message on the event bus.
type Event struct {
	Topic     string            `json:"topic"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   any               `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// RotationEvent is the payload of the rotation.* topics.
type RotationEvent struct {
	Attempt  int    `json:"attempt"`
	Position int    `json:"position"`
	Next     int    `json:"next"`
	PoolSize int    `json:"pool_size"`
	Outcome  string `json:"outcome"`
	Status   int    `json:"status,omitempty"`
}

// Handler processes an incoming event.
type Handler func(context.Context, Event)

// Publisher exposes the ability to publish events to the hub.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any, metadata map[string]string)
}

// Subscriber exposes subscription capabilities.
type Subscriber interface {
	Subscribe(topic string, handler Handler) func()
}

// Hub is a lightweight in-process pub/sub event bus.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[int64]Handler
	nextID int64
}

// NewHub constructs a new empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[int64]Handler),
	}
}

// Subscribe registers a handler for the given topic, or for every topic
// when topic is TopicAll. The returned func unsubscribes.
func (h *Hub) Subscribe(topic string, handler Handler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID

	if _, ok := h.subs[topic]; !ok {
		h.subs[topic] = make(map[int64]Handler)
	}
	h.subs[topic][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if listeners, ok := h.subs[topic]; ok {
				delete(listeners, id)
				if len(listeners) == 0 {
					delete(h.subs, topic)
				}
			}
		})
	}
}

// Publish dispatches an event to all subscribers synchronously. A panicking
// handler is logged and does not stop delivery to the others.
func (h *Hub) Publish(ctx context.Context, topic string, payload any, metadata map[string]string) {
	if h == nil {
		return
	}
	event := Event{
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
		Metadata:  metadata,
	}

	for _, handler := range h.snapshotHandlers(topic) {
		dispatch(ctx, handler, event)
	}
}

func dispatch(ctx context.Context, handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"topic": event.Topic, "panic": r}).Error("event handler panicked")
		}
	}()
	handler(ctx, event)
}

func (h *Hub) snapshotHandlers(topic string) []Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []Handler
	for _, key := range []string{topic, TopicAll} {
		for _, handler := range h.subs[key] {
			out = append(out, handler)
		}
		if topic == TopicAll {
			break
		}
	}
	return out
}
