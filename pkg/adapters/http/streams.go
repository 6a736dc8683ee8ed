package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
)

// SSE event names.
const (
	EventDiff    = "diff"
	EventPlot    = "plot"
	EventDeleted = "deleted"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  string
}

// StreamManager fans session updates out to SSE subscribers.
// Slow subscribers lose messages instead of blocking publishers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]struct{} // SessionID -> set of channels
	buffer      int
	logger      *slog.Logger
}

// NewStreamManager creates a manager buffering 10 messages per subscriber.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Message]struct{}),
		buffer:      10,
		logger:      logger,
	}
}

// Subscribe registers a channel for sessionID. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, sm.buffer)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- Message]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
		})
	}
}

// Subscribers returns the number of live subscriptions to sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast delivers msg to every subscriber of sessionID.
func (sm *StreamManager) Broadcast(sessionID string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	subs, ok := sm.subscribers[sessionID]
	if !ok {
		return
	}
	sm.logger.Debug("StreamManager: Broadcasting", "session_id", sessionID, "event", msg.Event, "subscribers", len(subs), "payload_size", len(msg.Data))
	for ch := range subs {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID, "event", msg.Event)
		}
	}
}

// BroadcastJSON marshals v and broadcasts it under event.
func (sm *StreamManager) BroadcastJSON(sessionID, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	sm.Broadcast(sessionID, Message{Event: event, Data: string(data)})
	return nil
}

// Sink returns the plot sink of sessionID: every refresh becomes a "plot" event.
func (sm *StreamManager) Sink(sessionID string) ports.PlotSink {
	return ports.PlotSinkFunc(func(ctx context.Context, plot domain.Plot) error {
		return sm.BroadcastJSON(sessionID, EventPlot, plot)
	})
}
