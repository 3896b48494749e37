package ws

import (
	"encoding/json"
	"hugoquiz/internal/model"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgParticipantCreated MessageType = "participant_created"
	MsgAnswerSubmitted    MessageType = "answer_submitted"
	MsgSessionDone        MessageType = "session_done"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans progress events out to operator connections
type Hub struct {
	observers map[*Connection]struct{}
	mu        sync.RWMutex
	log       *zap.Logger

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan []byte
	done       chan struct{}
}

// Connection represents an operator WebSocket connection
type Connection struct {
	OperatorID string
	Send       chan []byte
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(log *zap.Logger) *Hub {
	h := &Hub{
		observers:  make(map[*Connection]struct{}),
		log:        log.With(zap.String("component", "ws_hub")),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.observers[conn] = struct{}{}
			h.mu.Unlock()
			h.log.Info("operator connected", zap.String("operator_id", conn.OperatorID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.observers[conn]; ok {
				delete(h.observers, conn)
				close(conn.Send)
				h.log.Info("operator disconnected", zap.String("operator_id", conn.OperatorID))
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.observers {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for conn := range h.observers {
				delete(h.observers, conn)
				close(conn.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Observers returns the number of connected operators
func (h *Hub) Observers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// Close stops the loop and closes every observer's send channel
func (h *Hub) Close() {
	close(h.done)
}

// BroadcastProgress sends a progress event to every operator (implements service.Broadcaster)
func (h *Hub) BroadcastProgress(event *model.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to encode progress event", zap.Error(err))
		return
	}
	data, err := json.Marshal(&Message{Type: MessageType(event.Kind), Payload: payload})
	if err != nil {
		h.log.Error("failed to encode message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.log.Warn("progress feed backlog full, dropping event", zap.String("kind", string(event.Kind)))
	}
}
