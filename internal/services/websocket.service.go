package services

import (
	"context"
	"sync"
	"time"

	"sysinfo/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StreamMessage is a message sent over the sample stream
type StreamMessage struct {
	Type      string         `json:"type"` // "sample", "pong", "error"
	Timestamp time.Time      `json:"timestamp"`
	Data      *models.Sample `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// StreamClient is one connected WebSocket subscriber.
// Send is owned and closed by the hub; Replies is never closed.
type StreamClient struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan StreamMessage
	Replies chan StreamMessage
}

// NewStreamClient wraps conn with buffered send queues
func NewStreamClient(id string, conn *websocket.Conn) *StreamClient {
	return &StreamClient{
		ID:      id,
		Conn:    conn,
		Send:    make(chan StreamMessage, 64),
		Replies: make(chan StreamMessage, 4),
	}
}

// StreamHub fans newly stored samples out to every connected client.
// Slow clients miss messages instead of stalling the collector.
type StreamHub struct {
	mu         sync.RWMutex
	clients    map[string]*StreamClient
	broadcast  chan StreamMessage
	register   chan *StreamClient
	unregister chan string
	done       chan struct{}
	logger     *zap.Logger
}

// NewStreamHub creates a hub. Call Run to start delivering messages.
func NewStreamHub(logger *zap.Logger) *StreamHub {
	return &StreamHub{
		clients:    make(map[string]*StreamClient),
		broadcast:  make(chan StreamMessage, 256),
		register:   make(chan *StreamClient),
		unregister: make(chan string),
		done:       make(chan struct{}),
		logger:     logger.Named("stream"),
	}
}

// Run manages the hub's event loop until ctx is cancelled.
// On return every client's Send channel is closed.
func (h *StreamHub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Client connected", zap.String("client", client.ID), zap.Int("total", total))

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Client disconnected", zap.String("client", clientID), zap.Int("total", total))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					h.logger.Debug("Client queue full, dropping message", zap.String("client", client.ID))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish queues sample for every connected client. It never blocks.
func (h *StreamHub) Publish(sample models.Sample) {
	msg := StreamMessage{
		Type:      "sample",
		Timestamp: time.Now(),
		Data:      &sample,
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("Broadcast queue full, dropping sample", zap.Int64("id", sample.ID))
	}
}

// Register adds a client to the hub. Client IDs must be unique.
// It returns false if the hub has stopped.
func (h *StreamHub) Register(client *StreamClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub and closes its Send channel
func (h *StreamHub) Unregister(clientID string) {
	select {
	case h.unregister <- clientID:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *StreamHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
