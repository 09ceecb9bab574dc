package controllers

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"sysinfo/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// clientMessage is what subscribers may send us
type clientMessage struct {
	Type string `json:"type"` // "ping", "unsubscribe"
}

// StreamController pushes every newly stored sample to WebSocket subscribers
type StreamController struct {
	hub      *services.StreamHub
	upgrader websocket.Upgrader
	logger   *zap.Logger
	seq      atomic.Uint64
}

func NewStreamController(hub *services.StreamHub, logger *zap.Logger) *StreamController {
	return &StreamController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger.Named("stream"),
	}
}

// HandleStream upgrades the connection and subscribes it to new samples
func (sc *StreamController) HandleStream(c *gin.Context) {
	ws, err := sc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sc.logger.Warn("Upgrade failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		return
	}

	client := services.NewStreamClient(fmt.Sprintf("%s-%d", c.ClientIP(), sc.seq.Add(1)), ws)
	if !sc.hub.Register(client) {
		ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		ws.Close()
		return
	}

	go sc.readPump(client)
	go sc.writePump(client)
}

// readPump handles client messages until the connection drops
func (sc *StreamController) readPump(client *services.StreamClient) {
	defer func() {
		sc.hub.Unregister(client.ID)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sc.logger.Warn("Read error", zap.String("client", client.ID), zap.Error(err))
			}
			return
		}
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case "ping":
			select {
			case client.Replies <- services.StreamMessage{Type: "pong", Timestamp: time.Now()}:
			default:
			}
		case "unsubscribe":
			return
		default:
			sc.logger.Debug("Unknown message type", zap.String("client", client.ID), zap.String("type", msg.Type))
		}
	}
}

// writePump owns all writes to the connection
func (sc *StreamController) writePump(client *services.StreamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(msg); err != nil {
				sc.logger.Debug("Write error", zap.String("client", client.ID), zap.Error(err))
				return
			}

		case msg := <-client.Replies:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
