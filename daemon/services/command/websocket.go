package command

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/coldwatch/hmi-core/daemon/constants"
	"github.com/coldwatch/hmi-core/daemon/dto"
	"github.com/coldwatch/hmi-core/daemon/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool {
		return true // UI shell origin is not known ahead of deployment
	},
}

// broadcastMessage carries an event with its topic name through the broadcast channel.
type broadcastMessage struct {
	Topic string
	Data  any
}

// WSHub manages WebSocket client connections and broadcasts the four
// alerts://* / device://* events to all connected clients.
type WSHub struct {
	clients    map[*WSClient]bool
	broadcast  chan broadcastMessage
	register   chan *WSClient
	unregister chan *WSClient
	mu         sync.RWMutex
}

// WSClient represents a single WebSocket client connection.
type WSClient struct {
	hub    *WSHub
	conn   *websocket.Conn
	send   chan dto.WSEvent
	topics map[string]bool // nil = all topics; non-nil = only matching topics
	topMu  sync.RWMutex
}

// NewWSHub creates and initializes a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan broadcastMessage, constants.WSBufferSize),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the WebSocket hub's main event loop until ctx is canceled.
func (h *WSHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			event := dto.WSEvent{
				Event:     msg.Topic,
				Timestamp: time.Now(),
				Data:      msg.Data,
			}
			for client := range h.clients {
				if !client.wantsTopic(msg.Topic) {
					continue
				}
				select {
				case client.send <- event:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (c *WSClient) wantsTopic(topic string) bool {
	c.topMu.RLock()
	defer c.topMu.RUnlock()
	if c.topics == nil {
		return true
	}
	return c.topics[topic]
}

func (c *WSClient) setTopics(topics []string) {
	c.topMu.Lock()
	defer c.topMu.Unlock()
	if len(topics) == 0 {
		c.topics = nil
		return
	}
	c.topics = make(map[string]bool, len(topics))
	for _, t := range topics {
		c.topics[t] = true
	}
}

// Broadcast sends data to all connected WebSocket clients subscribed to topic.
func (h *WSHub) Broadcast(topic string, data any) {
	h.broadcast <- broadcastMessage{Topic: topic, Data: data}
}

// handleWebSocket godoc
//
//	@Summary		WebSocket event stream
//	@Description	Establish a WebSocket connection for alerts://added, alerts://removed,
//	@Description	alerts://mute_changed, and device://status_changed events.
//	@Description	Send `{"subscribe": ["alerts://added"]}` to filter; `{"subscribe": null}` resets to all.
//	@Tags			WebSocket
//	@Router			/ws [get]
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade error: %v", err)
		return
	}

	client := &WSClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan dto.WSEvent, constants.WSBufferSize),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(time.Duration(constants.WSPingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var envelope map[string]json.RawMessage
		if json.Unmarshal(raw, &envelope) != nil {
			continue
		}
		rawSub, hasKey := envelope["subscribe"]
		if !hasKey {
			continue
		}
		var topics []string
		if err := json.Unmarshal(rawSub, &topics); err != nil {
			continue
		}
		c.setTopics(topics)
	}
}
