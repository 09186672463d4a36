package abusefeed

import (
	"encoding/json"
	"log"
	"time"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/aydin-k/StudioSplitBack/internal/models"
)

// Hub fans new abuse reviews out to connected admin dashboards. The feed is
// one-way: admins only listen, resolution happens over the REST surface.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	events     chan *Event
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

type Event struct {
	Type        string             `json:"type"`
	ReviewID    string             `json:"review_id,omitempty"`
	UserID      string             `json:"user_id,omitempty"`
	TriggerType string             `json:"trigger_type,omitempty"`
	Flags       []models.AbuseFlag `json:"flags,omitempty"`
	Timestamp   string             `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *Event, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case event := <-h.events:
			h.broadcast(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PublishAbuseReview queues a pending review for broadcast. It never blocks
// the scanner: when the buffer is full the event is dropped and logged.
func (h *Hub) PublishAbuseReview(review *models.AbuseReview) {
	event := &Event{
		Type:        "abuse_review_created",
		ReviewID:    review.ID,
		UserID:      review.UserID,
		TriggerType: review.TriggerType,
		Flags:       review.Flags,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	select {
	case h.events <- event:
	default:
		log.Printf("abuse feed buffer full, dropping event for review %s", review.ID)
	}
}

func (h *Hub) broadcast(event *Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("abuse feed encode event: %v", err)
		return
	}

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// ReadPump drains the connection so close frames are processed. Any inbound
// payload is ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
