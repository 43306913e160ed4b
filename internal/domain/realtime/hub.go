package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"cleandigo/internal/domain/assignment"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/profile"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// CleanerLookup resolves the cleaner currently assigned to a booking.
type CleanerLookup interface {
	Current(ctx context.Context, bookingID uuid.UUID) (*assignment.Assignment, error)
}

type client struct {
	userID uuid.UUID
	role   profile.Role
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans committed booking events out to connected websocket clients.
// Admins see everything, customers their own bookings, cleaners the
// bookings they are currently assigned to.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	cleaners CleanerLookup
}

func NewHub(cleaners CleanerLookup) *Hub {
	return &Hub{
		clients:  make(map[*client]struct{}),
		cleaners: cleaners,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Connected reports how many clients are registered.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish implements booking.EventPublisher.
func (h *Hub) Publish(ctx context.Context, e booking.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("realtime_marshal_failed booking_id=%s err=%v", e.BookingID, err)
		return
	}

	cleanerID := h.cleanerFor(ctx, e)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !receives(c, e, cleanerID) {
			continue
		}
		select {
		case c.send <- data:
		default:
			log.Printf("realtime_client_slow user_id=%s booking_id=%s", c.userID, e.BookingID)
		}
	}
}

func (h *Hub) cleanerFor(ctx context.Context, e booking.Event) uuid.UUID {
	if e.CleanerID != nil {
		return *e.CleanerID
	}
	if h.cleaners == nil || !h.hasRole(profile.RoleCleaner) {
		return uuid.Nil
	}
	a, err := h.cleaners.Current(ctx, e.BookingID)
	if err != nil || a == nil {
		return uuid.Nil
	}
	return a.CleanerID
}

func (h *Hub) hasRole(role profile.Role) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.role == role {
			return true
		}
	}
	return false
}

func receives(c *client, e booking.Event, cleanerID uuid.UUID) bool {
	switch c.role {
	case profile.RoleAdmin:
		return true
	case profile.RoleCustomer:
		return c.userID == e.CustomerID
	case profile.RoleCleaner:
		return cleanerID != uuid.Nil && c.userID == cleanerID
	}
	return false
}

// serve registers conn and runs its pumps until the peer goes away.
func (h *Hub) serve(conn *websocket.Conn, userID uuid.UUID, role profile.Role) {
	c := &client{
		userID: userID,
		role:   role,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	h.register(c)
	log.Printf("realtime_connected user_id=%s role=%s", userID, role)

	go h.writePump(c)
	h.readPump(c)
	log.Printf("realtime_disconnected user_id=%s", userID)
}

// readPump only drains control frames; clients have nothing to send.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("realtime_read_error user_id=%s err=%v", c.userID, err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
