package websocket

import (
	"sync"
	"time"

	"nick8/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// writeWait bounds a single socket write so a stalled peer cannot hold up a publisher.
var writeWait = 5 * time.Second

// ProgressClient is one socket subscribed to a user's progress events
type ProgressClient struct {
	ID        string
	Conn      *websocket.Conn
	UserEmail string
	writeMu   sync.Mutex
}

func NewProgressClient(conn *websocket.Conn, userEmail string) *ProgressClient {
	return &ProgressClient{ID: uuid.NewString(), Conn: conn, UserEmail: userEmail}
}

// SafeWriteJSON serialises writes to the client's connection
func (pc *ProgressClient) SafeWriteJSON(v interface{}) error {
	pc.writeMu.Lock()
	defer pc.writeMu.Unlock()
	if err := pc.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return pc.Conn.WriteJSON(v)
}

// ProgressHub fans progress events out to the sockets of the user they belong to.
type ProgressHub struct {
	mu      sync.RWMutex
	clients map[*ProgressClient]bool
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{clients: make(map[*ProgressClient]bool)}
}

// Register adds a client to the hub
func (h *ProgressHub) Register(client *ProgressClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	log.WithFields(log.Fields{"client": client.ID, "total": len(h.clients)}).Debug("Progress client registered")
}

// Unregister removes a client and closes its connection
func (h *ProgressHub) Unregister(client *ProgressClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.Conn.Close()
	log.WithFields(log.Fields{"client": client.ID, "total": len(h.clients)}).Debug("Progress client unregistered")
}

// Publish delivers event to every socket opened by event.UserEmail.
// Writes happen outside the hub lock so Register and Unregister never wait on a slow socket.
func (h *ProgressHub) Publish(event models.ProgressEvent) {
	h.mu.RLock()
	targets := make([]*ProgressClient, 0, 1)
	for client := range h.clients {
		if client.UserEmail == event.UserEmail {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range targets {
		if err := client.SafeWriteJSON(event); err != nil {
			log.WithError(err).WithField("client", client.ID).Warn("Error sending progress event")
			go h.Unregister(client)
			continue
		}
		delivered++
	}
	if delivered > 0 {
		log.Debugf("Sent %s event to %d client(s)", event.Type, delivered)
	}
}

// ClientCount returns the number of connected clients
func (h *ProgressHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
