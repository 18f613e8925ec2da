package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

// Registry binds live websocket clients to authenticated users and groups
// each user's clients into one broadcast group for multi-device fan-out.
// Entries are removed explicitly on disconnect.
type Registry struct {
	mu    sync.RWMutex
	users map[*Client]int
	rooms map[int]map[*Client]bool
	info  map[*Client]ConnInfo
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[*Client]int),
		rooms: make(map[int]map[*Client]bool),
		info:  make(map[*Client]ConnInfo),
	}
}

// Register binds a client to a user and joins the user's broadcast group.
// Re-registering the same client is idempotent; registering it for a
// different user moves it between groups.
func (r *Registry) Register(client *Client, userID int, info ConnInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.users[client]; ok {
		if current == userID {
			return
		}
		r.leaveRoom(current, client)
	}

	r.users[client] = userID
	if _, ok := r.rooms[userID]; !ok {
		r.rooms[userID] = make(map[*Client]bool)
	}
	r.rooms[userID][client] = true
	info.UserID = userID
	r.info[client] = info
}

// Unregister removes the binding; no-op if the client is unknown.
func (r *Registry) Unregister(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.users[client]
	if !ok {
		return
	}
	delete(r.users, client)
	delete(r.info, client)
	r.leaveRoom(userID, client)
}

// Resolve returns the user bound to the client, if any.
func (r *Registry) Resolve(client *Client) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.users[client]
	return userID, ok
}

// ConnectionCount reports how many live connections a user has.
func (r *Registry) ConnectionCount(userID int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[userID])
}

// SendToUser pushes one event to every connection of the user. Clients
// whose write fails are closed and evicted; a user with no connections is
// a no-op.
func (r *Registry) SendToUser(userID int, event models.ServerEvent) {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.rooms[userID]))
	for client := range r.rooms[userID] {
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal %s event: %v", event.Event, err)
		return
	}
	for _, client := range clients {
		if err := client.write(payload); err != nil {
			log.Printf("websocket write error: %v", err)
			client.Close()
			r.evict(client, err)
		}
	}
}

func (r *Registry) evict(client *Client, cause error) {
	r.mu.Lock()
	info, tracked := r.info[client]
	userID, bound := r.users[client]
	if bound {
		delete(r.users, client)
		delete(r.info, client)
		r.leaveRoom(userID, client)
	}
	r.mu.Unlock()

	if !tracked {
		return
	}
	observability.IncWSEvent("ws_error")
	_ = observability.PublishEvent(context.Background(), "ws_events.messaging", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload: observability.WSEventPayload{
			Event:      "ws_error",
			ConnID:     info.ConnID,
			UserID:     info.UserID,
			DeviceID:   info.DeviceID,
			IP:         info.IP,
			DurationMS: time.Since(info.ConnectedAt).Milliseconds(),
			Reason:     cause.Error(),
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

// leaveRoom is called with the write lock held.
func (r *Registry) leaveRoom(userID int, client *Client) {
	if conns, ok := r.rooms[userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(r.rooms, userID)
		}
	}
}
