// Package realtime pushes change notifications to websocket clients.
//
// Notifications name the changed row and its scope but carry no data.
// Clients re-read through the API, so row-level security decides what they
// actually see.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// Notification is the message sent to clients
type Notification struct {
	Type           string     `json:"type"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	JobSiteID      *uuid.UUID `json:"job_site_id,omitempty"`
	ID             uuid.UUID  `json:"id"`
}

// Subscription is the scope a client was granted at connect time
type Subscription struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Admin          bool
	Sites          map[uuid.UUID]bool
	// JobSiteID narrows delivery to one site plus organization-wide events.
	JobSiteID *uuid.UUID
}

// Allows reports whether n falls inside the subscription
func (s *Subscription) Allows(n *Notification) bool {
	if n.OrganizationID != s.OrganizationID {
		return false
	}
	if n.JobSiteID == nil {
		return true
	}
	if s.JobSiteID != nil && *s.JobSiteID != *n.JobSiteID {
		return false
	}
	return s.Admin || s.Sites[*n.JobSiteID]
}

// Hub is the registry of connected clients
type Hub struct {
	clients map[*Client]struct{}
	mu      sync.RWMutex
	logger  *logger.Logger
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{clients: make(map[*Client]struct{}), logger: log}
}

// Add registers a client
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.logger.Debug().
		Str("user_id", c.sub.UserID.String()).
		Int("clients", len(h.clients)).
		Msg("realtime client connected")
}

// Remove unregisters a client and closes its queue
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.logger.Debug().
			Str("user_id", c.sub.UserID.String()).
			Int("clients", len(h.clients)).
			Msg("realtime client disconnected")
	}
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues n for every client allowed to see it and returns how
// many received it. A client whose queue is full is skipped.
func (h *Hub) Broadcast(n *Notification) int {
	data, err := json.Marshal(n)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal notification")
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for c := range h.clients {
		if !c.sub.Allows(n) {
			continue
		}
		select {
		case c.send <- data:
			sent++
		default:
			h.logger.Warn().Str("user_id", c.sub.UserID.String()).Msg("realtime client too slow, dropping notification")
		}
	}
	return sent
}
