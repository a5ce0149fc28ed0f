package realtime

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	authhandler "github.com/crewboard/crewboard-backend/internal/auth/handler"
	"github.com/crewboard/crewboard-backend/internal/auth/jwt"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// AccessSource resolves a caller's visibility through the SQL helpers
type AccessSource interface {
	IsAdmin(ctx context.Context) (bool, error)
	VisibleSiteIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Handler upgrades authenticated requests to websocket subscriptions
type Handler struct {
	hub      *Hub
	tokens   *jwt.Manager
	access   AccessSource
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewHandler creates a realtime handler. An empty origin list accepts any
// origin.
func NewHandler(hub *Hub, tokens *jwt.Manager, access AccessSource, allowedOrigins []string, log *logger.Logger) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:    hub,
		tokens: tokens,
		access: access,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
		logger: log,
	}
}

// ServeHTTP authenticates with ?token= (browsers cannot set headers on a
// websocket handshake) or a bearer header, snapshots the caller's visible
// sites and starts streaming.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		var err error
		if raw, err = authhandler.BearerToken(r); err != nil {
			httputil.Error(w, r, err)
			return
		}
	}
	claims, err := h.tokens.ValidateAccessToken(raw)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	a, err := claims.Actor()
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	ctx := actor.WithActor(r.Context(), a)

	sub, err := h.subscription(ctx, a, r.URL.Query().Get("job_site_id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newClient(h.hub, conn, *sub)
	h.hub.Add(c)
	go c.writePump()
	go c.readPump()
}

func (h *Handler) subscription(ctx context.Context, a *actor.Actor, rawSite string) (*Subscription, error) {
	admin, err := h.access.IsAdmin(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := h.access.VisibleSiteIDs(ctx)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		UserID:         a.ID,
		OrganizationID: a.OrganizationID,
		Admin:          admin,
		Sites:          make(map[uuid.UUID]bool, len(ids)),
	}
	for _, id := range ids {
		sub.Sites[id] = true
	}

	if rawSite != "" {
		site, err := uuid.Parse(rawSite)
		if err != nil {
			return nil, errors.Validation(map[string]string{"job_site_id": "must be a valid UUID"})
		}
		if !admin && !sub.Sites[site] {
			return nil, errors.Forbidden("no access to this job site")
		}
		sub.JobSiteID = &site
	}
	return sub, nil
}
