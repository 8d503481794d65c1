package live

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/pointdash/pointdash/internal/engine"
	"github.com/pointdash/pointdash/internal/metrics"
	"github.com/pointdash/pointdash/internal/points"
	"github.com/pointdash/pointdash/internal/typeid"
)

type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// Playground serves anonymous visitors from memory. Each connection gets its
// own sample collection, discarded when it closes.
type Playground struct {
	store   *points.MemoryStore
	service *points.Service
}

func NewPlayground(historyLimit int, log *slog.Logger) *Playground {
	store := points.NewMemoryStore()
	return &Playground{
		store: store,
		service: points.NewService(store,
			points.WithSampleData(),
			points.WithHistoryLimit(historyLimit),
			points.WithLogger(log),
		),
	}
}

func (p *Playground) forget(userID string) {
	p.service.Evict(userID)
	p.store.Forget(userID)
}

type Handler struct {
	hub        *Hub
	auth       TokenValidator
	backend    Backend
	playground *Playground
	opts       engine.Options
	origins    []string
	metrics    *metrics.Metrics
	log        *slog.Logger
}

type HandlerConfig struct {
	Hub            *Hub
	Auth           TokenValidator
	Backend        Backend
	Playground     *Playground
	Options        engine.Options
	OriginPatterns []string
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		hub:        cfg.Hub,
		auth:       cfg.Auth,
		backend:    cfg.Backend,
		playground: cfg.Playground,
		opts:       cfg.Options,
		origins:    cfg.OriginPatterns,
		metrics:    cfg.Metrics,
		log:        cfg.Logger,
	}
}

// ServeGraph upgrades an authenticated request to a live graph session. The
// token is taken from the query string since browsers cannot set headers on a
// websocket handshake.
func (h *Handler) ServeGraph(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := h.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	h.serve(w, r, userID, h.backend, nil)
}

// ServePlayground upgrades an anonymous request to a session over a throwaway
// sample collection.
func (h *Handler) ServePlayground(w http.ResponseWriter, r *http.Request) {
	if h.playground == nil {
		http.NotFound(w, r)
		return
	}
	userID := typeid.NewAnonID()
	h.serve(w, r, userID, h.playground.service, h.playground.forget)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, userID string, backend Backend, cleanup func(string)) {
	// The server's read and write timeouts would otherwise carry over to the
	// hijacked connection.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.log.Error("websocket accept", "error", err)
		return
	}

	session := NewSession(SessionConfig{
		ID:       typeid.NewSessionID(),
		UserID:   userID,
		ClientID: uuid.New().String(),
		Backend:  backend,
		Options:  h.opts,
		Metrics:  h.metrics,
		Logger:   h.log,
	})
	client := NewClient(conn, session, h.log)
	session.send = client.Send

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.hub.Register(session)
	h.metrics.SessionOpened()

	go client.WritePump(ctx)
	go func() {
		if err := session.Run(ctx); err != nil {
			h.log.Warn("session ended", "session", session.ID, "error", err)
			conn.Close(websocket.StatusInternalError, "session failed")
		}
		cancel()
	}()
	client.ReadPump(ctx)

	cancel()
	<-session.done
	h.hub.Unregister(session)
	h.metrics.SessionClosed()
	if cleanup != nil {
		cleanup(userID)
	}
}
