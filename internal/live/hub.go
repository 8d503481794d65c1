package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pointdash/pointdash/internal/points"
)

// Hub tracks the open sessions of each user and fans collection updates out to
// them.
type Hub struct {
	mu         sync.RWMutex
	users      map[string]map[string]*Session // userID -> sessionID -> session
	register   chan *Session
	unregister chan *Session
	done       chan struct{}
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		users:      make(map[string]map[string]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run processes registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case s := <-h.register:
			h.add(s)
		case s := <-h.unregister:
			h.remove(s)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.done:
	}
}

func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	sessions, ok := h.users[s.UserID]
	if !ok {
		sessions = make(map[string]*Session)
		h.users[s.UserID] = sessions
	}
	sessions[s.ID] = s
	h.mu.Unlock()

	h.log.Info("session opened", "user", s.UserID, "session", s.ID)
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	sessions, ok := h.users[s.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(sessions, s.ID)
	if len(sessions) == 0 {
		delete(h.users, s.UserID)
	}
	h.mu.Unlock()

	h.log.Info("session closed", "user", s.UserID, "session", s.ID)
}

// Dispatch forwards u to every session of the user except the one that made
// the change. It never blocks, so it can be used as a points.Listener.
func (h *Hub) Dispatch(u points.Update) {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.users[u.UserID]))
	for id, s := range h.users[u.UserID] {
		if id != u.Origin {
			sessions = append(sessions, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.Notify(u)
	}
}

// Count returns the number of open sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, sessions := range h.users {
		n += len(sessions)
	}
	return n
}
