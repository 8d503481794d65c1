package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pointdash/pointdash/internal/dataset"
	"github.com/pointdash/pointdash/internal/engine"
	"github.com/pointdash/pointdash/internal/history"
	"github.com/pointdash/pointdash/internal/metrics"
	"github.com/pointdash/pointdash/internal/points"
)

const (
	DefaultFrameInterval = 16 * time.Millisecond
	inboxSize            = 256
)

var ErrSessionClosed = errors.New("session closed")

// Backend owns the user's point collection. *points.Service implements it.
type Backend interface {
	Snapshot(ctx context.Context, userID string) (points.Update, error)
	Apply(ctx context.Context, userID string, op history.Operation, origin string) (points.Update, error)
	Undo(ctx context.Context, userID, origin string) (points.Update, error)
	Redo(ctx context.Context, userID, origin string) (points.Update, error)
}

type SessionConfig struct {
	ID            string
	UserID        string
	ClientID      string
	Backend       Backend
	Options       engine.Options
	Send          func(*Message)
	FrameInterval time.Duration
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// Session is one live graph view. Run owns the engine View; every other method
// is safe to call from any goroutine.
type Session struct {
	ID       string
	UserID   string
	ClientID string

	backend  Backend
	opts     engine.Options
	send     func(*Message)
	interval time.Duration
	metrics  *metrics.Metrics
	log      *slog.Logger

	inbox chan *Message
	done  chan struct{}

	mu     sync.Mutex
	remote *points.Update
	wake   chan struct{}

	// Owned by the Run goroutine.
	ctx     context.Context
	view    *engine.View
	seq     int64
	canUndo bool
	canRedo bool
	resync  bool
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Send == nil {
		cfg.Send = func(*Message) {}
	}
	return &Session{
		ID:       cfg.ID,
		UserID:   cfg.UserID,
		ClientID: cfg.ClientID,
		backend:  cfg.Backend,
		opts:     cfg.Options,
		send:     cfg.Send,
		interval: cfg.FrameInterval,
		metrics:  cfg.Metrics,
		log:      cfg.Logger.With("session", cfg.ID, "user", cfg.UserID),
		inbox:    make(chan *Message, inboxSize),
		done:     make(chan struct{}),
		wake:     make(chan struct{}, 1),
	}
}

// Run loads the user's points, sends the welcome message and then processes
// client messages, remote updates and frame ticks until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	if err := s.start(ctx); err != nil {
		s.sendError("", "failed to load points")
		return err
	}
	defer s.view.Close()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-s.inbox:
			s.handle(msg)
		case <-s.wake:
			if u := s.takeRemote(); u != nil {
				s.applyRemote(*u)
			}
		case <-ticker.C:
			s.tick()
		}
	}
}

// Enqueue hands a client message to the session loop in arrival order.
func (s *Session) Enqueue(ctx context.Context, msg *Message) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.inbox <- msg:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notify delivers a collection update made elsewhere. Only the latest pending
// update is kept; each carries the full collection.
func (s *Session) Notify(u points.Update) {
	s.mu.Lock()
	s.remote = &u
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) takeRemote() *points.Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.remote
	s.remote = nil
	return u
}

func (s *Session) start(ctx context.Context) error {
	s.ctx = ctx
	snap, err := s.backend.Snapshot(ctx, s.UserID)
	if err != nil {
		return fmt.Errorf("list points: %w", err)
	}
	s.track(snap)

	opts := s.opts
	opts.Logger = s.log
	s.view = engine.NewView(opts, engine.Callbacks{
		PointsChanged: s.onPointsChanged,
		Hover:         s.onHover,
		Select:        s.onSelect,
	})
	s.view.SetPoints(snap.Points)

	s.emit(TypeWelcome, WelcomePayload{
		SessionID: s.ID,
		UserID:    s.UserID,
		ClientID:  s.ClientID,
		Points:    snap.Points,
		Seq:       snap.Seq,
		CanUndo:   snap.CanUndo,
		CanRedo:   snap.CanRedo,
	})
	return nil
}

func (s *Session) tick() {
	if s.view.Tick() {
		s.emit(TypeFrame, s.view.Render())
		s.metrics.FrameSent()
	}
}

func (s *Session) handle(msg *Message) {
	s.metrics.LiveEvent(msg.Type)

	if err := s.dispatch(msg); err != nil {
		s.log.Debug("message rejected", "type", msg.Type, "error", err)
		s.sendError(msg.Type, err.Error())
	}
	if s.resync {
		s.resync = false
		s.reload()
	}
}

func (s *Session) dispatch(msg *Message) error {
	v := s.view
	switch msg.Type {
	case TypeResize:
		var p ResizePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		v.SetViewport(p.Width, p.Height)

	case TypeHighlight:
		var p HighlightPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		v.SetHighlighted(p.ID)

	case TypeViewOptions:
		var p ViewOptionsPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if p.ScaleMode != nil {
			v.SetScaleMode(*p.ScaleMode)
		}
		if p.ZoomExtent != nil {
			v.SetZoomExtent(*p.ZoomExtent)
		}
		if p.DomainPaddingPercent != nil {
			v.SetDomainPadding(*p.DomainPaddingPercent)
		}
		if p.ResetZoom {
			v.ResetZoom()
		}

	case TypePointerDown, TypePointerMove, TypePointerUp, TypePointerCancel, TypePointerLeave, TypeDoubleClick:
		var e engine.PointerEvent
		if err := decode(msg, &e); err != nil {
			return err
		}
		switch msg.Type {
		case TypePointerDown:
			v.PointerDown(e)
		case TypePointerMove:
			v.PointerMove(e)
		case TypePointerUp:
			v.PointerUp(e)
		case TypePointerCancel:
			v.PointerCancel(e)
		case TypePointerLeave:
			v.PointerLeave(e)
		case TypeDoubleClick:
			v.DoubleClick(e)
		}

	case TypeWheel:
		var e engine.WheelEvent
		if err := decode(msg, &e); err != nil {
			return err
		}
		v.Wheel(e)

	case TypeUndo:
		return s.commit(s.backend.Undo(s.ctx, s.UserID, s.ID))

	case TypeRedo:
		return s.commit(s.backend.Redo(s.ctx, s.UserID, s.ID))

	case TypePointEdit:
		var p dataset.Point
		if err := decode(msg, &p); err != nil {
			return err
		}
		return s.commit(s.backend.Apply(s.ctx, s.UserID, history.NewEdit(dataset.Sanitize(p)), s.ID))

	case TypePointDelete:
		var p PointDeletePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return s.commit(s.backend.Apply(s.ctx, s.UserID, history.NewDelete(p.ID), s.ID))

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// commit pushes a server-side change into the view and tells the client.
func (s *Session) commit(u points.Update, err error) error {
	if err != nil {
		return err
	}
	s.track(u)
	s.view.SetPoints(u.Points)
	s.sendPoints(u, string(u.Op.Type))
	return nil
}

// track records the sequence number and undo availability of u.
func (s *Session) track(u points.Update) {
	s.seq = u.Seq
	s.canUndo = u.CanUndo
	s.canRedo = u.CanRedo
}

func (s *Session) applyRemote(u points.Update) {
	if u.Origin == s.ID || u.Seq <= s.seq {
		return
	}
	s.track(u)
	s.view.SetPoints(u.Points)
	s.sendPoints(u, string(u.Op.Type))
}

// reload replaces the view's snapshot with the stored collection after a
// failed write left the optimistic copy ahead of the store.
func (s *Session) reload() {
	snap, err := s.backend.Snapshot(s.ctx, s.UserID)
	if err != nil {
		s.log.Error("resync points", "error", err)
		return
	}
	s.track(snap)
	s.view.SetPoints(snap.Points)
	s.sendPoints(snap, KindResync)
}

func (s *Session) onPointsChanged(pts []dataset.Point, change engine.Change) {
	s.metrics.PointChange(string(change.Kind))

	if change.Kind == engine.ChangeMove {
		msg, err := newMessage(TypePointsChanged, PointsChangedPayload{
			Kind:    KindMove,
			PointID: change.PointID,
			Points:  pts,
			Live:    true,
			CanUndo: s.canUndo,
			CanRedo: s.canRedo,
		})
		if err == nil {
			s.send(msg)
		}
		return
	}

	p, ok := dataset.Find(pts, change.PointID)
	if !ok {
		return
	}
	var op history.Operation
	switch change.Kind {
	case engine.ChangeAdd:
		op = history.NewAdd(p)
	case engine.ChangeCommit:
		op = history.NewMove(change.Before, p)
	default:
		return
	}

	u, err := s.backend.Apply(s.ctx, s.UserID, op, s.ID)
	if err != nil {
		s.log.Warn("persist point change", "kind", change.Kind, "point", change.PointID, "error", err)
		s.sendError(string(op.Type), "failed to save change")
		s.resync = true
		return
	}
	s.track(u)
	s.sendPoints(u, string(u.Op.Type))
}

func (s *Session) onHover(id string) {
	s.emit(TypeHover, HoverPayload{ID: id})
}

func (s *Session) onSelect(p dataset.Point) {
	s.emit(TypeSelect, SelectPayload{Point: p})
}

func (s *Session) sendPoints(u points.Update, kind string) {
	msg, err := newMessage(TypePointsChanged, PointsChangedPayload{
		Kind:    kind,
		PointID: u.Op.PointID,
		Points:  u.Points,
		Origin:  u.Origin,
		CanUndo: u.CanUndo,
		CanRedo: u.CanRedo,
	})
	if err != nil {
		s.log.Error("marshal points", "error", err)
		return
	}
	msg.Seq = u.Seq
	s.send(msg)
}

func (s *Session) sendError(request, message string) {
	msg, err := newMessage(TypeError, ErrorPayload{Message: message, Request: request})
	if err != nil {
		return
	}
	s.send(msg)
}

func (s *Session) emit(typ string, payload any) {
	msg, err := newMessage(typ, payload)
	if err != nil {
		s.log.Error("marshal message", "type", typ, "error", err)
		return
	}
	if typ == TypeWelcome {
		msg.SessionID = s.ID
		msg.Seq = s.seq
	}
	s.send(msg)
}

func decode(msg *Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", msg.Type, err)
	}
	return nil
}
