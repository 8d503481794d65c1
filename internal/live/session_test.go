package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointdash/pointdash/internal/dataset"
	"github.com/pointdash/pointdash/internal/engine"
	"github.com/pointdash/pointdash/internal/history"
	"github.com/pointdash/pointdash/internal/logging"
	"github.com/pointdash/pointdash/internal/points"
)

// outbox records everything a session sends.
type outbox struct {
	mu   sync.Mutex
	msgs []*Message
}

func (o *outbox) send(msg *Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
}

func (o *outbox) ofType(typ string) []*Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*Message
	for _, m := range o.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (o *outbox) lastPoints(t *testing.T) (PointsChangedPayload, *Message) {
	t.Helper()
	msgs := o.ofType(TypePointsChanged)
	require.NotEmpty(t, msgs)
	msg := msgs[len(msgs)-1]
	var p PointsChangedPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	return p, msg
}

type failingBackend struct {
	Backend
}

func (failingBackend) Apply(context.Context, string, history.Operation, string) (points.Update, error) {
	return points.Update{}, errors.New("disk full")
}

func seededService(t *testing.T) *points.Service {
	t.Helper()
	store := points.NewMemoryStore()
	require.NoError(t, store.SavePoints(context.Background(), "user_1", []dataset.Point{
		{ID: "lo", X: 0, Y: 0},
		{ID: "hi", X: 100, Y: 100},
	}))
	return points.NewService(store)
}

func testOptions() engine.Options {
	opts := engine.DefaultOptions()
	clock := time.Unix(1700000000, 0)
	opts.Clock = func() time.Time { return clock }
	n := 0
	opts.NewID = func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
	return opts
}

// startSession returns a started session with a 700×500 viewport. The plot
// area is 620×440 at offset (50,20) and the padded domain is [-5,105].
func startSession(t *testing.T, backend Backend) (*Session, *outbox) {
	t.Helper()
	out := &outbox{}
	s := NewSession(SessionConfig{
		ID:      "sess_1",
		UserID:  "user_1",
		Backend: backend,
		Options: testOptions(),
		Send:    out.send,
		Logger:  logging.NewNop(),
	})
	require.NoError(t, s.start(context.Background()))
	s.handle(message(t, TypeResize, ResizePayload{Width: 700, Height: 500}))
	return s, out
}

func message(t *testing.T, typ string, payload any) *Message {
	t.Helper()
	msg, err := newMessage(typ, payload)
	require.NoError(t, err)
	return msg
}

func mouse(x, y float64) engine.PointerEvent {
	return engine.PointerEvent{PointerID: 1, PointerType: engine.PointerMouse, X: x, Y: y}
}

func TestSessionWelcome(t *testing.T) {
	_, out := startSession(t, seededService(t))

	welcome := out.ofType(TypeWelcome)
	require.Len(t, welcome, 1)
	assert.Equal(t, "sess_1", welcome[0].SessionID)

	var p WelcomePayload
	require.NoError(t, json.Unmarshal(welcome[0].Payload, &p))
	assert.Equal(t, "user_1", p.UserID)
	assert.Len(t, p.Points, 2)
	assert.False(t, p.CanUndo)
	assert.False(t, p.CanRedo)
}

func TestSessionDragPersistsMove(t *testing.T) {
	svc := seededService(t)
	s, out := startSession(t, svc)

	// "hi" (100,100) sits at container (641.8, 40).
	s.handle(message(t, TypePointerDown, mouse(641.8, 40)))
	s.handle(message(t, TypePointerMove, mouse(500, 140)))
	s.handle(message(t, TypePointerMove, mouse(360, 240)))
	s.handle(message(t, TypePointerUp, mouse(360, 240)))

	pts, seq, err := svc.List(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
	hi, ok := dataset.Find(pts, "hi")
	require.True(t, ok)
	assert.InDelta(t, 50, hi.X, 1e-9)
	assert.InDelta(t, 50, hi.Y, 1e-9)

	p, msg := out.lastPoints(t)
	assert.Equal(t, string(history.OpMove), p.Kind)
	assert.Equal(t, "hi", p.PointID)
	assert.False(t, p.Live)
	assert.Equal(t, int64(1), msg.Seq)
	assert.Equal(t, "sess_1", p.Origin)
}

func TestSessionClickSelects(t *testing.T) {
	s, out := startSession(t, seededService(t))

	s.handle(message(t, TypePointerDown, mouse(641.8, 40)))
	s.handle(message(t, TypePointerUp, mouse(641.8, 40)))

	sel := out.ofType(TypeSelect)
	require.Len(t, sel, 1)
	var p SelectPayload
	require.NoError(t, json.Unmarshal(sel[0].Payload, &p))
	assert.Equal(t, "hi", p.Point.ID)
	assert.Empty(t, out.ofType(TypePointsChanged))
}

func TestSessionAddAndUndo(t *testing.T) {
	svc := seededService(t)
	s, out := startSession(t, svc)

	s.handle(message(t, TypeDoubleClick, mouse(360, 240)))

	pts, _, err := svc.List(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, pts, 3)
	assert.Equal(t, "new-1", pts[2].ID)

	p, _ := out.lastPoints(t)
	assert.Equal(t, string(history.OpAdd), p.Kind)
	assert.True(t, p.CanUndo)
	assert.False(t, p.CanRedo)

	s.handle(&Message{Type: TypeUndo})

	pts, _, err = svc.List(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Len(t, pts, 2)
	assert.Len(t, s.view.Points(), 2)

	p, _ = out.lastPoints(t)
	assert.Equal(t, string(history.OpDelete), p.Kind)
	assert.Equal(t, "new-1", p.PointID)
	assert.False(t, p.CanUndo)
	assert.True(t, p.CanRedo)
}

func TestSessionEditAndDelete(t *testing.T) {
	svc := seededService(t)
	s, _ := startSession(t, svc)

	s.handle(message(t, TypePointEdit, dataset.Point{ID: "lo", X: 7, Y: 8}))
	s.handle(message(t, TypePointDelete, PointDeletePayload{ID: "hi"}))

	pts, seq, err := svc.List(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, []dataset.Point{{ID: "lo", X: 7, Y: 8}}, pts)
	assert.Equal(t, int64(2), seq)
	assert.Equal(t, pts, s.view.Points())
}

func TestSessionErrors(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want string
	}{
		{"unknown type", &Message{Type: "bogus"}, "unknown message type"},
		{"missing payload", &Message{Type: TypeResize}, "missing payload"},
		{"invalid payload", &Message{Type: TypeWheel, Payload: json.RawMessage(`"x"`)}, "invalid payload"},
		{"nothing to undo", &Message{Type: TypeUndo}, "nothing to undo"},
		{"unknown point", &Message{Type: TypePointDelete, Payload: json.RawMessage(`{"id":"zz"}`)}, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := startSession(t, seededService(t))
			s.handle(tt.msg)

			errs := out.ofType(TypeError)
			require.Len(t, errs, 1)
			var p ErrorPayload
			require.NoError(t, json.Unmarshal(errs[0].Payload, &p))
			assert.Contains(t, p.Message, tt.want)
			assert.Equal(t, tt.msg.Type, p.Request)
		})
	}
}

func TestSessionFailedSaveResyncs(t *testing.T) {
	s, out := startSession(t, failingBackend{Backend: seededService(t)})

	s.handle(message(t, TypeDoubleClick, mouse(360, 240)))

	require.Len(t, out.ofType(TypeError), 1)
	p, _ := out.lastPoints(t)
	assert.Equal(t, KindResync, p.Kind)
	assert.Len(t, p.Points, 2)
	assert.Len(t, s.view.Points(), 2)
}

func TestSessionRemoteUpdates(t *testing.T) {
	s, out := startSession(t, seededService(t))

	moved := []dataset.Point{{ID: "lo", X: 1, Y: 1}}
	s.applyRemote(points.Update{UserID: "user_1", Points: moved, Seq: 3, Op: history.NewDelete("hi"), Origin: "sess_2"})
	assert.Equal(t, moved, s.view.Points())

	p, msg := out.lastPoints(t)
	assert.Equal(t, string(history.OpDelete), p.Kind)
	assert.Equal(t, int64(3), msg.Seq)

	before := len(out.ofType(TypePointsChanged))
	s.applyRemote(points.Update{UserID: "user_1", Points: nil, Seq: 4, Origin: "sess_1"})
	s.applyRemote(points.Update{UserID: "user_1", Points: nil, Seq: 2, Origin: "sess_2"})
	assert.Len(t, out.ofType(TypePointsChanged), before)
	assert.Equal(t, moved, s.view.Points())
}

func TestSessionNotifyKeepsLatest(t *testing.T) {
	s := NewSession(SessionConfig{ID: "sess_1", UserID: "user_1"})

	s.Notify(points.Update{Seq: 1})
	s.Notify(points.Update{Seq: 2})

	u := s.takeRemote()
	require.NotNil(t, u)
	assert.Equal(t, int64(2), u.Seq)
	assert.Nil(t, s.takeRemote())
}

func TestSessionFramesOnlyWhenDirty(t *testing.T) {
	s, out := startSession(t, seededService(t))

	s.tick()
	require.Len(t, out.ofType(TypeFrame), 1)
	s.tick()
	assert.Len(t, out.ofType(TypeFrame), 1)

	var f engine.Frame
	require.NoError(t, json.Unmarshal(out.ofType(TypeFrame)[0].Payload, &f))
	assert.Equal(t, engine.Viewport{Width: 700, Height: 500}, f.Viewport)
	assert.NotEmpty(t, f.Commands)

	s.handle(message(t, TypeWheel, engine.WheelEvent{X: 360, Y: 240, DeltaY: -100}))
	s.tick()
	assert.Len(t, out.ofType(TypeFrame), 2)
}

func TestSessionRun(t *testing.T) {
	out := &outbox{}
	s := NewSession(SessionConfig{
		ID:            "sess_1",
		UserID:        "user_1",
		Backend:       seededService(t),
		Options:       testOptions(),
		Send:          out.send,
		FrameInterval: time.Millisecond,
		Logger:        logging.NewNop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	require.NoError(t, s.Enqueue(ctx, message(t, TypeResize, ResizePayload{Width: 700, Height: 500})))
	require.Eventually(t, func() bool {
		return len(out.ofType(TypeFrame)) > 0
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-errc)
	assert.ErrorIs(t, s.Enqueue(context.Background(), &Message{Type: TypeUndo}), ErrSessionClosed)
}
