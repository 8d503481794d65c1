package points

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pointdash/pointdash/internal/dataset"
	"github.com/pointdash/pointdash/internal/history"
)

var ErrInvalidPoints = errors.New("invalid points")

// PointStore is the persistence the service needs.
type PointStore interface {
	LoadPoints(ctx context.Context, userID string) ([]dataset.Point, error)
	SavePoints(ctx context.Context, userID string, points []dataset.Point) error
}

// Update is published after every successful change to a user's collection.
// Origin identifies the caller that made the change ("" for REST).
type Update struct {
	UserID string
	Points []dataset.Point
	Seq    int64
	Op     history.Operation
	Origin string

	CanUndo bool
	CanRedo bool
}

// Listener receives updates synchronously; it must not block.
type Listener func(Update)

// Service owns the in-memory history for each user and writes every change
// through to the store.
type Service struct {
	store        PointStore
	historyLimit int
	seedSample   bool
	log          *slog.Logger

	mu        sync.Mutex
	users     map[string]*userState
	listeners []Listener
}

// userState serializes writers for one user. mu is held from the in-memory
// change until the save (or its rollback) and publication are done, so the
// store always receives snapshots in seq order.
type userState struct {
	mu sync.Mutex
	st *history.State
}

type Option func(*Service)

func WithHistoryLimit(n int) Option {
	return func(s *Service) { s.historyLimit = n }
}

// WithSampleData seeds users that have no saved points with the sample set.
func WithSampleData() Option {
	return func(s *Service) { s.seedSample = true }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(store PointStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		users:  make(map[string]*userState),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a listener for every future update.
func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// List returns the user's collection and its sequence number.
func (s *Service) List(ctx context.Context, userID string) ([]dataset.Point, int64, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return snap.Points, snap.Seq, nil
}

// Snapshot returns the user's current collection as an Update with no Op.
func (s *Service) Snapshot(ctx context.Context, userID string) (Update, error) {
	us, err := s.lock(ctx, userID)
	if err != nil {
		return Update{}, err
	}
	defer us.mu.Unlock()
	return Update{
		UserID:  userID,
		Points:  us.st.Points(),
		Seq:     us.st.Seq(),
		CanUndo: us.st.CanUndo(),
		CanRedo: us.st.CanRedo(),
	}, nil
}

// Apply applies op to the user's collection and persists the result. If the
// write fails the change is rolled back.
func (s *Service) Apply(ctx context.Context, userID string, op history.Operation, origin string) (Update, error) {
	us, err := s.lock(ctx, userID)
	if err != nil {
		return Update{}, err
	}
	defer us.mu.Unlock()

	done, seq, err := us.st.Apply(op)
	if err != nil {
		return Update{}, err
	}
	return s.persist(ctx, userID, us.st, done, seq, origin, us.st.Revert)
}

func (s *Service) Replace(ctx context.Context, userID string, points []dataset.Point, origin string) (Update, error) {
	if err := Validate(points); err != nil {
		return Update{}, err
	}
	return s.Apply(ctx, userID, history.NewReplace(points), origin)
}

func (s *Service) Add(ctx context.Context, userID string, p dataset.Point, origin string) (Update, error) {
	return s.Apply(ctx, userID, history.NewAdd(p), origin)
}

func (s *Service) Edit(ctx context.Context, userID string, p dataset.Point, origin string) (Update, error) {
	return s.Apply(ctx, userID, history.NewEdit(p), origin)
}

func (s *Service) Delete(ctx context.Context, userID, pointID, origin string) (Update, error) {
	return s.Apply(ctx, userID, history.NewDelete(pointID), origin)
}

func (s *Service) Undo(ctx context.Context, userID, origin string) (Update, error) {
	us, err := s.lock(ctx, userID)
	if err != nil {
		return Update{}, err
	}
	defer us.mu.Unlock()

	done, seq, err := us.st.Undo()
	if err != nil {
		return Update{}, err
	}
	return s.persist(ctx, userID, us.st, done, seq, origin, func() error {
		_, _, err := us.st.Redo()
		return err
	})
}

func (s *Service) Redo(ctx context.Context, userID, origin string) (Update, error) {
	us, err := s.lock(ctx, userID)
	if err != nil {
		return Update{}, err
	}
	defer us.mu.Unlock()

	done, seq, err := us.st.Redo()
	if err != nil {
		return Update{}, err
	}
	return s.persist(ctx, userID, us.st, done, seq, origin, func() error {
		_, _, err := us.st.Undo()
		return err
	})
}

// persist runs with the user's lock held, so rollback always undoes the
// change this caller just made.
func (s *Service) persist(ctx context.Context, userID string, st *history.State, op history.Operation, seq int64, origin string, rollback func() error) (Update, error) {
	points := st.Points()
	if err := s.store.SavePoints(ctx, userID, points); err != nil {
		if rbErr := rollback(); rbErr != nil {
			s.log.Error("rollback after failed save", "user", userID, "error", rbErr)
		}
		return Update{}, fmt.Errorf("save points: %w", err)
	}

	u := Update{
		UserID:  userID,
		Points:  points,
		Seq:     seq,
		Op:      op,
		Origin:  origin,
		CanUndo: st.CanUndo(),
		CanRedo: st.CanRedo(),
	}
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l(u)
	}
	return u, nil
}

// lock returns the user's state with its write lock held, loading it from the
// store on first use. The caller must unlock us.mu.
func (s *Service) lock(ctx context.Context, userID string) (*userState, error) {
	s.mu.Lock()
	us, ok := s.users[userID]
	if !ok {
		us = &userState{}
		s.users[userID] = us
	}
	s.mu.Unlock()

	us.mu.Lock()
	if us.st != nil {
		return us, nil
	}
	points, err := s.store.LoadPoints(ctx, userID)
	if err != nil {
		us.mu.Unlock()
		return nil, fmt.Errorf("load points: %w", err)
	}
	if len(points) == 0 && s.seedSample {
		points = dataset.NewSample()
		if err := s.store.SavePoints(ctx, userID, points); err != nil {
			us.mu.Unlock()
			return nil, fmt.Errorf("seed sample points: %w", err)
		}
	}
	us.st = history.NewState(points, s.historyLimit)
	return us, nil
}

// Validate rejects collections with empty or duplicate ids.
func Validate(points []dataset.Point) error {
	seen := make(map[string]struct{}, len(points))
	for i, p := range points {
		if p.ID == "" {
			return fmt.Errorf("%w: point %d has no id", ErrInvalidPoints, i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidPoints, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// Evict drops the cached history for a user. The next call reloads from the
// store.
func (s *Service) Evict(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}
