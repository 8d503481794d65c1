package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pointdash/pointdash/internal/dataset"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// Store persists users and their point collections. Each user owns exactly one
// ordered collection.
type Store interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)

	// LoadPoints returns the user's points in display order; a user with no
	// saved collection gets an empty slice.
	LoadPoints(ctx context.Context, userID string) ([]dataset.Point, error)
	// SavePoints atomically replaces the user's collection.
	SavePoints(ctx context.Context, userID string, points []dataset.Point) error

	Ping(ctx context.Context) error
	Close()
}

// Open picks a backend from the URL scheme: postgres:// and postgresql:// use
// pgx; sqlite://path, file: URIs and bare paths use SQLite.
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return OpenPostgres(ctx, url)
	case strings.HasPrefix(url, "sqlite://"):
		return OpenSQLite(strings.TrimPrefix(url, "sqlite://"))
	case url == "":
		return nil, fmt.Errorf("open store: empty database url")
	default:
		return OpenSQLite(url)
	}
}
