package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser    = "user"
	PrefixPoint   = "pt"
	PrefixSession = "sess"
	PrefixOp      = "op"
	PrefixAnon    = "anon"
)

// New returns a fresh typeid string. The suffix is a UUIDv7, so ids carry a
// millisecond timestamp plus random bits and are never reused within a process.
func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string    { return New(PrefixUser) }
func NewPointID() string   { return New(PrefixPoint) }
func NewSessionID() string { return New(PrefixSession) }
func NewOpID() string      { return New(PrefixOp) }
func NewAnonID() string    { return New(PrefixAnon) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
