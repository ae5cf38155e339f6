package auth

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session is an authenticated admin session.
type Session struct {
	ID        string    `json:"id"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// AuthContext is the caller identity resolved for one request.
// The zero value is an anonymous caller.
type AuthContext struct {
	SessionID string
	Admin     bool
}

// Authenticated reports whether the request carries a valid admin session.
func (a AuthContext) Authenticated() bool {
	return a.SessionID != "" && a.Admin
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying ac.
func WithContext(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// FromContext returns the AuthContext stored in ctx, or an anonymous one.
func FromContext(ctx context.Context) AuthContext {
	ac, _ := ctx.Value(ctxKey{}).(AuthContext)
	return ac
}

func newSessionID(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
