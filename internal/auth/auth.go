package auth

import (
	"context"
	"crypto/subtle"
	stderrors "errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hpungsan/murmur/internal/config"
	"github.com/hpungsan/murmur/internal/errors"
)

// DefaultTTL is how long a session stays valid when not configured.
const DefaultTTL = 24 * time.Hour

// Options configures an Authenticator.
type Options struct {
	// Password is the plain admin password. Ignored when PasswordHash is set.
	Password string

	// PasswordHash is a bcrypt hash of the admin password.
	PasswordHash string

	TTL time.Duration

	// FailureDelay is waited out before a wrong-password error is returned.
	FailureDelay time.Duration
}

// Authenticator checks the admin password and manages sessions.
type Authenticator struct {
	store        SessionStore
	password     string
	hash         []byte
	ttl          time.Duration
	failureDelay time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration)
}

// New returns an Authenticator over store.
func New(store SessionStore, opts Options) *Authenticator {
	a := &Authenticator{
		store:        store,
		password:     opts.Password,
		ttl:          opts.TTL,
		failureDelay: opts.FailureDelay,
		now:          time.Now,
		sleep:        sleepCtx,
	}
	if h := strings.TrimSpace(opts.PasswordHash); h != "" {
		a.hash = []byte(h)
	}
	if a.ttl <= 0 {
		a.ttl = DefaultTTL
	}
	return a
}

// NewFromConfig returns an Authenticator using the admin settings in cfg.
func NewFromConfig(store SessionStore, cfg *config.Config) *Authenticator {
	return New(store, Options{
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
		TTL:          time.Duration(cfg.SessionTTLHours) * time.Hour,
		FailureDelay: time.Duration(cfg.LoginFailureDelayMillis) * time.Millisecond,
	})
}

// TTL returns the lifetime of new sessions.
func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

// Login checks password and starts an admin session.
func (a *Authenticator) Login(ctx context.Context, password string) (*Session, error) {
	if password == "" {
		return nil, errors.NewInvalidRequest("Password is required")
	}
	if a.password == "" && a.hash == nil {
		return nil, errors.NewInternal(stderrors.New("admin password is not configured"))
	}
	if !a.check(password) {
		a.sleep(ctx, a.failureDelay)
		return nil, errors.NewUnauthorized("Invalid password")
	}

	now := a.now()
	id, err := newSessionID(now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	s := &Session{
		ID:        id,
		IsAdmin:   true,
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}
	if err := a.store.Save(ctx, *s); err != nil {
		return nil, wrapInternal(err)
	}
	return s, nil
}

// Logout ends a session. Unknown ids are ignored.
func (a *Authenticator) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return wrapInternal(a.store.Delete(ctx, sessionID))
}

// Resolve maps a session id to the caller's identity. Missing, unknown,
// and expired sessions resolve to an anonymous AuthContext.
func (a *Authenticator) Resolve(ctx context.Context, sessionID string) (AuthContext, error) {
	if sessionID == "" {
		return AuthContext{}, nil
	}
	s, err := a.store.Get(ctx, sessionID)
	if err != nil {
		return AuthContext{}, wrapInternal(err)
	}
	if s == nil {
		return AuthContext{}, nil
	}
	if s.Expired(a.now()) {
		_ = a.store.Delete(ctx, sessionID)
		return AuthContext{}, nil
	}
	return AuthContext{SessionID: s.ID, Admin: s.IsAdmin}, nil
}

// PurgeExpired deletes every expired session and returns how many went.
func (a *Authenticator) PurgeExpired(ctx context.Context) (int, error) {
	n, err := a.store.PurgeExpired(ctx, a.now())
	return n, wrapInternal(err)
}

// check compares in constant time (bcrypt is constant time by itself).
func (a *Authenticator) check(password string) bool {
	if a.hash != nil {
		return bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// wrapInternal passes MurmurErrors through and wraps everything else.
func wrapInternal(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.NewInternal(err)
}
