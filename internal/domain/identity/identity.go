package identity

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// minPasswordLen is the only credential check this demo performs. There is no
// stored password and no hashing: any password of at least this length is
// accepted, mirroring the mock login of the original site.
const minPasswordLen = 8

var (
	// ErrWeakPassword is returned on registration with a too-short password.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrInvalidCredentials is returned on login with a malformed email or a
	// too-short password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired is returned when a token is unknown or past its TTL.
	ErrSessionExpired = errors.New("session expired")
)

// Session is the opaque authenticated-user context handed to the checkout
// core. The core only ever checks its presence, never its contents.
type Session struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Sessions stores active sessions keyed by token. Get must return
// ErrSessionExpired for unknown or expired tokens.
type Sessions interface {
	Put(ctx context.Context, s *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// Service issues and resolves mock-auth sessions.
type Service struct {
	sessions Sessions
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates a Service issuing sessions with the given TTL.
func NewService(sessions Sessions, ttl time.Duration) *Service {
	return &Service{
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Register creates an account and logs it in. Since the demo keeps no user
// records, registering and logging in are the same operation apart from the
// error reported for a weak password.
func (s *Service) Register(ctx context.Context, email, password string) (*Session, error) {
	if !validEmail(email) {
		return nil, ErrInvalidCredentials
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	return s.issue(ctx, email)
}

// Login authenticates the given credentials and issues a fresh session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if !validEmail(email) || len(password) < minPasswordLen {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, email)
}

// Resolve returns the session for the given token, or ErrSessionExpired.
func (s *Service) Resolve(ctx context.Context, token string) (*Session, error) {
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if s.now().After(sess.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Logout invalidates the session token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *Service) issue(ctx context.Context, email string) (*Session, error) {
	sess := &Session{
		Token: uuid.New().String(),
		// Derive a stable user id from the email so repeated logins by the
		// same "user" share an order history.
		UserID:    uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.ToLower(email))).String(),
		Email:     email,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "store session")
	}
	return sess, nil
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
