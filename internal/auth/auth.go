// Package auth resolves the signed-in user from the session cookie and
// implements magic-link sign-in, sign-out, and route guards.
//
// Failure policy: store and lookup errors are logged and downgraded to "no
// user" at the boundary of each resolver, so a failed lookup is
// indistinguishable from being signed out. Only magic-link token validation
// propagates an error, because an invalid or expired link needs a distinct
// user-facing message.
package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/avolkov/website/internal/logger"
	"github.com/avolkov/website/internal/magiclink"
	"github.com/avolkov/website/internal/metrics"
	"github.com/avolkov/website/internal/model"
	"github.com/avolkov/website/internal/repository"
	"github.com/avolkov/website/internal/session"
)

// SessionKey is the reserved session key holding the session-record id.
const SessionKey = "sessionId"

// DefaultLoginPath is where unauthenticated requests are redirected.
const DefaultLoginPath = "/login"

// Service wires the session store, the backing repositories, and the
// magic-link codec into the request-scoped auth workflow.
type Service struct {
	sessions  *session.Store
	users     repository.UserRepository
	records   repository.SessionRepository
	codec     *magiclink.Codec
	loginPath string
	log       *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLoginPath overrides the login redirect target.
func WithLoginPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.loginPath = path
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates the auth service.
func New(
	sessions *session.Store,
	users repository.UserRepository,
	records repository.SessionRepository,
	codec *magiclink.Codec,
	opts ...Option,
) *Service {
	s := &Service{
		sessions:  sessions,
		users:     users,
		records:   records,
		codec:     codec,
		loginPath: DefaultLoginPath,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sessions returns the underlying session store, for handlers that need to
// open and commit the session themselves.
func (s *Service) Sessions() *session.Store {
	return s.sessions
}

// GetUser resolves the authenticated user from the request's session cookie.
// When the session carries no session-id key the store is never contacted.
// Any lookup failure yields nil.
func (s *Service) GetUser(ctx context.Context, r *http.Request) *model.User {
	return s.UserFromSession(ctx, s.sessions.Open(r))
}

// UserFromSession resolves the user from an already opened session.
func (s *Service) UserFromSession(ctx context.Context, sess *session.Session) *model.User {
	id := sess.Get(SessionKey)
	if id == "" {
		return nil
	}

	sessionID, err := uuid.Parse(id)
	if err != nil {
		s.log.WarnContext(ctx, "malformed session id in cookie", logger.Component("auth"))
		return nil
	}

	user, err := s.users.FindBySessionID(ctx, sessionID)
	if err != nil {
		metrics.UserLookupErrorsTotal.Inc()
		s.log.WarnContext(ctx, "session lookup failed",
			logger.Component("auth"),
			logger.SessionID(id),
			logger.Error(err),
		)
		return nil
	}

	return user
}

// SignIn creates a session record for the user and stores its id in the
// session. The caller commits the session into response headers separately.
func (s *Service) SignIn(ctx context.Context, sess *session.Session, user *model.User) error {
	rec, err := s.records.Create(ctx, user.ID)
	if err != nil {
		return err
	}

	sess.Set(SessionKey, rec.ID.String())
	metrics.SignInsTotal.Inc()
	s.log.InfoContext(ctx, "user signed in",
		logger.Component("auth"),
		logger.UserID(user.ID.String()),
		logger.SessionID(rec.ID.String()),
	)
	return nil
}

// SignOut unsets the session-id key and requests deletion of the backing
// session record as an asynchronous task. Local sign-out always succeeds once
// the key is unset; the returned channel delivers the remote deletion result
// for callers that want to await it, and is closed when the task finishes.
func (s *Service) SignOut(ctx context.Context, sess *session.Session) <-chan error {
	done := make(chan error, 1)

	id := sess.Get(SessionKey)
	if id == "" {
		close(done)
		return done
	}

	sess.Unset(SessionKey)
	metrics.SignOutsTotal.Inc()

	sessionID, err := uuid.Parse(id)
	if err != nil {
		close(done)
		return done
	}

	// Remote cleanup is detached from the request: the request context may
	// be canceled as soon as the response is written.
	go func() {
		defer close(done)
		if err := s.records.Delete(context.WithoutCancel(ctx), sessionID); err != nil {
			s.log.WarnContext(ctx, "session record deletion failed",
				logger.Component("auth"),
				logger.SessionID(id),
				logger.Error(err),
			)
			done <- err
		}
	}()

	return done
}

// SessionFromMagicLink validates the signed token in the request URL, looks
// up the user it identifies, and returns a freshly signed-in session.
//
// Token validation failures propagate: the caller renders a distinct
// "invalid link" message. An unknown email returns (nil, nil, nil) so the
// caller can present "no account" feedback without leaking an error.
func (s *Service) SessionFromMagicLink(ctx context.Context, r *http.Request) (*session.Session, *model.User, error) {
	email, err := s.codec.Verify(magiclink.TokenFromRequestURL(r.URL))
	if err != nil {
		metrics.MagicLinkFailuresTotal.Inc()
		return nil, nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.log.WarnContext(ctx, "magic link for unknown email",
			logger.Component("auth"),
			logger.Email(email),
			logger.Error(err),
		)
		return nil, nil, nil
	}

	sess := s.sessions.Open(r)
	if err := s.SignIn(ctx, sess, user); err != nil {
		return nil, nil, err
	}

	return sess, user, nil
}
