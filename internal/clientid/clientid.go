// Package clientid resolves a long-lived anonymous client identifier, stored
// in its own signed cookie independent of the authentication session.
//
// Unlike the auth session, which may legitimately be empty, an identifier is
// guaranteed present immediately after Open returns: when the cookie is
// missing or invalid a fresh identifier is generated and set, so the first
// response carries it and every later request reuses it. The identifier
// survives sign-out and is unrelated to login state.
package clientid

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/website/internal/cookie"
	"github.com/avolkov/website/internal/session"
)

// Key is the single reserved key inside the client-identity cookie.
const Key = "clientId"

// Config holds client-identity cookie configuration.
type Config struct {
	// CookieName is the name of the identity cookie, distinct from the
	// auth session cookie.
	CookieName string `env:"CLIENT_ID_COOKIE_NAME" envDefault:"__client_id"`
	// TTL is effectively non-expiring for practical purposes.
	TTL time.Duration `env:"CLIENT_ID_TTL" envDefault:"87600h"`
}

// Resolver opens the identity cookie and guarantees an identifier.
type Resolver struct {
	store *session.Store
}

// NewResolver creates a client-identity resolver in its own cookie namespace.
func NewResolver(cookies *cookie.Manager, cfg Config) *Resolver {
	return &Resolver{
		store: session.NewStore(cookies, session.Config{
			CookieName: cfg.CookieName,
			TTL:        cfg.TTL,
		}),
	}
}

// Open returns the request's identity session and its client identifier.
// A missing identifier is generated and set before returning, so the caller
// only needs to commit the session into the response.
func (r *Resolver) Open(req *http.Request) (*session.Session, string) {
	sess := r.store.Open(req)

	id := sess.Get(Key)
	if id == "" {
		id = uuid.NewString()
		sess.Set(Key, id)
	}

	return sess, id
}
