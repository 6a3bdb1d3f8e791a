// Package session implements a client-held session: a signed cookie carrying
// a small key/value mapping, decoded once per request.
//
// A session never fails to open. Missing cookies, bad signatures, and
// malformed payloads all yield an empty session, so callers treat "invalid"
// and "absent" identically. A Set-Cookie header is produced only when the
// committed form differs from the form captured at open time, avoiding cookie
// churn on responses that never touched the session.
package session

import (
	"encoding/json"
	"maps"
	"net/http"
	"time"

	"github.com/avolkov/website/internal/cookie"
)

// Config holds session store configuration. Secrets live in the cookie
// manager; the store itself is constructed explicitly at process start.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"__session"`
	// TTL is the session cookie lifetime.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`
}

// Store opens sessions from incoming requests and serializes them back into
// signed cookies.
type Store struct {
	cookies *cookie.Manager
	name    string
	ttl     time.Duration
}

// NewStore creates a session store over the given cookie manager.
func NewStore(cookies *cookie.Manager, cfg Config) *Store {
	return &Store{
		cookies: cookies,
		name:    cfg.CookieName,
		ttl:     cfg.TTL,
	}
}

// Open decodes the request's session cookie into a mutable session.
// Invalid or missing cookies yield an empty session, never an error.
func (s *Store) Open(r *http.Request) *Session {
	values := make(map[string]string)
	if raw, err := s.cookies.GetSigned(r, s.name); err == nil {
		if err := json.Unmarshal([]byte(raw), &values); err != nil || values == nil {
			values = make(map[string]string)
		}
	}

	sess := &Session{store: s, values: values}
	sess.opened = sess.serialize()
	return sess
}

// Session is one request's decoded session state.
type Session struct {
	store  *Store
	values map[string]string
	opened string
}

// Get returns the value stored under key, or "" when absent.
func (s *Session) Get(key string) string {
	return s.values[key]
}

// Has reports whether key is present.
func (s *Session) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Set stores a value under key.
func (s *Session) Set(key, value string) {
	s.values[key] = value
}

// Unset removes key from the session.
func (s *Session) Unset(key string) {
	delete(s.values, key)
}

// Values returns a copy of the session's current contents.
func (s *Session) Values() map[string]string {
	return maps.Clone(s.values)
}

// Commit re-serializes the session. It returns ok=false when the serialized
// form is byte-identical to the form captured at open time, meaning no
// Set-Cookie header is needed.
func (s *Session) Commit() (string, bool) {
	serialized := s.serialize()
	if serialized == s.opened {
		return "", false
	}
	return serialized, true
}

// Headers merges a Set-Cookie entry for the committed session into h.
// A nil h is allocated. When Commit reports no change, h is returned as is.
func (s *Session) Headers(h http.Header) (http.Header, error) {
	if h == nil {
		h = make(http.Header)
	}

	serialized, changed := s.Commit()
	if !changed {
		return h, nil
	}

	value, err := s.store.cookies.SetCookieHeader(s.store.name, serialized,
		cookie.WithMaxAge(int(s.store.ttl.Seconds())))
	if err != nil {
		return h, err
	}

	h.Add("Set-Cookie", value)
	return h, nil
}

// Write commits the session directly to a response writer.
// It is a no-op when the session was not mutated.
func (s *Session) Write(w http.ResponseWriter) error {
	serialized, changed := s.Commit()
	if !changed {
		return nil
	}
	return s.store.cookies.SetSigned(w, s.store.name, serialized,
		cookie.WithMaxAge(int(s.store.ttl.Seconds())))
}

// serialize produces the canonical form of the session. encoding/json sorts
// map keys, so equal contents always serialize identically.
func (s *Session) serialize() string {
	b, err := json.Marshal(s.values)
	if err != nil {
		return "{}"
	}
	return string(b)
}
