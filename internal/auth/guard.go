package auth

import (
	"net/http"

	"github.com/avolkov/website/internal/logger"
	"github.com/avolkov/website/internal/model"
)

// Continuation handles a request on behalf of a resolved user.
type Continuation func(w http.ResponseWriter, r *http.Request, user *model.User)

// RequireUser resolves the current user and either invokes next or redirects
// to the login page. The redirect clears any stale session-id key and carries
// the committed Set-Cookie header.
func (s *Service) RequireUser(next Continuation) http.HandlerFunc {
	return s.require(next, false)
}

// RequireAdmin is RequireUser with an administrator role check. A signed-in
// non-admin is redirected to the site root without touching the session:
// the login is preserved, only the page is denied.
func (s *Service) RequireAdmin(next Continuation) http.HandlerFunc {
	return s.require(next, true)
}

func (s *Service) require(next Continuation, admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sess := s.sessions.Open(r)
		user := s.UserFromSession(ctx, sess)

		if user == nil {
			// Clear any stale session id before sending the visitor to login.
			s.SignOut(ctx, sess)
			if err := sess.Write(w); err != nil {
				s.log.ErrorContext(ctx, "failed to write session cookie",
					logger.Component("auth"), logger.Error(err))
			}
			http.Redirect(w, r, s.loginPath, http.StatusFound)
			return
		}

		if admin && !user.IsAdmin() {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		next(w, r, user)
	}
}
