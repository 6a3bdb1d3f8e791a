package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avolkov/website/internal/auth"
	"github.com/avolkov/website/internal/clientid"
	"github.com/avolkov/website/internal/logger"
	"github.com/avolkov/website/internal/magiclink"
	"github.com/avolkov/website/internal/metrics"
	"github.com/avolkov/website/internal/model"
	"github.com/avolkov/website/internal/ranking"
	"github.com/avolkov/website/internal/repository"
)

// Handlers binds the auth subsystem and the page utilities to HTTP routes.
type Handlers struct {
	auth    *auth.Service
	clients *clientid.Resolver
	tracker *ranking.Tracker
	codec   *magiclink.Codec
	sender  magiclink.Sender
	users   repository.UserRepository
	baseURL string
	linkTTL time.Duration
	log     *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	authSvc *auth.Service,
	clients *clientid.Resolver,
	tracker *ranking.Tracker,
	codec *magiclink.Codec,
	sender magiclink.Sender,
	users repository.UserRepository,
	baseURL string,
	linkTTL time.Duration,
	log *slog.Logger,
) *Handlers {
	return &Handlers{
		auth:    authSvc,
		clients: clients,
		tracker: tracker,
		codec:   codec,
		sender:  sender,
		users:   users,
		baseURL: strings.TrimRight(baseURL, "/"),
		linkTTL: linkTTL,
		log:     log,
	}
}

func (h *Handlers) handleHome(w http.ResponseWriter, r *http.Request) {
	user := h.auth.GetUser(r.Context(), r)
	renderPage(w, http.StatusOK, homePage{User: user})
}

func (h *Handlers) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, http.StatusOK, loginPage{})
}

// emailRegex is a simple shape check; the magic link itself proves ownership.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// handleMagicLinkRequest accepts an email address and sends a sign-in link.
// It always renders the "sent" page, so the response never reveals whether an
// account exists.
func (h *Handlers) handleMagicLinkRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	if email == "" || !emailRegex.MatchString(email) {
		renderPage(w, http.StatusOK, linkSentPage{})
		return
	}

	ctx := r.Context()
	if _, err := h.users.FindByEmail(ctx, email); err != nil {
		h.log.InfoContext(ctx, "magic link requested for unknown email",
			logger.Component("server"), logger.Email(email))
		renderPage(w, http.StatusOK, linkSentPage{})
		return
	}

	token, err := h.codec.Issue(email)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to issue magic link",
			logger.Component("server"), logger.Error(err))
		renderPage(w, http.StatusOK, linkSentPage{})
		return
	}

	url := magiclink.LoginURL(h.baseURL, token)
	if err := h.sender.SendLoginLink(ctx, email, url, h.linkTTL); err != nil {
		h.log.ErrorContext(ctx, "failed to send magic link",
			logger.Component("server"), logger.Email(email), logger.Error(err))
	} else {
		metrics.MagicLinksIssuedTotal.Inc()
	}

	renderPage(w, http.StatusOK, linkSentPage{})
}

// handleMagicLinkVerify validates the emailed token and signs the user in.
// An invalid or expired link is the one failure shown to the user directly.
func (h *Handlers) handleMagicLinkVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, user, err := h.auth.SessionFromMagicLink(ctx, r)
	if err != nil {
		renderPage(w, http.StatusBadRequest, linkErrorPage{
			Message: "This sign-in link is invalid or has expired. Request a new one.",
		})
		return
	}
	if user == nil {
		renderPage(w, http.StatusOK, linkErrorPage{
			Message: "No account exists for this email address.",
		})
		return
	}

	if err := sess.Write(w); err != nil {
		h.log.ErrorContext(ctx, "failed to write session cookie",
			logger.Component("server"), logger.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := h.auth.Sessions().Open(r)
	h.auth.SignOut(ctx, sess)

	if err := sess.Write(w); err != nil {
		h.log.ErrorContext(ctx, "failed to write session cookie",
			logger.Component("server"), logger.Error(err))
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// handlePost serves a post page and records the read against the visitor's
// anonymous client identity.
func (h *Handlers) handlePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	cidSess, clientID := h.clients.Open(r)
	if err := cidSess.Write(w); err != nil {
		h.log.WarnContext(r.Context(), "failed to write client id cookie",
			logger.Component("server"), logger.Error(err))
	}

	h.tracker.Record(r.Context(), clientID, slug)

	renderPage(w, http.StatusOK, postPage{Slug: slug})
}

func (h *Handlers) handleRankings(w http.ResponseWriter, r *http.Request) {
	entries, err := h.tracker.Top(r.Context(), 10)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to fetch rankings",
			logger.Component("server"), logger.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []ranking.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		h.log.ErrorContext(r.Context(), "failed to encode rankings",
			logger.Component("server"), logger.Error(err))
	}
}

func (h *Handlers) handleAdmin(w http.ResponseWriter, r *http.Request, user *model.User) {
	entries, err := h.tracker.Top(r.Context(), 20)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to fetch rankings for admin",
			logger.Component("server"), logger.Error(err))
		entries = nil
	}

	renderPage(w, http.StatusOK, adminPage{User: user, Rankings: entries})
}

func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
