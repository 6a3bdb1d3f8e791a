package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/website/internal/auth"
	"github.com/avolkov/website/internal/cookie"
	"github.com/avolkov/website/internal/magiclink"
	"github.com/avolkov/website/internal/model"
	"github.com/avolkov/website/internal/repository"
	"github.com/avolkov/website/internal/session"
)

const (
	testSecret      = "test-secret-key-32-characters!!!"
	testMagicSecret = "magic-link-secret-32-characters!"
)

// mockUserRepo implements repository.UserRepository for testing.
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// mockSessionRepo implements repository.SessionRepository for testing.
type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, userID uuid.UUID) (*model.SessionRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionRecord), args.Error(1)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type fixture struct {
	svc     *auth.Service
	store   *session.Store
	users   *mockUserRepo
	records *mockSessionRepo
	codec   *magiclink.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cm, err := cookie.New([]string{testSecret})
	require.NoError(t, err)
	store := session.NewStore(cm, session.Config{CookieName: "__session", TTL: time.Hour})

	codec, err := magiclink.NewCodec(testMagicSecret, 15*time.Minute)
	require.NoError(t, err)

	users := &mockUserRepo{}
	records := &mockSessionRepo{}

	return &fixture{
		svc:     auth.New(store, users, records, codec),
		store:   store,
		users:   users,
		records: records,
		codec:   codec,
	}
}

// requestWithSession builds a request whose session cookie carries the key.
func requestWithSession(t *testing.T, f *fixture, key, value string) *http.Request {
	t.Helper()

	sess := f.store.Open(httptest.NewRequest("GET", "/", nil))
	sess.Set(key, value)
	h, err := sess.Headers(nil)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Cookie", h.Values("Set-Cookie")[0])
	return r
}

func TestService_GetUser(t *testing.T) {
	t.Run("no cookie means no store lookup", func(t *testing.T) {
		f := newFixture(t)

		user := f.svc.GetUser(context.Background(), httptest.NewRequest("GET", "/", nil))
		assert.Nil(t, user)
		f.users.AssertNotCalled(t, "FindBySessionID", mock.Anything, mock.Anything)
	})

	t.Run("resolves user from session id", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.New()
		want := &model.User{ID: uuid.New(), Email: "me@example.com", Role: model.RoleUser}

		f.users.On("FindBySessionID", mock.Anything, sessionID).Return(want, nil)

		r := requestWithSession(t, f, auth.SessionKey, sessionID.String())
		user := f.svc.GetUser(context.Background(), r)
		require.NotNil(t, user)
		assert.Equal(t, want.ID, user.ID)
	})

	t.Run("lookup failure downgrades to nil", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.New()

		f.users.On("FindBySessionID", mock.Anything, sessionID).
			Return(nil, errors.New("store unreachable"))

		r := requestWithSession(t, f, auth.SessionKey, sessionID.String())
		assert.Nil(t, f.svc.GetUser(context.Background(), r))
	})

	t.Run("malformed session id downgrades to nil without lookup", func(t *testing.T) {
		f := newFixture(t)

		r := requestWithSession(t, f, auth.SessionKey, "not-a-uuid")
		assert.Nil(t, f.svc.GetUser(context.Background(), r))
		f.users.AssertNotCalled(t, "FindBySessionID", mock.Anything, mock.Anything)
	})
}

func TestService_SignIn(t *testing.T) {
	t.Run("sign-in is visible in the same session", func(t *testing.T) {
		f := newFixture(t)
		user := &model.User{ID: uuid.New(), Email: "me@example.com", Role: model.RoleUser}
		rec := &model.SessionRecord{ID: uuid.New(), UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}

		f.records.On("Create", mock.Anything, user.ID).Return(rec, nil)
		f.users.On("FindBySessionID", mock.Anything, rec.ID).Return(user, nil)

		sess := f.store.Open(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, f.svc.SignIn(context.Background(), sess, user))

		assert.Equal(t, rec.ID.String(), sess.Get(auth.SessionKey))

		// Resolving against the same in-memory session reflects the new id
		// before any network round trip.
		resolved := f.svc.UserFromSession(context.Background(), sess)
		require.NotNil(t, resolved)
		assert.Equal(t, user.ID, resolved.ID)
	})

	t.Run("record creation failure propagates and leaves session untouched", func(t *testing.T) {
		f := newFixture(t)
		user := &model.User{ID: uuid.New()}

		f.records.On("Create", mock.Anything, user.ID).Return(nil, errors.New("insert failed"))

		sess := f.store.Open(httptest.NewRequest("GET", "/", nil))
		require.Error(t, f.svc.SignIn(context.Background(), sess, user))

		_, changed := sess.Commit()
		assert.False(t, changed)
	})
}

func TestService_SignOut(t *testing.T) {
	t.Run("unsets key and deletes record", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.New()

		f.records.On("Delete", mock.Anything, sessionID).Return(nil)

		sess := f.store.Open(httptest.NewRequest("GET", "/", nil))
		sess.Set(auth.SessionKey, sessionID.String())

		done := f.svc.SignOut(context.Background(), sess)
		assert.Empty(t, sess.Get(auth.SessionKey))

		require.NoError(t, <-done)
		f.records.AssertCalled(t, "Delete", mock.Anything, sessionID)
	})

	t.Run("remote deletion failure is delivered but local sign-out succeeds", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.New()

		f.records.On("Delete", mock.Anything, sessionID).Return(errors.New("unreachable"))

		sess := f.store.Open(httptest.NewRequest("GET", "/", nil))
		sess.Set(auth.SessionKey, sessionID.String())

		done := f.svc.SignOut(context.Background(), sess)
		assert.Empty(t, sess.Get(auth.SessionKey))
		assert.Error(t, <-done)
	})

	t.Run("no session id is a no-op", func(t *testing.T) {
		f := newFixture(t)

		sess := f.store.Open(httptest.NewRequest("GET", "/", nil))
		done := f.svc.SignOut(context.Background(), sess)

		require.NoError(t, <-done)
		f.records.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestService_SessionFromMagicLink(t *testing.T) {
	linkRequest := func(t *testing.T, f *fixture, email string) *http.Request {
		t.Helper()
		token, err := f.codec.Issue(email)
		require.NoError(t, err)
		return httptest.NewRequest("GET", magiclink.LoginURL("https://example.com", token), nil)
	}

	t.Run("signs in the linked user", func(t *testing.T) {
		f := newFixture(t)
		user := &model.User{ID: uuid.New(), Email: "me@example.com", Role: model.RoleUser}
		rec := &model.SessionRecord{ID: uuid.New(), UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}

		f.users.On("FindByEmail", mock.Anything, "me@example.com").Return(user, nil)
		f.records.On("Create", mock.Anything, user.ID).Return(rec, nil)

		sess, got, err := f.svc.SessionFromMagicLink(context.Background(), linkRequest(t, f, "me@example.com"))
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, sess)
		assert.Equal(t, rec.ID.String(), sess.Get(auth.SessionKey))

		_, changed := sess.Commit()
		assert.True(t, changed)
	})

	t.Run("unknown email returns nil without error", func(t *testing.T) {
		f := newFixture(t)

		f.users.On("FindByEmail", mock.Anything, "ghost@example.com").
			Return(nil, repository.ErrNotFound)

		sess, user, err := f.svc.SessionFromMagicLink(context.Background(), linkRequest(t, f, "ghost@example.com"))
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.Nil(t, sess)
	})

	t.Run("invalid token propagates", func(t *testing.T) {
		f := newFixture(t)

		r := httptest.NewRequest("GET", "/auth/verify?token=garbage", nil)
		_, _, err := f.svc.SessionFromMagicLink(context.Background(), r)
		assert.ErrorIs(t, err, magiclink.ErrInvalidToken)
		f.users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})

	t.Run("expired token propagates", func(t *testing.T) {
		f := newFixture(t)

		expired, err := magiclink.NewCodec(testMagicSecret, -time.Minute)
		require.NoError(t, err)
		token, err := expired.Issue("me@example.com")
		require.NoError(t, err)

		r := httptest.NewRequest("GET", magiclink.LoginURL("https://example.com", token), nil)
		_, _, err = f.svc.SessionFromMagicLink(context.Background(), r)
		assert.ErrorIs(t, err, magiclink.ErrExpiredToken)
	})
}

func TestService_RequireUser(t *testing.T) {
	t.Run("invokes continuation with the user", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.New()
		user := &model.User{ID: uuid.New(), Email: "me@example.com", Role: model.RoleUser}

		f.users.On("FindBySessionID", mock.Anything, sessionID).Return(user, nil)

		var got *model.User
		handler := f.svc.RequireUser(func(w http.ResponseWriter, r *http.Request, u *model.User) {
			got = u
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		handler(w, requestWithSession(t, f, auth.SessionKey, sessionID.String()))

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, got)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("redirects to login and clears stale session id", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.New()

		f.users.On("FindBySessionID", mock.Anything, sessionID).
			Return(nil, repository.ErrNotFound)
		f.records.On("Delete", mock.Anything, sessionID).Return(nil).Maybe()

		handler := f.svc.RequireUser(func(w http.ResponseWriter, r *http.Request, u *model.User) {
			t.Fatal("continuation must not run")
		})

		w := httptest.NewRecorder()
		handler(w, requestWithSession(t, f, auth.SessionKey, sessionID.String()))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, auth.DefaultLoginPath, w.Header().Get("Location"))

		// The redirect carries a Set-Cookie that no longer holds the stale id.
		setCookie := w.Header().Get("Set-Cookie")
		require.NotEmpty(t, setCookie)
		assert.NotContains(t, setCookie, sessionID.String())
	})

	t.Run("redirects to login without cookie churn when session was empty", func(t *testing.T) {
		f := newFixture(t)

		handler := f.svc.RequireUser(func(w http.ResponseWriter, r *http.Request, u *model.User) {
			t.Fatal("continuation must not run")
		})

		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/admin", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Empty(t, w.Header().Get("Set-Cookie"))
	})
}

func TestService_RequireAdmin(t *testing.T) {
	t.Run("non-admin is redirected home without touching the session", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.New()
		user := &model.User{ID: uuid.New(), Email: "me@example.com", Role: model.RoleUser}

		f.users.On("FindBySessionID", mock.Anything, sessionID).Return(user, nil)

		handler := f.svc.RequireAdmin(func(w http.ResponseWriter, r *http.Request, u *model.User) {
			t.Fatal("continuation must not run")
		})

		w := httptest.NewRecorder()
		handler(w, requestWithSession(t, f, auth.SessionKey, sessionID.String()))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		assert.Empty(t, w.Header().Get("Set-Cookie"))
	})

	t.Run("admin passes through", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.New()
		admin := &model.User{ID: uuid.New(), Email: "admin@example.com", Role: model.RoleAdmin}

		f.users.On("FindBySessionID", mock.Anything, sessionID).Return(admin, nil)

		handler := f.svc.RequireAdmin(func(w http.ResponseWriter, r *http.Request, u *model.User) {
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		handler(w, requestWithSession(t, f, auth.SessionKey, sessionID.String()))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
