package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"campus-openings/internal/auth"
	"campus-openings/internal/models"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type userStore struct {
	mu    sync.Mutex
	users map[bson.ObjectID]*models.User
}

func (s *userStore) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) SetRefreshToken(_ context.Context, id bson.ObjectID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].RefreshToken = token
	return nil
}

func (s *userStore) SwapRefreshToken(_ context.Context, id bson.ObjectID, current, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[id].RefreshToken != current {
		return false, nil
	}
	s.users[id].RefreshToken = next
	return true, nil
}

func (s *userStore) ClearRefreshToken(_ context.Context, id bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].RefreshToken = ""
	return nil
}

func setup(t *testing.T) (*userStore, *auth.TokenService, *models.User, *auth.TokenPair) {
	t.Helper()
	user := &models.User{ID: bson.NewObjectID(), Email: "a@x.edu", FullName: "A", Password: "$2a$hash"}
	store := &userStore{users: map[bson.ObjectID]*models.User{user.ID: user}}
	tokens := auth.NewTokenService(store, "access", "refresh", time.Minute, time.Hour)
	pair, err := tokens.IssueTokenPair(context.Background(), user.ID)
	require.NoError(t, err)
	return store, tokens, user, pair
}

func protected(tokens *auth.TokenService, store UserFinder, seen **models.User) http.Handler {
	return Authenticate(tokens, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = CurrentUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthenticate_Cookie(t *testing.T) {
	store, tokens, user, pair := setup(t)
	var seen *models.User

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/logout", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: pair.AccessToken})
	rec := httptest.NewRecorder()
	protected(tokens, store, &seen).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)
	assert.Empty(t, seen.Password)
	assert.Empty(t, seen.RefreshToken)
	assert.Equal(t, pair.RefreshToken, store.users[user.ID].RefreshToken, "authentication must not mutate the store")
}

func TestAuthenticate_BearerHeader(t *testing.T) {
	store, tokens, user, pair := setup(t)
	var seen *models.User

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	protected(tokens, store, &seen).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, seen.ID)
}

func TestAuthenticate_Rejections(t *testing.T) {
	store, tokens, user, pair := setup(t)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		message string
	}{
		{"absent", func(r *http.Request) {}, "unauthorized request"},
		{"not bearer", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, "unauthorized request"},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, "invalid access token"},
		{"refresh token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+pair.RefreshToken) }, "invalid access token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *models.User
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			protected(tokens, store, &seen).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, seen)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, false, body["success"])
		})
	}

	t.Run("user deleted", func(t *testing.T) {
		delete(store.users, user.ID)
		var seen *models.User
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: pair.AccessToken})
		rec := httptest.NewRecorder()
		protected(tokens, store, &seen).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})
}

func TestCurrentUser_Outside(t *testing.T) {
	assert.Nil(t, CurrentUser(context.Background()))
	u := &models.User{ID: bson.NewObjectID()}
	assert.Same(t, u, CurrentUser(WithUser(context.Background(), u)))
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(3)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/user/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, send("10.0.0.1:1000"), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:2000"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000"))
}

func TestRateLimit_Disabled(t *testing.T) {
	handler := RateLimit(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLimiterStore_SweepsStaleEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newLimiterStore(5)
	store.now = func() time.Time { return now }

	store.limiter("a")
	now = now.Add(limiterTTL + time.Second)
	store.limiter("b")

	assert.Len(t, store.limiters, 1)
	assert.Contains(t, store.limiters, "b")
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var ctxLogger *zerolog.Logger
	handler := chimw.RequestID(RequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = zerolog.Ctx(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.NotNil(t, ctxLogger)
	assert.NotEqual(t, zerolog.Disabled, ctxLogger.GetLevel())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/health", line["path"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])
	assert.EqualValues(t, 5, line["bytes"])
	assert.NotEmpty(t, line["request_id"])
}
