package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campus-openings/internal/apperr"
	"campus-openings/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type memStore struct {
	mu      sync.Mutex
	users   map[bson.ObjectID]*models.User
	findErr error
	setErr  error
}

func newMemStore(users ...*models.User) *memStore {
	s := &memStore{users: map[bson.ObjectID]*models.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) SetRefreshToken(_ context.Context, id bson.ObjectID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.users[id].RefreshToken = token
	return nil
}

func (s *memStore) SwapRefreshToken(_ context.Context, id bson.ObjectID, current, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	if u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = next
	return true, nil
}

func (s *memStore) ClearRefreshToken(_ context.Context, id bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.RefreshToken = ""
	}
	return nil
}

func (s *memStore) stored(id bson.ObjectID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].RefreshToken
}

func newTestService(store Store) *TokenService {
	return NewTokenService(store, "access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func testUser() *models.User {
	return &models.User{ID: bson.NewObjectID(), Email: "a@x.com", FullName: "Alice A"}
}

func TestIssueTokenPair_StoresRefreshAndEmbedsIdentity(t *testing.T) {
	u := testUser()
	store := newMemStore(u)
	svc := newTestService(store)

	pair, err := svc.IssueTokenPair(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, pair.RefreshToken, store.stored(u.ID))

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, u.FullName, claims.FullName)
}

func TestIssueTokenPair_OverwritesPreviousToken(t *testing.T) {
	u := testUser()
	u.RefreshToken = "old"
	store := newMemStore(u)
	svc := newTestService(store)

	first, err := svc.IssueTokenPair(context.Background(), u.ID)
	require.NoError(t, err)
	second, err := svc.IssueTokenPair(context.Background(), u.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken, "pairs issued in the same second must differ")
	assert.Equal(t, second.RefreshToken, store.stored(u.ID))
}

func TestIssueTokenPair_Errors(t *testing.T) {
	svc := newTestService(newMemStore())
	_, err := svc.IssueTokenPair(context.Background(), bson.NewObjectID())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	u := testUser()
	store := newMemStore(u)
	store.setErr = errors.New("write failed")
	_, err = newTestService(store).IssueTokenPair(context.Background(), u.ID)
	assert.True(t, apperr.Is(err, apperr.KindServer))
}

func TestRotateOnRefresh_Success(t *testing.T) {
	u := testUser()
	store := newMemStore(u)
	svc := newTestService(store)

	pair, err := svc.IssueTokenPair(context.Background(), u.ID)
	require.NoError(t, err)

	rotated, err := svc.RotateOnRefresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, rotated.RefreshToken, store.stored(u.ID))

	claims, err := svc.ParseAccessToken(rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
}

func TestRotateOnRefresh_SupersededTokenIsRejected(t *testing.T) {
	u := testUser()
	store := newMemStore(u)
	svc := newTestService(store)

	pair, err := svc.IssueTokenPair(context.Background(), u.ID)
	require.NoError(t, err)
	_, err = svc.RotateOnRefresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	_, err = svc.RotateOnRefresh(context.Background(), pair.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindTokenMismatch), "got %v", err)
}

func TestRotateOnRefresh_Failures(t *testing.T) {
	u := testUser()
	store := newMemStore(u)
	svc := newTestService(store)

	pair, err := svc.IssueTokenPair(context.Background(), u.ID)
	require.NoError(t, err)

	t.Run("absent", func(t *testing.T) {
		_, err := svc.RotateOnRefresh(context.Background(), "  ")
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.RotateOnRefresh(context.Background(), "not.a.jwt")
		assert.True(t, apperr.Is(err, apperr.KindInvalidToken))
	})

	t.Run("access token presented as refresh", func(t *testing.T) {
		_, err := svc.RotateOnRefresh(context.Background(), pair.AccessToken)
		assert.True(t, apperr.Is(err, apperr.KindInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenService(store, "access-secret", "refresh-secret", time.Minute, -time.Minute)
		stale, err := expired.IssueTokenPair(context.Background(), u.ID)
		require.NoError(t, err)
		_, err = svc.RotateOnRefresh(context.Background(), stale.RefreshToken)
		assert.True(t, apperr.Is(err, apperr.KindInvalidToken))
	})

	t.Run("unknown user", func(t *testing.T) {
		ghost := &models.User{ID: bson.NewObjectID()}
		other := newTestService(newMemStore(ghost))
		ghostPair, err := other.IssueTokenPair(context.Background(), ghost.ID)
		require.NoError(t, err)

		_, err = svc.RotateOnRefresh(context.Background(), ghostPair.RefreshToken)
		assert.True(t, apperr.Is(err, apperr.KindInvalidToken))
	})

	t.Run("revoked", func(t *testing.T) {
		fresh, err := svc.IssueTokenPair(context.Background(), u.ID)
		require.NoError(t, err)
		require.NoError(t, svc.Revoke(context.Background(), u.ID))

		_, err = svc.RotateOnRefresh(context.Background(), fresh.RefreshToken)
		assert.True(t, apperr.Is(err, apperr.KindTokenMismatch))
	})
}

func TestRotateOnRefresh_ConcurrentRotationHasOneWinner(t *testing.T) {
	u := testUser()
	store := newMemStore(u)
	svc := newTestService(store)

	pair, err := svc.IssueTokenPair(context.Background(), u.ID)
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RotateOnRefresh(context.Background(), pair.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, apperr.Is(err, apperr.KindTokenMismatch), "got %v", err)
	}
	assert.Equal(t, 1, wins)
}

func TestParseAccessToken_RejectsForeignTokens(t *testing.T) {
	svc := newTestService(newMemStore())

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		UserID: bson.NewObjectID().Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := other.SignedString([]byte("someone-else"))
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(signed)
	assert.True(t, apperr.Is(err, apperr.KindInvalidToken))

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{UserID: "x"})
	signed, err = noExp.SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(signed)
	assert.True(t, apperr.Is(err, apperr.KindInvalidToken), "tokens without exp are rejected")
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, ComparePassword(hash, "s3cret-pass"))
	assert.False(t, ComparePassword(hash, "wrong"))
	assert.False(t, ComparePassword("not-a-hash", "s3cret-pass"))

	hash, err = HashPassword("x", 99)
	require.NoError(t, err)
	assert.True(t, ComparePassword(hash, "x"))
}
