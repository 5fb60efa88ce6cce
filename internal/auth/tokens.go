// Package auth issues, rotates and verifies the access/refresh token pair.
//
// Each user has at most one live refresh token, stored on the user document.
// Rotation replaces it, so a superseded refresh token no longer matches and is
// rejected.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-openings/internal/apperr"
	"campus-openings/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Store is the slice of the credential store the token service needs.
type Store interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error
	// SwapRefreshToken replaces current with next only if current is still
	// the stored value. It reports whether the swap happened.
	SwapRefreshToken(ctx context.Context, id bson.ObjectID, current, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, id bson.ObjectID) error
}

type AccessClaims struct {
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type TokenService struct {
	store         Store
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(store Store, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		store:         store,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// IssueTokenPair signs a fresh pair for the user and stores the refresh token,
// overwriting whatever was there.
func (s *TokenService) IssueTokenPair(ctx context.Context, userID bson.ObjectID) (*TokenPair, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Server("something went wrong while generating access and refresh tokens", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user does not exist")
	}

	pair, err := s.sign(user)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, apperr.Server("something went wrong while generating access and refresh tokens", err)
	}
	return pair, nil
}

// RotateOnRefresh exchanges a valid, current refresh token for a new pair.
func (s *TokenService) RotateOnRefresh(ctx context.Context, presented string) (*TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return nil, apperr.Unauthorized("unauthorized access")
	}

	claims := &RefreshClaims{}
	if err := s.parse(presented, claims, s.refreshSecret); err != nil {
		return nil, apperr.InvalidToken("invalid refresh token", err)
	}
	userID, err := bson.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperr.InvalidToken("invalid refresh token", err)
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Server("something went wrong", err)
	}
	if user == nil {
		return nil, apperr.InvalidToken("invalid refresh token", nil)
	}
	if user.RefreshToken != presented {
		return nil, apperr.TokenMismatch("refresh token expired or used")
	}

	pair, err := s.sign(user)
	if err != nil {
		return nil, err
	}
	swapped, err := s.store.SwapRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if err != nil {
		return nil, apperr.Server("something went wrong while generating access and refresh tokens", err)
	}
	if !swapped {
		// Another request rotated the same token first.
		return nil, apperr.TokenMismatch("refresh token expired or used")
	}
	return pair, nil
}

// Revoke clears the stored refresh token.
func (s *TokenService) Revoke(ctx context.Context, userID bson.ObjectID) error {
	if err := s.store.ClearRefreshToken(ctx, userID); err != nil {
		return apperr.Server("failed to revoke session", err)
	}
	return nil
}

// ParseAccessToken verifies signature and expiry of an access token.
func (s *TokenService) ParseAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, claims, s.accessSecret); err != nil {
		return nil, apperr.InvalidToken("invalid access token", err)
	}
	return claims, nil
}

func (s *TokenService) sign(user *models.User) (*TokenPair, error) {
	now := s.now()
	id := user.ID.Hex()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		UserID:   id,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	})
	accessString, err := access.SignedString(s.accessSecret)
	if err != nil {
		return nil, apperr.Server("failed to sign access token", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		UserID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	})
	refreshString, err := refresh.SignedString(s.refreshSecret)
	if err != nil {
		return nil, apperr.Server("failed to sign refresh token", err)
	}

	return &TokenPair{AccessToken: accessString, RefreshToken: refreshString}, nil
}

func (s *TokenService) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("token is not valid")
	}
	return nil
}
