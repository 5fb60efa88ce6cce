package middleware

import (
	"context"
	"net/http"
	"strings"

	"campus-openings/internal/apperr"
	"campus-openings/internal/auth"
	"campus-openings/internal/models"
	"campus-openings/internal/response"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AccessTokenCookie and RefreshTokenCookie name the session cookies.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

type contextKey string

const userKey contextKey = "user"

type UserFinder interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
}

// Authenticate resolves the access token from the accessToken cookie or the
// Authorization header and puts the user into the request context.
func Authenticate(tokens *auth.TokenService, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r)
			if token == "" {
				response.Error(w, r, apperr.Unauthorized("unauthorized request"))
				return
			}

			claims, err := tokens.ParseAccessToken(token)
			if err != nil {
				response.Error(w, r, err)
				return
			}
			id, err := bson.ObjectIDFromHex(claims.UserID)
			if err != nil {
				response.Error(w, r, apperr.InvalidToken("invalid access token", err))
				return
			}

			user, err := users.FindByID(r.Context(), id)
			if err != nil {
				response.Error(w, r, err)
				return
			}
			if user == nil {
				response.Error(w, r, apperr.Unauthorized("invalid access token"))
				return
			}
			user.Password = ""
			user.RefreshToken = ""

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func accessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser returns the authenticated user, or nil outside Authenticate.
func CurrentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
