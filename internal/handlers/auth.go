package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"campus-openings/internal/apperr"
	"campus-openings/internal/auth"
	"campus-openings/internal/middleware"
	"campus-openings/internal/models"
	"campus-openings/internal/repository"
	"campus-openings/internal/response"
	"campus-openings/internal/service"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Accounts is the credential lifecycle the auth and user handlers call.
type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	Logout(ctx context.Context, userID bson.ObjectID) error
	Verify(ctx context.Context, idHex string) (repository.UpdateResult, error)
	Refresh(ctx context.Context, presented string) (*auth.TokenPair, error)
	UserExists(ctx context.Context, email string) (bool, error)
	ChangePassword(ctx context.Context, userID bson.ObjectID, in service.ChangePasswordInput) error
	UploadProfilePicture(ctx context.Context, userID bson.ObjectID, path string) (*models.User, error)
	SameCollegeUsers(ctx context.Context, requester *models.User) ([]models.User, error)
}

// Cookies controls how session cookies are written.
type Cookies struct {
	Secure     bool
	SameSite   http.SameSite
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ParseSameSite maps "strict", "none" and "lax" to the cookie mode. Anything
// else is lax.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (c Cookies) set(w http.ResponseWriter, pair auth.TokenPair) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, pair.AccessToken, c.AccessTTL))
	http.SetCookie(w, c.cookie(middleware.RefreshTokenCookie, pair.RefreshToken, c.RefreshTTL))
}

func (c Cookies) clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, "", -1))
	http.SetCookie(w, c.cookie(middleware.RefreshTokenCookie, "", -1))
}

func (c Cookies) cookie(name, value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
	switch {
	case ttl < 0:
		cookie.MaxAge = -1
	case ttl > 0:
		cookie.MaxAge = int(ttl.Seconds())
	}
	return cookie
}

type AuthHandler struct {
	accounts Accounts
	cookies  Cookies
	uploads  Uploads
}

func NewAuthHandler(accounts Accounts, cookies Cookies, uploads Uploads) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		cookies:  cookies,
		uploads:  uploads,
	}
}

// --- POST /user/register ---

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)

	var in service.RegisterInput
	if err := bind(w, r, &in, h.uploads); err != nil {
		response.Error(w, r, err)
		return
	}
	path, err := stageUpload(r, "profilePicture", h.uploads)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	in.PicturePath = path

	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, user, "User registered successfully")
}

// --- GET /user/verify?id= ---

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	res, err := h.accounts.Verify(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res, "User Verified Successfully")
}

// --- POST /user/login ---

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := bind(w, r, &in, h.uploads); err != nil {
		response.Error(w, r, err)
		return
	}

	res, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	h.cookies.set(w, auth.TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken})
	response.JSON(w, http.StatusOK, res, "User logged in successfully")
}

// --- POST /user/logout ---

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Logout(r.Context(), user.ID); err != nil {
		response.Error(w, r, err)
		return
	}

	h.cookies.clear(w)
	response.JSON(w, http.StatusOK, struct{}{}, "User logout Successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// --- POST /user/refreshToken ---

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var presented string
	if c, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
		presented = c.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := bind(w, r, &req, h.uploads); err != nil {
			response.Error(w, r, err)
			return
		}
		presented = strings.TrimSpace(req.RefreshToken)
	}

	pair, err := h.accounts.Refresh(r.Context(), presented)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	h.cookies.set(w, *pair)
	response.JSON(w, http.StatusOK, pair, "Access token refreshed")
}

type userExistRequest struct {
	Email string `json:"email"`
}

// --- POST /user/userExist ---

func (h *AuthHandler) UserExist(w http.ResponseWriter, r *http.Request) {
	var req userExistRequest
	if err := bind(w, r, &req, h.uploads); err != nil {
		response.Error(w, r, err)
		return
	}

	exists, err := h.accounts.UserExists(r.Context(), req.Email)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"exists": exists}, "User lookup completed")
}

// --- POST /user/changePassword ---

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in service.ChangePasswordInput
	if err := bind(w, r, &in, h.uploads); err != nil {
		response.Error(w, r, err)
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), user.ID, in); err != nil {
		response.Error(w, r, err)
		return
	}

	h.cookies.clear(w)
	response.JSON(w, http.StatusOK, struct{}{}, "Password changed successfully")
}

// requireUser returns the authenticated user or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		response.Error(w, r, apperr.Unauthorized("unauthorized request"))
		return nil, false
	}
	return user, true
}
