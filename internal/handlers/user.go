package handlers

import (
	"net/http"

	"campus-openings/internal/response"
)

type UserHandler struct {
	accounts Accounts
	uploads  Uploads
}

func NewUserHandler(accounts Accounts, uploads Uploads) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		uploads:  uploads,
	}
}

// --- POST /user/uploadProfilePicture ---

func (h *UserHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)

	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var discard struct{}
	if err := bind(w, r, &discard, h.uploads); err != nil {
		response.Error(w, r, err)
		return
	}
	path, err := stageUpload(r, "profilePicture", h.uploads)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	updated, err := h.accounts.UploadProfilePicture(r.Context(), user.ID, path)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, updated, "Profile Picture uploaded successfully")
}

// --- POST /user/getUserOfSameCollege ---

func (h *UserHandler) GetUserOfSameCollege(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	users, err := h.accounts.SameCollegeUsers(r.Context(), user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, users, "Details fetched successfully")
}
