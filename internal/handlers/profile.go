package handlers

import (
	"context"
	"net/http"

	"campus-openings/internal/models"
	"campus-openings/internal/response"
	"campus-openings/internal/service"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type Profiles interface {
	AddEducation(ctx context.Context, owner bson.ObjectID, in service.EducationInput) (*models.Education, error)
	AddProject(ctx context.Context, owner bson.ObjectID, in service.ProjectInput) (*models.Project, error)
	AddCertificate(ctx context.Context, owner bson.ObjectID, in service.CertificateInput) (*models.Certificate, error)
	AddPositionOfResponsibility(ctx context.Context, owner bson.ObjectID, in service.PositionInput) (*models.PositionOfResponsibility, error)
	AddWorkExperience(ctx context.Context, owner bson.ObjectID, in service.WorkExperienceInput) (*models.WorkExperience, error)
	DeleteEntry(ctx context.Context, owner bson.ObjectID, kind models.SectionKind, idHex string) error
	AddSkill(ctx context.Context, owner bson.ObjectID, skill string) error
	RemoveSkill(ctx context.Context, owner bson.ObjectID, skill string) error
}

type ProfileHandler struct {
	profiles Profiles
	uploads  Uploads
}

func NewProfileHandler(profiles Profiles, uploads Uploads) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		uploads:  uploads,
	}
}

// addEntry binds the body into In, calls add on the profile service for the
// current user and writes the created entry. The service is resolved per
// request.
func addEntry[In any, Out any](h *ProfileHandler, message string, add func(Profiles, context.Context, bson.ObjectID, In) (*Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}

		var in In
		if err := bind(w, r, &in, h.uploads); err != nil {
			response.Error(w, r, err)
			return
		}
		out, err := add(h.profiles, r.Context(), user.ID, in)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.JSON(w, http.StatusOK, out, message)
	}
}

// --- POST /profile/addEducation ---

func (h *ProfileHandler) AddEducation() http.HandlerFunc {
	return addEntry(h, "Education created successfully", Profiles.AddEducation)
}

// --- POST /profile/addProject ---

func (h *ProfileHandler) AddProject() http.HandlerFunc {
	return addEntry(h, "Project created successfully", Profiles.AddProject)
}

// --- POST /profile/addCertificate ---

func (h *ProfileHandler) AddCertificate() http.HandlerFunc {
	return addEntry(h, "Certificate created successfully", Profiles.AddCertificate)
}

// --- POST /profile/addPosOfRes ---

func (h *ProfileHandler) AddPositionOfResponsibility() http.HandlerFunc {
	return addEntry(h, "Position of responsibility created successfully", Profiles.AddPositionOfResponsibility)
}

// --- POST /profile/addWorkExperience ---

func (h *ProfileHandler) AddWorkExperience() http.HandlerFunc {
	return addEntry(h, "Work experience created successfully", Profiles.AddWorkExperience)
}

// DeleteEntry removes the entry of the given kind whose id is in the URL
// parameter param.
//
// --- DELETE /profile/delete*/{param} ---
func (h *ProfileHandler) DeleteEntry(kind models.SectionKind, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		if err := h.profiles.DeleteEntry(r.Context(), user.ID, kind, chi.URLParam(r, param)); err != nil {
			response.Error(w, r, err)
			return
		}
		response.JSON(w, http.StatusOK, struct{}{}, "Deleted successfully")
	}
}

type skillRequest struct {
	Skill string `json:"skill"`
}

// --- POST /profile/addSkill ---

func (h *ProfileHandler) AddSkill(w http.ResponseWriter, r *http.Request) {
	h.skill(w, r, Profiles.AddSkill, "Skill added successfully")
}

// --- POST /profile/deleteSkill ---

func (h *ProfileHandler) DeleteSkill(w http.ResponseWriter, r *http.Request) {
	h.skill(w, r, Profiles.RemoveSkill, "Skill deleted successfully")
}

func (h *ProfileHandler) skill(w http.ResponseWriter, r *http.Request, apply func(Profiles, context.Context, bson.ObjectID, string) error, message string) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req skillRequest
	if err := bind(w, r, &req, h.uploads); err != nil {
		response.Error(w, r, err)
		return
	}
	if err := apply(h.profiles, r.Context(), user.ID, req.Skill); err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"skill": req.Skill}, message)
}
