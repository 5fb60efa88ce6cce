package handlers

import (
	"context"
	"net/http"

	"campus-openings/internal/models"
	"campus-openings/internal/response"
	"campus-openings/internal/service"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Jobs interface {
	Create(ctx context.Context, owner bson.ObjectID, in service.JobInput) (*models.JobPosting, error)
	ListOthers(ctx context.Context, requester *models.User) ([]models.JobPostingView, error)
	ListSameCollege(ctx context.Context, requester *models.User) ([]models.JobPostingView, error)
	ListOwn(ctx context.Context, requester *models.User) ([]models.JobPosting, error)
}

type JobHandler struct {
	jobs    Jobs
	uploads Uploads
}

func NewJobHandler(jobs Jobs, uploads Uploads) *JobHandler {
	return &JobHandler{
		jobs:    jobs,
		uploads: uploads,
	}
}

// --- POST /user/uploadOpenings ---

func (h *JobHandler) UploadOpenings(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)

	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in service.JobInput
	if err := bind(w, r, &in, h.uploads); err != nil {
		response.Error(w, r, err)
		return
	}
	path, err := stageUpload(r, "details", h.uploads)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	in.DetailPath = path

	job, err := h.jobs.Create(r.Context(), user.ID, in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, job, "Successfully posted job")
}

// --- POST /user/getAllJobPost ---

func (h *JobHandler) GetAllJobPost(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	jobs, err := h.jobs.ListOthers(r.Context(), user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, jobs, "Details fetched successfully")
}

// --- POST /user/getJobsOfSameCollege ---

func (h *JobHandler) GetJobsOfSameCollege(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	jobs, err := h.jobs.ListSameCollege(r.Context(), user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, jobs, "Details fetched successfully")
}

// --- POST /user/getPreviousPost ---

func (h *JobHandler) GetPreviousPost(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	jobs, err := h.jobs.ListOwn(r.Context(), user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, jobs, "Details fetched successfully")
}
