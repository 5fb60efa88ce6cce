package service

import (
	"context"
	"strings"

	"campus-openings/internal/apperr"
	"campus-openings/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const openingsField = "openings"

type JobInput struct {
	TitleOfJob       string   `json:"titleOfJob" validate:"required"`
	Domain           []string `json:"domain"`
	Stipend          float64  `json:"stipend" validate:"gte=0"`
	IsRemote         bool     `json:"isRemote"`
	IsOnSite         bool     `json:"isOnSite"`
	DurationInMonths int      `json:"durationInMonths" validate:"required,gt=0"`
	LastDate         string   `json:"lastDate" validate:"required"`
	DetailsLink      string   `json:"detailsLink" validate:"omitempty,url"`

	// DetailPath is a staged local copy of an uploaded details document.
	DetailPath string `json:"-"`
}

type JobService struct {
	jobs     JobStore
	users    UserStore
	tx       Transactor
	uploader Uploader
	logger   zerolog.Logger
	validate *validator.Validate
}

func NewJobService(jobs JobStore, users UserStore, tx Transactor, uploader Uploader, logger zerolog.Logger) *JobService {
	return &JobService{
		jobs:     jobs,
		users:    users,
		tx:       tx,
		uploader: uploader,
		logger:   logger.With().Str("component", "jobs").Logger(),
		validate: newValidator(),
	}
}

// Create posts a job for owner and appends it to the owner's openings.
// isOnSite is accepted but only isRemote decides the job type.
func (s *JobService) Create(ctx context.Context, owner bson.ObjectID, in JobInput) (*models.JobPosting, error) {
	defer discard(in.DetailPath)

	in.TitleOfJob = strings.TrimSpace(in.TitleOfJob)
	in.LastDate = strings.TrimSpace(in.LastDate)
	in.DetailsLink = strings.TrimSpace(in.DetailsLink)
	if err := validate(s.validate, in); err != nil {
		return nil, err
	}
	lastDate, err := parseDate(in.LastDate)
	if err != nil {
		return nil, apperr.Validation("invalid date", "lastDate")
	}

	link := in.DetailsLink
	if link == "" {
		if in.DetailPath == "" {
			return nil, apperr.Validation("all fields are required", "detailsLink")
		}
		link, err = upload(ctx, s.uploader, in.DetailPath)
		if err != nil {
			return nil, err
		}
	}

	job := &models.JobPosting{
		ID:    bson.NewObjectID(),
		Owner: owner,
		JobDetails: models.JobDetails{
			Title:            in.TitleOfJob,
			Domain:           trimAll(in.Domain),
			DetailsLink:      link,
			Stipend:          in.Stipend,
			DurationInMonths: in.DurationInMonths,
			LastDate:         lastDate,
			TypeOfJob:        models.JobType(in.IsRemote),
		},
	}

	err = dualWrite(ctx, s.tx,
		func(ctx context.Context) error { return s.jobs.Create(ctx, job) },
		func(ctx context.Context) error { return s.users.Push(ctx, owner, openingsField, job.ID) },
		func(ctx context.Context) error { return s.jobs.Delete(ctx, job.ID) },
	)
	if err != nil {
		s.logger.Error().Err(err).Str("owner", owner.Hex()).Msg("failed to post job")
		return nil, storeError(err)
	}
	return job, nil
}

// ListOthers returns every posting not owned by the requester, newest first.
func (s *JobService) ListOthers(ctx context.Context, requester *models.User) ([]models.JobPostingView, error) {
	jobs, err := s.jobs.ListExcludingOwner(ctx, requester.ID)
	if err != nil {
		return nil, apperr.From(err)
	}
	return jobs, nil
}

// ListSameCollege returns postings whose owner shares the requester's college.
func (s *JobService) ListSameCollege(ctx context.Context, requester *models.User) ([]models.JobPostingView, error) {
	jobs, err := s.jobs.ListByOwnerCollege(ctx, requester.CollegeName)
	if err != nil {
		return nil, apperr.From(err)
	}
	return jobs, nil
}

func (s *JobService) ListOwn(ctx context.Context, requester *models.User) ([]models.JobPosting, error) {
	jobs, err := s.jobs.ListByIDs(ctx, requester.Openings)
	if err != nil {
		return nil, apperr.From(err)
	}
	return jobs, nil
}
