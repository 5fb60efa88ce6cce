// Package server assembles the HTTP routes.
package server

import (
	"context"
	"net/http"
	"time"

	"campus-openings/internal/apperr"
	"campus-openings/internal/auth"
	"campus-openings/internal/handlers"
	"campus-openings/internal/metrics"
	"campus-openings/internal/middleware"
	"campus-openings/internal/models"
	"campus-openings/internal/response"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Job     *handlers.JobHandler
	Profile *handlers.ProfileHandler
}

type Options struct {
	Tokens             *auth.TokenService
	Users              middleware.UserFinder
	CORSOrigins        []string
	LoginRatePerMinute int
	Logger             zerolog.Logger

	// Ping reports database health for /health. Nil means always healthy.
	Ping func(ctx context.Context) error
}

func NewRouter(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogging(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(metrics.HTTPMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, apperr.NotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", health(opts.Ping))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(opts.LoginRatePerMinute))
				r.Post("/register", h.Auth.Register)
				r.Post("/login", h.Auth.Login)
			})
			r.Get("/verify", h.Auth.Verify)
			r.Post("/userExist", h.Auth.UserExist)
			r.Post("/refreshToken", h.Auth.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(opts.Tokens, opts.Users))

				r.Post("/logout", h.Auth.Logout)
				r.Post("/changePassword", h.Auth.ChangePassword)
				r.Post("/uploadProfilePicture", h.User.UploadProfilePicture)
				r.Post("/getUserOfSameCollege", h.User.GetUserOfSameCollege)

				r.Post("/uploadOpenings", h.Job.UploadOpenings)
				r.Post("/getAllJobPost", h.Job.GetAllJobPost)
				r.Post("/getJobsOfSameCollege", h.Job.GetJobsOfSameCollege)
				r.Post("/getPreviousPost", h.Job.GetPreviousPost)
			})
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(middleware.Authenticate(opts.Tokens, opts.Users))

			r.Post("/addEducation", h.Profile.AddEducation())
			r.Post("/addProject", h.Profile.AddProject())
			r.Post("/addCertificate", h.Profile.AddCertificate())
			r.Post("/addPosOfRes", h.Profile.AddPositionOfResponsibility())
			r.Post("/addWorkExperience", h.Profile.AddWorkExperience())

			r.Delete("/deleteEducation/{educationId}", h.Profile.DeleteEntry(models.SectionEducation, "educationId"))
			r.Delete("/deleteProject/{projectId}", h.Profile.DeleteEntry(models.SectionProject, "projectId"))
			r.Delete("/deleteCertificate/{certificateId}", h.Profile.DeleteEntry(models.SectionCertificate, "certificateId"))
			r.Delete("/deletePosOfRes/{posOfResId}", h.Profile.DeleteEntry(models.SectionPositionOfResponsibility, "posOfResId"))
			r.Delete("/deleteWorkExperience/{workExperienceId}", h.Profile.DeleteEntry(models.SectionWorkExperience, "workExperienceId"))

			r.Post("/addSkill", h.Profile.AddSkill)
			r.Post("/deleteSkill", h.Profile.DeleteSkill)
		})
	})

	return r
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
				response.Fail(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "campus-openings"}, "healthy")
	}
}
