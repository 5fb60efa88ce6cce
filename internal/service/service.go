// Package service holds the business rules behind the HTTP handlers: the
// credential lifecycle, profile entries and job postings.
package service

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"time"

	"campus-openings/internal/apperr"
	"campus-openings/internal/models"
	"campus-openings/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserStore is the user persistence the services depend on.
type UserStore interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByCollege(ctx context.Context, college string) ([]models.User, error)
	Create(ctx context.Context, user *models.User, password string) error
	UpdatePassword(ctx context.Context, id bson.ObjectID, password string) error
	UpdateProfilePicture(ctx context.Context, id bson.ObjectID, url string) (*models.User, error)
	MarkVerified(ctx context.Context, id bson.ObjectID) (repository.UpdateResult, error)
	Push(ctx context.Context, id bson.ObjectID, field string, value any) error
	Pull(ctx context.Context, id bson.ObjectID, field string, value any) error
}

type SectionStore interface {
	Insert(ctx context.Context, kind models.SectionKind, doc any) (bson.ObjectID, error)
	Delete(ctx context.Context, kind models.SectionKind, id, owner bson.ObjectID) (bson.Raw, error)
	Restore(ctx context.Context, kind models.SectionKind, doc bson.Raw) error
}

type JobStore interface {
	Create(ctx context.Context, job *models.JobPosting) error
	Delete(ctx context.Context, id bson.ObjectID) error
	ListExcludingOwner(ctx context.Context, owner bson.ObjectID) ([]models.JobPostingView, error)
	ListByOwnerCollege(ctx context.Context, college string) ([]models.JobPostingView, error)
	ListByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.JobPosting, error)
}

// Transactor runs fn as one unit of work.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Uploader moves a local file to object storage and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

type Mailer interface {
	SendVerification(ctx context.Context, to, fullName, link string) error
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate runs struct validation and converts failures into a
// ValidationError naming the offending fields.
func validate(v *validator.Validate, in any) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Server("something went wrong", err)
	}
	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	if len(missing) > 0 {
		return apperr.Validation("all fields are required", missing...)
	}
	return apperr.Validation("invalid field value", invalid...)
}

// parseObjectID returns a NotFound error for malformed ids: a malformed id
// cannot match any record.
func parseObjectID(hex, what string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return bson.ObjectID{}, apperr.NotFound(what + " does not exist")
	}
	return id, nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// optionalDate parses s when present. field names the input in the error.
func optionalDate(s, field string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, apperr.Validation("invalid date", field)
	}
	return &t, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// discard removes a staged upload. Staged files are removed after every
// request that carried one, whether or not the upload happened.
func discard(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}

func upload(ctx context.Context, up Uploader, path string) (string, error) {
	if up == nil {
		return "", apperr.Upload("file storage is not configured", nil)
	}
	url, err := up.Upload(ctx, path)
	if err != nil {
		return "", apperr.Upload("failed to upload file", err)
	}
	if url == "" {
		return "", apperr.Upload("failed to upload file", nil)
	}
	return url, nil
}

// dualWrite inserts a record and links it from the owner inside one
// transaction. If link fails the inserted record is removed again, which
// also covers deployments running without transactions.
func dualWrite(ctx context.Context, tx Transactor, insert func(ctx context.Context) error, link func(ctx context.Context) error, undo func(ctx context.Context) error) error {
	return tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := insert(ctx); err != nil {
			return err
		}
		if err := link(ctx); err != nil {
			if uerr := undo(ctx); uerr != nil {
				return errors.Join(err, uerr)
			}
			return err
		}
		return nil
	})
}

func storeError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Server("failed to make changes in database", err)
	}
	return apperr.From(err)
}
