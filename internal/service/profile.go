package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"campus-openings/internal/apperr"
	"campus-openings/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const skillsField = "profileSection.skills"

var sectionLabels = map[models.SectionKind]string{
	models.SectionEducation:                "education",
	models.SectionProject:                  "project",
	models.SectionCertificate:              "certificate",
	models.SectionPositionOfResponsibility: "position of responsibility",
	models.SectionWorkExperience:           "work experience",
}

type EducationInput struct {
	University   string `json:"university"`
	Degree       string `json:"degree" validate:"required"`
	Grade        string `json:"grade"`
	FieldOfStudy string `json:"fieldOfStudy"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
}

type ProjectInput struct {
	ProjectTitle string   `json:"projectTitle" validate:"required"`
	Description  string   `json:"description"`
	ProjectLink  string   `json:"projectLink" validate:"omitempty,url"`
	Skills       []string `json:"skills"`
}

type CertificateInput struct {
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description"`
	CertificateLink string `json:"certificateLink" validate:"omitempty,url"`
}

type PositionInput struct {
	PositionOfResponsibility string `json:"positionOfResponsibility" validate:"required"`
	Institute                string `json:"institute" validate:"required"`
}

type WorkExperienceInput struct {
	CompanyName     string `json:"companyName" validate:"required"`
	CertificateLink string `json:"certificateLink" validate:"omitempty,url"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
}

// ProfileService manages the entries linked from a user's profile section.
// Every entry is stored in its own collection and referenced by id from the
// owner; both writes happen as one unit.
type ProfileService struct {
	users    UserStore
	sections SectionStore
	tx       Transactor
	logger   zerolog.Logger
	validate *validator.Validate
}

func NewProfileService(users UserStore, sections SectionStore, tx Transactor, logger zerolog.Logger) *ProfileService {
	return &ProfileService{
		users:    users,
		sections: sections,
		tx:       tx,
		logger:   logger.With().Str("component", "profile").Logger(),
		validate: newValidator(),
	}
}

func (s *ProfileService) AddEducation(ctx context.Context, owner bson.ObjectID, in EducationInput) (*models.Education, error) {
	in.University = strings.TrimSpace(in.University)
	in.Degree = strings.TrimSpace(in.Degree)
	in.Grade = strings.TrimSpace(in.Grade)
	in.FieldOfStudy = strings.TrimSpace(in.FieldOfStudy)
	if err := validate(s.validate, in); err != nil {
		return nil, err
	}
	start, err := optionalDate(in.StartDate, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := optionalDate(in.EndDate, "endDate")
	if err != nil {
		return nil, err
	}

	doc := &models.Education{
		ID:           bson.NewObjectID(),
		Owner:        owner,
		University:   in.University,
		Degree:       in.Degree,
		Grade:        in.Grade,
		FieldOfStudy: in.FieldOfStudy,
		StartDate:    start,
		EndDate:      end,
		CreatedAt:    time.Now(),
	}
	if err := s.add(ctx, owner, models.SectionEducation, doc.ID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ProfileService) AddProject(ctx context.Context, owner bson.ObjectID, in ProjectInput) (*models.Project, error) {
	in.ProjectTitle = strings.TrimSpace(in.ProjectTitle)
	in.Description = strings.TrimSpace(in.Description)
	in.ProjectLink = strings.TrimSpace(in.ProjectLink)
	if err := validate(s.validate, in); err != nil {
		return nil, err
	}

	doc := &models.Project{
		ID:           bson.NewObjectID(),
		Owner:        owner,
		ProjectTitle: in.ProjectTitle,
		Description:  in.Description,
		ProjectLink:  in.ProjectLink,
		Skills:       trimAll(in.Skills),
		CreatedAt:    time.Now(),
	}
	if err := s.add(ctx, owner, models.SectionProject, doc.ID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ProfileService) AddCertificate(ctx context.Context, owner bson.ObjectID, in CertificateInput) (*models.Certificate, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.CertificateLink = strings.TrimSpace(in.CertificateLink)
	if err := validate(s.validate, in); err != nil {
		return nil, err
	}

	doc := &models.Certificate{
		ID:              bson.NewObjectID(),
		Owner:           owner,
		Title:           in.Title,
		Description:     in.Description,
		CertificateLink: in.CertificateLink,
		CreatedAt:       time.Now(),
	}
	if err := s.add(ctx, owner, models.SectionCertificate, doc.ID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ProfileService) AddPositionOfResponsibility(ctx context.Context, owner bson.ObjectID, in PositionInput) (*models.PositionOfResponsibility, error) {
	in.PositionOfResponsibility = strings.TrimSpace(in.PositionOfResponsibility)
	in.Institute = strings.TrimSpace(in.Institute)
	if err := validate(s.validate, in); err != nil {
		return nil, err
	}

	doc := &models.PositionOfResponsibility{
		ID:                       bson.NewObjectID(),
		Owner:                    owner,
		PositionOfResponsibility: in.PositionOfResponsibility,
		Institute:                in.Institute,
		CreatedAt:                time.Now(),
	}
	if err := s.add(ctx, owner, models.SectionPositionOfResponsibility, doc.ID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ProfileService) AddWorkExperience(ctx context.Context, owner bson.ObjectID, in WorkExperienceInput) (*models.WorkExperience, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.CertificateLink = strings.TrimSpace(in.CertificateLink)
	if err := validate(s.validate, in); err != nil {
		return nil, err
	}
	start, err := optionalDate(in.StartDate, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := optionalDate(in.EndDate, "endDate")
	if err != nil {
		return nil, err
	}

	doc := &models.WorkExperience{
		ID:              bson.NewObjectID(),
		Owner:           owner,
		CompanyName:     in.CompanyName,
		CertificateLink: in.CertificateLink,
		StartDate:       start,
		EndDate:         end,
		CreatedAt:       time.Now(),
	}
	if err := s.add(ctx, owner, models.SectionWorkExperience, doc.ID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ProfileService) add(ctx context.Context, owner bson.ObjectID, kind models.SectionKind, id bson.ObjectID, doc any) error {
	err := dualWrite(ctx, s.tx,
		func(ctx context.Context) error {
			_, err := s.sections.Insert(ctx, kind, doc)
			return err
		},
		func(ctx context.Context) error {
			return s.users.Push(ctx, owner, kind.Field(), id)
		},
		func(ctx context.Context) error {
			_, err := s.sections.Delete(ctx, kind, id, owner)
			return err
		},
	)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(kind)).Str("owner", owner.Hex()).Msg("failed to add profile entry")
		return storeError(err)
	}
	return nil
}

// DeleteEntry removes an entry owned by owner and unlinks it from the
// profile section. The rest of the reference list keeps its order.
func (s *ProfileService) DeleteEntry(ctx context.Context, owner bson.ObjectID, kind models.SectionKind, idHex string) error {
	label := sectionLabels[kind]
	if !kind.Valid() {
		return apperr.NotFound("unknown profile section")
	}
	id, err := parseObjectID(idHex, label)
	if err != nil {
		return err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		removed, err := s.sections.Delete(ctx, kind, id, owner)
		if err != nil {
			return err
		}
		if removed == nil {
			return apperr.NotFound(label + " does not exist")
		}
		if err := s.users.Pull(ctx, owner, kind.Field(), id); err != nil {
			if rerr := s.sections.Restore(ctx, kind, removed); rerr != nil {
				return errors.Join(err, rerr)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("kind", string(kind)).Str("id", id.Hex()).Msg("failed to delete profile entry")
		return storeError(err)
	}
	return nil
}

// AddSkill appends skill to the owner's skills. Duplicates are kept.
func (s *ProfileService) AddSkill(ctx context.Context, owner bson.ObjectID, skill string) error {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return apperr.Validation("please enter a skill", "skill")
	}
	if err := s.users.Push(ctx, owner, skillsField, skill); err != nil {
		return storeError(err)
	}
	return nil
}

// RemoveSkill removes every occurrence of skill. Removing a skill the user
// does not have succeeds.
func (s *ProfileService) RemoveSkill(ctx context.Context, owner bson.ObjectID, skill string) error {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return apperr.Validation("please enter a skill", "skill")
	}
	if err := s.users.Pull(ctx, owner, skillsField, skill); err != nil {
		return storeError(err)
	}
	return nil
}
