package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"campus-openings/internal/apperr"
	"campus-openings/internal/auth"
	"campus-openings/internal/models"
	"campus-openings/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const mailTimeout = 30 * time.Second

type RegisterInput struct {
	FullName      string   `json:"fullName" validate:"required"`
	Email         string   `json:"email" validate:"required,email"`
	CollegeName   string   `json:"collegeName" validate:"required"`
	PhoneNumber   string   `json:"phoneNumber" validate:"required"`
	Password      string   `json:"password" validate:"required"`
	ProgrammeName string   `json:"programmeName" validate:"omitempty,oneof='B.E.' 'B. Tech' other"`
	BranchName    string   `json:"branchName"`
	AboutMe       string   `json:"aboutMe"`
	Domain        []string `json:"domain"`

	// PicturePath is a staged local copy of the uploaded profile picture.
	PicturePath string `json:"-"`
}

func (in *RegisterInput) trim() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.CollegeName = strings.TrimSpace(in.CollegeName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.ProgrammeName = strings.TrimSpace(in.ProgrammeName)
	in.BranchName = strings.TrimSpace(in.BranchName)
	in.AboutMe = strings.TrimSpace(in.AboutMe)
	in.Domain = trimAll(in.Domain)
	if strings.TrimSpace(in.Password) == "" {
		in.Password = ""
	}
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type LoginResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type UserService struct {
	users    UserStore
	tokens   *auth.TokenService
	uploader Uploader
	mailer   Mailer
	baseURL  string
	logger   zerolog.Logger
	validate *validator.Validate

	// dispatch runs background work. Tests replace it to run inline.
	dispatch func(func())
}

func NewUserService(users UserStore, tokens *auth.TokenService, uploader Uploader, mailer Mailer, baseURL string, logger zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		tokens:   tokens,
		uploader: uploader,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger.With().Str("component", "users").Logger(),
		validate: newValidator(),
		dispatch: func(f func()) { go f() },
	}
}

// Register creates an unverified account and sends the verification email
// in the background.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	defer discard(in.PicturePath)

	in.trim()
	if err := validate(s.validate, in); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperr.From(err)
	}
	if existing != nil {
		return nil, apperr.Conflict("user with this email already exists")
	}
	existing, err = s.users.FindByPhone(ctx, in.PhoneNumber)
	if err != nil {
		return nil, apperr.From(err)
	}
	if existing != nil {
		return nil, apperr.Conflict("user with this phone number already exists")
	}

	user := &models.User{
		FullName:      in.FullName,
		Email:         in.Email,
		CollegeName:   in.CollegeName,
		PhoneNumber:   in.PhoneNumber,
		ProgrammeName: in.ProgrammeName,
		BranchName:    in.BranchName,
		AboutMe:       in.AboutMe,
		Domain:        in.Domain,
	}
	if in.PicturePath != "" {
		url, err := upload(ctx, s.uploader, in.PicturePath)
		if err != nil {
			return nil, err
		}
		user.ProfilePicture = url
	}

	if err := s.users.Create(ctx, user, in.Password); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("user with this email or phone number already exists")
		}
		return nil, apperr.Server("something went wrong while registering the user", err)
	}
	user.Password = ""

	s.sendVerification(user.ID, user.Email, user.FullName)
	return user, nil
}

func (s *UserService) sendVerification(id bson.ObjectID, email, fullName string) {
	if s.mailer == nil {
		return
	}
	link := s.baseURL + "/api/v1/user/verify?id=" + id.Hex()
	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := s.mailer.SendVerification(ctx, email, fullName, link); err != nil {
			s.logger.Error().Err(err).Str("user_id", id.Hex()).Msg("failed to send verification email")
		}
	})
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate(s.validate, in); err != nil {
		return nil, apperr.Validation("email is required", "email")
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperr.From(err)
	}
	if user == nil {
		return nil, apperr.NotFound("user does not exist")
	}
	if !auth.ComparePassword(user.Password, in.Password) {
		return nil, apperr.Unauthorized("invalid user credentials")
	}

	pair, err := s.tokens.IssueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *UserService) Logout(ctx context.Context, userID bson.ObjectID) error {
	if err := s.tokens.Revoke(ctx, userID); err != nil {
		return apperr.From(err)
	}
	return nil
}

// Verify marks the user with the given id as verified.
func (s *UserService) Verify(ctx context.Context, idHex string) (repository.UpdateResult, error) {
	id, err := bson.ObjectIDFromHex(strings.TrimSpace(idHex))
	if err != nil {
		return repository.UpdateResult{}, apperr.Validation("a valid user id is required", "id")
	}
	res, err := s.users.MarkVerified(ctx, id)
	if err != nil {
		return repository.UpdateResult{}, apperr.From(err)
	}
	return res, nil
}

func (s *UserService) Refresh(ctx context.Context, presented string) (*auth.TokenPair, error) {
	return s.tokens.RotateOnRefresh(ctx, presented)
}

func (s *UserService) UserExists(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, apperr.Validation("email is required", "email")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, apperr.From(err)
	}
	return user != nil, nil
}

// ChangePassword replaces the password and revokes the stored refresh token,
// so other sessions must log in again.
func (s *UserService) ChangePassword(ctx context.Context, userID bson.ObjectID, in ChangePasswordInput) error {
	if strings.TrimSpace(in.NewPassword) == "" {
		in.NewPassword = ""
	}
	if err := validate(s.validate, in); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return apperr.From(err)
	}
	if user == nil {
		return apperr.Unauthorized("user does not exist")
	}
	if !auth.ComparePassword(user.Password, in.OldPassword) {
		return apperr.Unauthorized("invalid old password")
	}

	if err := s.users.UpdatePassword(ctx, userID, in.NewPassword); err != nil {
		return storeError(err)
	}
	if err := s.tokens.Revoke(ctx, userID); err != nil {
		return apperr.From(err)
	}
	return nil
}

// UploadProfilePicture stores the staged picture and returns the updated user.
func (s *UserService) UploadProfilePicture(ctx context.Context, userID bson.ObjectID, path string) (*models.User, error) {
	defer discard(path)

	if path == "" {
		return nil, apperr.NotFound("kindly attach profile picture")
	}
	url, err := upload(ctx, s.uploader, path)
	if err != nil {
		return nil, err
	}
	user, err := s.users.UpdateProfilePicture(ctx, userID, url)
	if err != nil {
		return nil, apperr.From(err)
	}
	if user == nil {
		return nil, apperr.Server("failed to make changes in database", nil)
	}
	return user, nil
}

// SameCollegeUsers lists every user studying at the requester's college.
func (s *UserService) SameCollegeUsers(ctx context.Context, requester *models.User) ([]models.User, error) {
	users, err := s.users.FindByCollege(ctx, requester.CollegeName)
	if err != nil {
		return nil, apperr.From(err)
	}
	return users, nil
}
