package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"campus-openings/internal/auth"
	"campus-openings/internal/models"
	"campus-openings/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

var errStore = errors.New("store unavailable")

// fakeUsers is an in-memory UserStore that also satisfies auth.Store.
type fakeUsers struct {
	mu      sync.Mutex
	users   map[bson.ObjectID]*models.User
	pushErr error
	pullErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[bson.ObjectID]*models.User{}}
}

func (f *fakeUsers) find(match func(*models.User) bool) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (f *fakeUsers) get(id bson.ObjectID) *models.User {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsers) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	return f.get(id), nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email }), nil
}

func (f *fakeUsers) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.PhoneNumber == phone }), nil
}

func (f *fakeUsers) FindByCollege(_ context.Context, college string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.users {
		if u.CollegeName == college {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) Create(_ context.Context, user *models.User, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email || u.PhoneNumber == user.PhoneNumber {
			return repository.ErrDuplicate
		}
	}
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		return err
	}
	user.Password = hash
	user.Normalize()
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id bson.ObjectID, password string) error {
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		return err
	}
	return f.update(id, func(u *models.User) { u.Password = hash })
}

func (f *fakeUsers) UpdateProfilePicture(_ context.Context, id bson.ObjectID, url string) (*models.User, error) {
	if err := f.update(id, func(u *models.User) { u.ProfilePicture = url }); err != nil {
		return nil, nil
	}
	return f.get(id), nil
}

func (f *fakeUsers) MarkVerified(_ context.Context, id bson.ObjectID) (repository.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.UpdateResult{}, nil
	}
	res := repository.UpdateResult{MatchedCount: 1}
	if !u.IsVerified {
		u.IsVerified = true
		res.ModifiedCount = 1
	}
	return res, nil
}

func (f *fakeUsers) SetRefreshToken(_ context.Context, id bson.ObjectID, token string) error {
	return f.update(id, func(u *models.User) { u.RefreshToken = token })
}

func (f *fakeUsers) SwapRefreshToken(_ context.Context, id bson.ObjectID, current, next string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = next
	return true, nil
}

func (f *fakeUsers) ClearRefreshToken(_ context.Context, id bson.ObjectID) error {
	_ = f.update(id, func(u *models.User) { u.RefreshToken = "" })
	return nil
}

func (f *fakeUsers) Push(_ context.Context, id bson.ObjectID, field string, value any) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	return f.update(id, func(u *models.User) {
		switch field {
		case openingsField:
			u.Openings = append(u.Openings, value.(bson.ObjectID))
		case skillsField:
			u.ProfileSection.Skills = append(u.ProfileSection.Skills, value.(string))
		default:
			kind := models.SectionKind(strings.TrimPrefix(field, "profileSection."))
			refs := append([]bson.ObjectID{}, u.ProfileSection.Refs(kind)...)
			u.ProfileSection.SetRefs(kind, append(refs, value.(bson.ObjectID)))
		}
	})
}

func (f *fakeUsers) Pull(_ context.Context, id bson.ObjectID, field string, value any) error {
	if f.pullErr != nil {
		return f.pullErr
	}
	return f.update(id, func(u *models.User) {
		switch field {
		case openingsField:
			u.Openings = without(u.Openings, value.(bson.ObjectID))
		case skillsField:
			u.ProfileSection.Skills = without(u.ProfileSection.Skills, value.(string))
		default:
			kind := models.SectionKind(strings.TrimPrefix(field, "profileSection."))
			u.ProfileSection.SetRefs(kind, without(u.ProfileSection.Refs(kind), value.(bson.ObjectID)))
		}
	})
}

func (f *fakeUsers) update(id bson.ObjectID, fn func(*models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

func without[T comparable](list []T, v T) []T {
	out := make([]T, 0, len(list))
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}

type sectionEntry struct {
	owner bson.ObjectID
	raw   bson.Raw
}

type fakeSections struct {
	mu         sync.Mutex
	entries    map[models.SectionKind]map[bson.ObjectID]sectionEntry
	insertErr  error
	restoreErr error
}

func newFakeSections() *fakeSections {
	return &fakeSections{entries: map[models.SectionKind]map[bson.ObjectID]sectionEntry{}}
}

type sectionKeys struct {
	ID    bson.ObjectID `bson:"_id"`
	Owner bson.ObjectID `bson:"owner"`
}

func (f *fakeSections) Insert(_ context.Context, kind models.SectionKind, doc any) (bson.ObjectID, error) {
	if f.insertErr != nil {
		return bson.ObjectID{}, f.insertErr
	}
	b, err := bson.Marshal(doc)
	if err != nil {
		return bson.ObjectID{}, err
	}
	return f.put(kind, bson.Raw(b))
}

func (f *fakeSections) put(kind models.SectionKind, raw bson.Raw) (bson.ObjectID, error) {
	var keys sectionKeys
	if err := bson.Unmarshal(raw, &keys); err != nil {
		return bson.ObjectID{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries[kind] == nil {
		f.entries[kind] = map[bson.ObjectID]sectionEntry{}
	}
	f.entries[kind][keys.ID] = sectionEntry{owner: keys.Owner, raw: raw}
	return keys.ID, nil
}

func (f *fakeSections) Delete(_ context.Context, kind models.SectionKind, id, owner bson.ObjectID) (bson.Raw, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[kind][id]
	if !ok || entry.owner != owner {
		return nil, nil
	}
	delete(f.entries[kind], id)
	return entry.raw, nil
}

func (f *fakeSections) Restore(_ context.Context, kind models.SectionKind, doc bson.Raw) error {
	if f.restoreErr != nil {
		return f.restoreErr
	}
	_, err := f.put(kind, doc)
	return err
}

func (f *fakeSections) has(kind models.SectionKind, id bson.ObjectID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[kind][id]
	return ok
}

func (f *fakeSections) count(kind models.SectionKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries[kind])
}

// fakeJobs joins owners from the user fake the way the aggregation does.
type fakeJobs struct {
	mu    sync.Mutex
	users *fakeUsers
	jobs  []models.JobPosting
	clock time.Time
}

func newFakeJobs(users *fakeUsers) *fakeJobs {
	return &fakeJobs{users: users, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeJobs) Create(_ context.Context, job *models.JobPosting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Minute)
	job.CreatedAt = f.clock
	if job.ID.IsZero() {
		job.ID = bson.NewObjectID()
	}
	f.jobs = append(f.jobs, *job)
	return nil
}

func (f *fakeJobs) Delete(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.jobs[:0]
	for _, j := range f.jobs {
		if j.ID != id {
			kept = append(kept, j)
		}
	}
	f.jobs = kept
	return nil
}

func (f *fakeJobs) views(keep func(models.JobPosting, *models.User) bool) []models.JobPostingView {
	f.mu.Lock()
	jobs := append([]models.JobPosting{}, f.jobs...)
	f.mu.Unlock()

	out := []models.JobPostingView{}
	for _, j := range jobs {
		owner := f.users.get(j.Owner)
		if owner == nil || !keep(j, owner) {
			continue
		}
		owner.Password, owner.RefreshToken = "", ""
		out = append(out, models.JobPostingView{ID: j.ID, Owner: owner, JobDetails: j.JobDetails, CreatedAt: j.CreatedAt})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}

func (f *fakeJobs) ListExcludingOwner(_ context.Context, owner bson.ObjectID) ([]models.JobPostingView, error) {
	return f.views(func(j models.JobPosting, _ *models.User) bool { return j.Owner != owner }), nil
}

func (f *fakeJobs) ListByOwnerCollege(_ context.Context, college string) ([]models.JobPostingView, error) {
	return f.views(func(_ models.JobPosting, u *models.User) bool { return u.CollegeName == college }), nil
}

func (f *fakeJobs) ListByIDs(_ context.Context, ids []bson.ObjectID) ([]models.JobPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.JobPosting{}
	for _, j := range f.jobs {
		for _, id := range ids {
			if j.ID == id {
				out = append(out, j)
			}
		}
	}
	return out, nil
}

func (f *fakeJobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeUploader struct {
	url      string
	err      error
	uploaded []string
}

func (f *fakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}
	f.uploaded = append(f.uploaded, localPath)
	return f.url, f.err
}

type sentMail struct {
	to, fullName, link string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendVerification(_ context.Context, to, fullName, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: to, fullName: fullName, link: link})
	return f.err
}

type harness struct {
	users    *fakeUsers
	sections *fakeSections
	jobs     *fakeJobs
	tx       *fakeTx
	uploader *fakeUploader
	mailer   *fakeMailer
	tokens   *auth.TokenService

	userSvc    *UserService
	profileSvc *ProfileService
	jobSvc     *JobService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		users:    newFakeUsers(),
		sections: newFakeSections(),
		tx:       &fakeTx{},
		uploader: &fakeUploader{url: "https://cdn.example.com/uploads/file.png"},
		mailer:   &fakeMailer{},
	}
	h.jobs = newFakeJobs(h.users)
	h.tokens = auth.NewTokenService(h.users, "access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)

	logger := zerolog.Nop()
	h.userSvc = NewUserService(h.users, h.tokens, h.uploader, h.mailer, "http://localhost:8000/", logger)
	h.userSvc.dispatch = func(f func()) { f() }
	h.profileSvc = NewProfileService(h.users, h.sections, h.tx, logger)
	h.jobSvc = NewJobService(h.jobs, h.users, h.tx, h.uploader, logger)
	return h
}

func (h *harness) register(t *testing.T, email, phone, college string) *models.User {
	t.Helper()
	u, err := h.userSvc.Register(context.Background(), RegisterInput{
		FullName:    "Test " + phone,
		Email:       email,
		CollegeName: college,
		PhoneNumber: phone,
		Password:    "password-" + phone,
	})
	require.NoError(t, err)
	return u
}

// stage writes a temporary file the way the handlers stage uploads.
func stage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))
	return path
}

func assertRemoved(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "staged file %s should be removed", path)
}
