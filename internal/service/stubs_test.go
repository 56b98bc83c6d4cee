package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"techsparks/internal/mailer"
	"techsparks/internal/models"
	"techsparks/internal/notifications"
	"techsparks/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	existsByEmailFn func(context.Context, string) (bool, error)
	updateFn        func(context.Context, *models.User) error
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.existsByEmailFn(ctx, email)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}

// memoryUsers backs userRepoStub with a map keyed by id.
type memoryUsers struct {
	mu    sync.Mutex
	byID  map[string]models.User
	saves int
}

func newMemoryUsers() (*memoryUsers, *userRepoStub) {
	m := &memoryUsers{byID: map[string]models.User{}}
	find := func(match func(models.User) bool) (*models.User, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, u := range m.byID {
			if match(u) {
				copied := u
				return &copied, nil
			}
		}
		return nil, repository.ErrNotFound
	}
	stub := &userRepoStub{
		createFn: func(_ context.Context, u *models.User) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, existing := range m.byID {
				if existing.Email == u.Email {
					return &repository.DuplicateKeyError{Field: "email"}
				}
			}
			if u.ID == "" {
				u.ID = uuid.NewString()
			}
			m.byID[u.ID] = *u
			return nil
		},
		getByIDFn: func(_ context.Context, id string) (*models.User, error) {
			return find(func(u models.User) bool { return u.ID == id })
		},
		getByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			return find(func(u models.User) bool { return u.Email == email })
		},
		existsByEmailFn: func(_ context.Context, email string) (bool, error) {
			_, err := find(func(u models.User) bool { return u.Email == email })
			if errors.Is(err, repository.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		},
		updateFn: func(_ context.Context, u *models.User) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.byID[u.ID] = *u
			m.saves++
			return nil
		},
	}
	return m, stub
}

func (m *memoryUsers) get(id string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	createFn    func(context.Context, *models.Category) error
	getByIDFn   func(context.Context, string) (*models.Category, error)
	getByNameFn func(context.Context, string) (*models.Category, error)
	listFn      func(context.Context) ([]models.Category, error)
	updateFn    func(context.Context, *models.Category) error
	deleteFn    func(context.Context, string) error
}

func (s *categoryRepoStub) Create(ctx context.Context, c *models.Category) error {
	return s.createFn(ctx, c)
}
func (s *categoryRepoStub) GetByID(ctx context.Context, id string) (*models.Category, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) GetByName(ctx context.Context, name string) (*models.Category, error) {
	return s.getByNameFn(ctx, name)
}
func (s *categoryRepoStub) List(ctx context.Context) ([]models.Category, error) {
	return s.listFn(ctx)
}
func (s *categoryRepoStub) Update(ctx context.Context, c *models.Category) error {
	return s.updateFn(ctx, c)
}
func (s *categoryRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		createFn:    func(_ context.Context, c *models.Category) error { c.ID = uuid.NewString(); return nil },
		getByIDFn:   func(_ context.Context, _ string) (*models.Category, error) { return nil, repository.ErrNotFound },
		getByNameFn: func(_ context.Context, _ string) (*models.Category, error) { return nil, repository.ErrNotFound },
		listFn:      func(_ context.Context) ([]models.Category, error) { return []models.Category{}, nil },
		updateFn:    func(_ context.Context, _ *models.Category) error { return nil },
		deleteFn:    func(_ context.Context, _ string) error { return nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, string) (*models.Post, error)
	existsFn  func(context.Context, string) (bool, error)
	listFn    func(context.Context, repository.PostQuery) ([]models.Post, int64, error)
	updateFn  func(context.Context, *models.Post) error
	deleteFn  func(context.Context, string) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Exists(ctx context.Context, id string) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, q repository.PostQuery) ([]models.Post, int64, error) {
	return s.listFn(ctx, q)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, p *models.Post) error { p.ID = uuid.NewString(); return nil },
		getByIDFn: func(_ context.Context, _ string) (*models.Post, error) { return nil, repository.ErrNotFound },
		existsFn:  func(_ context.Context, _ string) (bool, error) { return true, nil },
		listFn: func(_ context.Context, _ repository.PostQuery) ([]models.Post, int64, error) {
			return []models.Post{}, 0, nil
		},
		updateFn: func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn: func(_ context.Context, _ string) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn            func(context.Context, *models.Comment) error
	getByIDFn           func(context.Context, string) (*models.Comment, error)
	listTopLevelFn      func(context.Context, string, int, int) ([]models.Comment, int64, error)
	listRepliesFn       func(context.Context, string, int, int) ([]models.Comment, int64, error)
	updateFn            func(context.Context, *models.Comment) error
	deleteWithRepliesFn func(context.Context, string) (int64, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListTopLevelWithReplies(ctx context.Context, postID string, offset, limit int) ([]models.Comment, int64, error) {
	return s.listTopLevelFn(ctx, postID, offset, limit)
}
func (s *commentRepoStub) ListReplies(ctx context.Context, parentID string, offset, limit int) ([]models.Comment, int64, error) {
	return s.listRepliesFn(ctx, parentID, offset, limit)
}
func (s *commentRepoStub) Update(ctx context.Context, c *models.Comment) error {
	return s.updateFn(ctx, c)
}
func (s *commentRepoStub) DeleteWithReplies(ctx context.Context, id string) (int64, error) {
	return s.deleteWithRepliesFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:  func(_ context.Context, c *models.Comment) error { c.ID = uuid.NewString(); return nil },
		getByIDFn: func(_ context.Context, _ string) (*models.Comment, error) { return nil, repository.ErrNotFound },
		listTopLevelFn: func(_ context.Context, _ string, _, _ int) ([]models.Comment, int64, error) {
			return []models.Comment{}, 0, nil
		},
		listRepliesFn: func(_ context.Context, _ string, _, _ int) ([]models.Comment, int64, error) {
			return []models.Comment{}, 0, nil
		},
		updateFn:            func(_ context.Context, _ *models.Comment) error { return nil },
		deleteWithRepliesFn: func(_ context.Context, _ string) (int64, error) { return 1, nil },
	}
}

// recordingSender captures outbound mail and optionally fails.
type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.sent...)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func assertAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error, message string) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation, message)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error, message string) {
	t.Helper()
	assertAppError(t, err, models.CodeUnauthorized, message)
}

func assertNotFoundError(t *testing.T, err error, message string) {
	t.Helper()
	assertAppError(t, err, models.CodeNotFound, message)
}
