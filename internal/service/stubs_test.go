package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"playhub/internal/cache"
	"playhub/internal/models"
	"playhub/internal/notifications"
	"playhub/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reactionRepoStub struct {
	getFn          func(context.Context, string, string) (*models.Reaction, error)
	insertFn       func(context.Context, *models.Reaction) (bool, error)
	casFn          func(context.Context, string, models.ReactionKind, models.ReactionKind) (bool, error)
	deleteByPairFn func(context.Context, string, string) (bool, error)
	aggregateFn    func(context.Context, string, string) (*models.ReactionStats, error)
}

func (s *reactionRepoStub) Get(ctx context.Context, gameID, userID string) (*models.Reaction, error) {
	return s.getFn(ctx, gameID, userID)
}
func (s *reactionRepoStub) Insert(ctx context.Context, reaction *models.Reaction) (bool, error) {
	return s.insertFn(ctx, reaction)
}
func (s *reactionRepoStub) CompareAndSwapKind(ctx context.Context, id string, from, to models.ReactionKind) (bool, error) {
	return s.casFn(ctx, id, from, to)
}
func (s *reactionRepoStub) DeleteByPair(ctx context.Context, gameID, userID string) (bool, error) {
	return s.deleteByPairFn(ctx, gameID, userID)
}
func (s *reactionRepoStub) Aggregate(ctx context.Context, gameID, userID string) (*models.ReactionStats, error) {
	return s.aggregateFn(ctx, gameID, userID)
}

func noopReactionRepo() *reactionRepoStub {
	return &reactionRepoStub{
		getFn:          func(context.Context, string, string) (*models.Reaction, error) { return nil, nil },
		insertFn:       func(context.Context, *models.Reaction) (bool, error) { return true, nil },
		casFn:          func(context.Context, string, models.ReactionKind, models.ReactionKind) (bool, error) { return true, nil },
		deleteByPairFn: func(context.Context, string, string) (bool, error) { return false, nil },
		aggregateFn: func(context.Context, string, string) (*models.ReactionStats, error) {
			return &models.ReactionStats{}, nil
		},
	}
}

type gameCheckerStub struct {
	exists bool
	err    error
	calls  int
}

func (s *gameCheckerStub) Exists(context.Context, string) (bool, error) {
	s.calls++
	return s.exists, s.err
}

type gameRepoStub struct {
	createFn             func(context.Context, *models.Game, []string) error
	getByIDFn            func(context.Context, string) (*models.Game, error)
	existsFn             func(context.Context, string) (bool, error)
	listFn               func(context.Context, repository.GameFilter) ([]models.Game, int64, error)
	updateFn             func(context.Context, *models.Game, []string) error
	deleteFn             func(context.Context, string) (bool, error)
	incrementPlayCountFn func(context.Context, string) (int64, error)
}

func (s *gameRepoStub) Create(ctx context.Context, game *models.Game, categoryIDs []string) error {
	return s.createFn(ctx, game, categoryIDs)
}
func (s *gameRepoStub) GetByID(ctx context.Context, id string) (*models.Game, error) {
	return s.getByIDFn(ctx, id)
}
func (s *gameRepoStub) Exists(ctx context.Context, id string) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *gameRepoStub) List(ctx context.Context, filter repository.GameFilter) ([]models.Game, int64, error) {
	return s.listFn(ctx, filter)
}
func (s *gameRepoStub) Update(ctx context.Context, game *models.Game, categoryIDs []string) error {
	return s.updateFn(ctx, game, categoryIDs)
}
func (s *gameRepoStub) Delete(ctx context.Context, id string) (bool, error) {
	return s.deleteFn(ctx, id)
}
func (s *gameRepoStub) IncrementPlayCount(ctx context.Context, id string) (int64, error) {
	return s.incrementPlayCountFn(ctx, id)
}

func noopGameRepo() *gameRepoStub {
	return &gameRepoStub{
		createFn:  func(context.Context, *models.Game, []string) error { return nil },
		getByIDFn: func(_ context.Context, id string) (*models.Game, error) { return &models.Game{ID: id}, nil },
		existsFn:  func(context.Context, string) (bool, error) { return true, nil },
		listFn: func(context.Context, repository.GameFilter) ([]models.Game, int64, error) {
			return nil, 0, nil
		},
		updateFn:             func(context.Context, *models.Game, []string) error { return nil },
		deleteFn:             func(context.Context, string) (bool, error) { return true, nil },
		incrementPlayCountFn: func(context.Context, string) (int64, error) { return 1, nil },
	}
}

type pageRepoStub struct {
	createFn    func(context.Context, *models.Page) error
	listFn      func(context.Context, bool) ([]models.Page, error)
	getByIDFn   func(context.Context, string) (*models.Page, error)
	getBySlugFn func(context.Context, string) (*models.Page, error)
	updateFn    func(context.Context, *models.Page) error
	deleteFn    func(context.Context, string) (bool, error)
}

func (s *pageRepoStub) Create(ctx context.Context, page *models.Page) error { return s.createFn(ctx, page) }
func (s *pageRepoStub) List(ctx context.Context, publishedOnly bool) ([]models.Page, error) {
	return s.listFn(ctx, publishedOnly)
}
func (s *pageRepoStub) GetByID(ctx context.Context, id string) (*models.Page, error) {
	return s.getByIDFn(ctx, id)
}
func (s *pageRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Page, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *pageRepoStub) Update(ctx context.Context, page *models.Page) error { return s.updateFn(ctx, page) }
func (s *pageRepoStub) Delete(ctx context.Context, id string) (bool, error) { return s.deleteFn(ctx, id) }

func noopPageRepo() *pageRepoStub {
	return &pageRepoStub{
		createFn:  func(context.Context, *models.Page) error { return nil },
		listFn:    func(context.Context, bool) ([]models.Page, error) { return nil, nil },
		getByIDFn: func(_ context.Context, id string) (*models.Page, error) { return &models.Page{ID: id}, nil },
		getBySlugFn: func(_ context.Context, slug string) (*models.Page, error) {
			return nil, models.NewNotFoundError("Page", slug)
		},
		updateFn: func(context.Context, *models.Page) error { return nil },
		deleteFn: func(context.Context, string) (bool, error) { return true, nil },
	}
}

type categoryRepoStub struct {
	createFn  func(context.Context, *models.Category) error
	listFn    func(context.Context) ([]models.Category, error)
	getByIDFn func(context.Context, string) (*models.Category, error)
	updateFn  func(context.Context, *models.Category) error
	deleteFn  func(context.Context, string) (bool, error)
	gameIDsFn func(context.Context, string) ([]string, error)
}

func (s *categoryRepoStub) Create(ctx context.Context, category *models.Category) error {
	return s.createFn(ctx, category)
}
func (s *categoryRepoStub) List(ctx context.Context) ([]models.Category, error) { return s.listFn(ctx) }
func (s *categoryRepoStub) GetByID(ctx context.Context, id string) (*models.Category, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) Update(ctx context.Context, category *models.Category) error {
	return s.updateFn(ctx, category)
}
func (s *categoryRepoStub) Delete(ctx context.Context, id string) (bool, error) {
	return s.deleteFn(ctx, id)
}
func (s *categoryRepoStub) GameIDs(ctx context.Context, id string) ([]string, error) {
	return s.gameIDsFn(ctx, id)
}

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		createFn:  func(context.Context, *models.Category) error { return nil },
		listFn:    func(context.Context) ([]models.Category, error) { return nil, nil },
		getByIDFn: func(_ context.Context, id string) (*models.Category, error) { return &models.Category{ID: id}, nil },
		updateFn:  func(context.Context, *models.Category) error { return nil },
		deleteFn:  func(context.Context, string) (bool, error) { return true, nil },
		gameIDsFn: func(context.Context, string) ([]string, error) { return nil, nil },
	}
}

type userRepoStub struct {
	createFn     func(context.Context, *models.User) error
	getByIDFn    func(context.Context, string) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error { return s.createFn(ctx, user) }
func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = "user-1"
			return nil
		},
		getByIDFn: func(_ context.Context, id string) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", email)
		},
	}
}

// eventRecorder collects published game events.
type eventRecorder struct {
	mu     sync.Mutex
	events []notifications.GameEvent
	err    error
}

func (r *eventRecorder) PublishGameEvent(_ context.Context, event notifications.GameEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *eventRecorder) all() []notifications.GameEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.GameEvent(nil), r.events...)
}

// useMiniredis points the package cache at a fresh miniredis for the duration of t.
// Tests calling it must not run in parallel.
func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeUnauthorized)
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
