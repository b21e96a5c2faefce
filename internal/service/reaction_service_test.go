package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"playhub/internal/models"
	"playhub/internal/notifications"
	"playhub/internal/repository"
	"playhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLedger(t *testing.T) (*ReactionService, *gorm.DB, *eventRecorder) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	events := &eventRecorder{}
	svc := NewReactionService(
		repository.NewReactionRepository(db),
		repository.NewGameRepository(db),
		events,
	)
	return svc, db, events
}

func countReactions(t *testing.T, db *gorm.DB, gameID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Reaction{}).Where("game_id = ?", gameID).Count(&n).Error)
	return n
}

func TestReactionService_StateMachine(t *testing.T) {
	t.Parallel()
	svc, db, _ := newLedger(t)
	ctx := context.Background()
	game := testutil.CreateGame(t, db, "Space Dash")

	res, err := svc.Like(ctx, game.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCreated, res.Outcome)
	assert.Equal(t, "Game liked successfully", res.Message)
	require.NotNil(t, res.Kind)
	assert.Equal(t, models.ReactionLike, *res.Kind)

	var first models.Reaction
	require.NoError(t, db.First(&first, "game_id = ? AND user_id = ?", game.ID, "u1").Error)

	res, err = svc.Like(ctx, game.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlready, res.Outcome)
	assert.Equal(t, "Game already liked", res.Message)

	res, err = svc.Dislike(ctx, game.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUpdated, res.Outcome)
	assert.Equal(t, "Reaction updated to dislike", res.Message)

	var flipped models.Reaction
	require.NoError(t, db.First(&flipped, "game_id = ? AND user_id = ?", game.ID, "u1").Error)
	assert.Equal(t, first.ID, flipped.ID, "a flip updates the row in place")
	assert.Equal(t, models.ReactionDislike, flipped.Kind)

	res, err = svc.Dislike(ctx, game.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Game already disliked", res.Message)

	res, err = svc.Like(ctx, game.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Reaction updated to like", res.Message)

	res, err = svc.RemoveReaction(ctx, game.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRemoved, res.Outcome)
	assert.Equal(t, "Reaction removed successfully", res.Message)
	assert.Nil(t, res.Kind)
	assert.Zero(t, countReactions(t, db, game.ID))

	res, err = svc.RemoveReaction(ctx, game.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNothingToRemove, res.Outcome)
	assert.Equal(t, "No reaction to remove", res.Message)
}

func TestReactionService_DislikeFromNothing(t *testing.T) {
	t.Parallel()
	svc, db, _ := newLedger(t)
	game := testutil.CreateGame(t, db, "Puzzle Box")

	res, err := svc.Dislike(context.Background(), game.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Game disliked successfully", res.Message)
	assert.Equal(t, int64(1), countReactions(t, db, game.ID))
}

func TestReactionService_Aggregate(t *testing.T) {
	t.Parallel()
	svc, db, _ := newLedger(t)
	ctx := context.Background()
	game := testutil.CreateGame(t, db, "Tower Stack")
	other := testutil.CreateGame(t, db, "Other")

	for _, user := range []string{"a", "b", "c"} {
		_, err := svc.Like(ctx, game.ID, user)
		require.NoError(t, err)
	}
	_, err := svc.Dislike(ctx, game.ID, "d")
	require.NoError(t, err)
	_, err = svc.Like(ctx, other.ID, "a")
	require.NoError(t, err)

	stats, err := svc.GetAggregate(ctx, game.ID, "d")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.LikeCount)
	assert.Equal(t, int64(1), stats.DislikeCount)
	require.NotNil(t, stats.UserReaction)
	assert.Equal(t, models.ReactionDislike, *stats.UserReaction)

	stats, err = svc.GetAggregate(ctx, game.ID, "")
	require.NoError(t, err)
	assert.Nil(t, stats.UserReaction)

	stats, err = svc.GetAggregate(ctx, game.ID, "nobody")
	require.NoError(t, err)
	assert.Nil(t, stats.UserReaction)

	fresh := testutil.CreateGame(t, db, "Fresh")
	stats, err = svc.GetAggregate(ctx, fresh.ID, "a")
	require.NoError(t, err)
	assert.Zero(t, stats.LikeCount)
	assert.Zero(t, stats.DislikeCount)
}

func TestReactionService_TwoUsersOneGame(t *testing.T) {
	t.Parallel()
	svc, db, _ := newLedger(t)
	ctx := context.Background()
	g1 := testutil.CreateGame(t, db, "G1")

	_, err := svc.Like(ctx, g1.ID, "U1")
	require.NoError(t, err)
	_, err = svc.Dislike(ctx, g1.ID, "U2")
	require.NoError(t, err)
	_, err = svc.Dislike(ctx, g1.ID, "U1")
	require.NoError(t, err)

	stats, err := svc.GetAggregate(ctx, g1.ID, "U1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.LikeCount)
	assert.Equal(t, int64(2), stats.DislikeCount)

	_, err = svc.RemoveReaction(ctx, g1.ID, "U2")
	require.NoError(t, err)
	stats, err = svc.GetAggregate(ctx, g1.ID, "U2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.DislikeCount)
	assert.Nil(t, stats.UserReaction)
}

func TestReactionService_UnknownGame(t *testing.T) {
	t.Parallel()
	svc, db, events := newLedger(t)
	ctx := context.Background()

	_, err := svc.Like(ctx, "missing-game", "u1")
	assert.True(t, models.IsNotFound(err), "got %v", err)
	_, err = svc.Dislike(ctx, "missing-game", "u1")
	assert.True(t, models.IsNotFound(err))
	_, err = svc.RemoveReaction(ctx, "missing-game", "u1")
	assert.True(t, models.IsNotFound(err))
	_, err = svc.GetAggregate(ctx, "missing-game", "u1")
	assert.True(t, models.IsNotFound(err))

	var n int64
	require.NoError(t, db.Model(&models.Reaction{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, events.all())
}

func TestReactionService_RequiresUser(t *testing.T) {
	t.Parallel()
	games := &gameCheckerStub{exists: true}
	svc := NewReactionService(noopReactionRepo(), games, nil)

	_, err := svc.Like(context.Background(), "g1", "  ")
	assertValidationError(t, err)
	_, err = svc.RemoveReaction(context.Background(), "g1", "")
	assertValidationError(t, err)
	assert.Zero(t, games.calls)
}

func TestReactionService_ConcurrentLikesKeepOneRow(t *testing.T) {
	t.Parallel()
	svc, db, _ := newLedger(t)
	game := testutil.CreateGame(t, db, "Race")

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[models.ReactionOutcome]int{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Like(context.Background(), game.ID, "same-user")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			outcomes[res.Outcome]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, outcomes[models.OutcomeCreated])
	assert.Equal(t, workers-1, outcomes[models.OutcomeAlready])
	assert.Equal(t, int64(1), countReactions(t, db, game.ID))

	stats, err := svc.GetAggregate(context.Background(), game.ID, "same-user")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.LikeCount)
}

func TestReactionService_ConcurrentMixedWritesStayConsistent(t *testing.T) {
	t.Parallel()
	svc, db, _ := newLedger(t)
	game := testutil.CreateGame(t, db, "Flip")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = svc.Like(context.Background(), game.ID, "flipper")
			} else {
				_, err = svc.Dislike(context.Background(), game.ID, "flipper")
			}
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), countReactions(t, db, game.ID))
	stats, err := svc.GetAggregate(context.Background(), game.ID, "flipper")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.LikeCount+stats.DislikeCount)
	require.NotNil(t, stats.UserReaction)
}

func TestReactionService_InsertConflictRereads(t *testing.T) {
	t.Parallel()
	repo := noopReactionRepo()
	gets := 0
	repo.getFn = func(_ context.Context, gameID, userID string) (*models.Reaction, error) {
		gets++
		if gets == 1 {
			return nil, nil
		}
		return &models.Reaction{ID: "r1", GameID: gameID, UserID: userID, Kind: models.ReactionLike}, nil
	}
	repo.insertFn = func(context.Context, *models.Reaction) (bool, error) { return false, nil }
	svc := NewReactionService(repo, &gameCheckerStub{exists: true}, nil)

	res, err := svc.Like(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlready, res.Outcome)
	assert.Equal(t, 2, gets)
}

func TestReactionService_InsertConflictThenFlip(t *testing.T) {
	t.Parallel()
	repo := noopReactionRepo()
	gets := 0
	repo.getFn = func(_ context.Context, gameID, userID string) (*models.Reaction, error) {
		gets++
		if gets == 1 {
			return nil, nil
		}
		return &models.Reaction{ID: "r1", Kind: models.ReactionDislike}, nil
	}
	repo.insertFn = func(context.Context, *models.Reaction) (bool, error) {
		return false, errors.Join(repository.ErrConstraintViolation, errors.New("duplicate key"))
	}
	var swapped []models.ReactionKind
	repo.casFn = func(_ context.Context, id string, from, to models.ReactionKind) (bool, error) {
		assert.Equal(t, "r1", id)
		swapped = append(swapped, from, to)
		return true, nil
	}
	svc := NewReactionService(repo, &gameCheckerStub{exists: true}, nil)

	res, err := svc.Like(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUpdated, res.Outcome)
	assert.Equal(t, []models.ReactionKind{models.ReactionDislike, models.ReactionLike}, swapped)
}

func TestReactionService_KeepsReconcilingUntilSettled(t *testing.T) {
	t.Parallel()
	repo := noopReactionRepo()
	gets, swaps := 0, 0
	repo.getFn = func(context.Context, string, string) (*models.Reaction, error) {
		gets++
		return &models.Reaction{ID: "r1", Kind: models.ReactionDislike}, nil
	}
	repo.casFn = func(context.Context, string, models.ReactionKind, models.ReactionKind) (bool, error) {
		swaps++
		return swaps > 5, nil
	}
	events := &eventRecorder{}
	svc := NewReactionService(repo, &gameCheckerStub{exists: true}, events)

	res, err := svc.Like(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUpdated, res.Outcome)
	assert.Equal(t, 6, gets)
	assert.Equal(t, 6, swaps)
	assert.Len(t, events.all(), 1)
}

func TestReactionService_CancelledContextStopsReconciling(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := noopReactionRepo()
	repo.getFn = func(context.Context, string, string) (*models.Reaction, error) {
		return &models.Reaction{ID: "r1", Kind: models.ReactionDislike}, nil
	}
	swaps := 0
	repo.casFn = func(context.Context, string, models.ReactionKind, models.ReactionKind) (bool, error) {
		swaps++
		if swaps == 4 {
			cancel()
		}
		return false, nil
	}
	events := &eventRecorder{}
	svc := NewReactionService(repo, &gameCheckerStub{exists: true}, events)

	_, err := svc.Like(ctx, "g1", "u1")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, swaps)
	assert.Empty(t, events.all())
}

func TestReactionService_RepeatedInsertConflicts(t *testing.T) {
	t.Parallel()
	repo := noopReactionRepo()
	inserts := 0
	repo.insertFn = func(context.Context, *models.Reaction) (bool, error) {
		inserts++
		if inserts < 5 {
			return false, repository.ErrConstraintViolation
		}
		return true, nil
	}
	svc := NewReactionService(repo, &gameCheckerStub{exists: true}, nil)

	res, err := svc.Dislike(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCreated, res.Outcome)
	assert.Equal(t, 5, inserts)
}

func TestReactionService_StorageErrorsPassThrough(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection reset")

	t.Run("get", func(t *testing.T) {
		t.Parallel()
		repo := noopReactionRepo()
		repo.getFn = func(context.Context, string, string) (*models.Reaction, error) { return nil, boom }
		svc := NewReactionService(repo, &gameCheckerStub{exists: true}, nil)
		_, err := svc.Like(context.Background(), "g1", "u1")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("insert", func(t *testing.T) {
		t.Parallel()
		repo := noopReactionRepo()
		repo.insertFn = func(context.Context, *models.Reaction) (bool, error) { return false, boom }
		svc := NewReactionService(repo, &gameCheckerStub{exists: true}, nil)
		_, err := svc.Like(context.Background(), "g1", "u1")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("swap", func(t *testing.T) {
		t.Parallel()
		repo := noopReactionRepo()
		repo.getFn = func(context.Context, string, string) (*models.Reaction, error) {
			return &models.Reaction{ID: "r1", Kind: models.ReactionLike}, nil
		}
		repo.casFn = func(context.Context, string, models.ReactionKind, models.ReactionKind) (bool, error) {
			return false, boom
		}
		svc := NewReactionService(repo, &gameCheckerStub{exists: true}, nil)
		_, err := svc.Dislike(context.Background(), "g1", "u1")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("existence check", func(t *testing.T) {
		t.Parallel()
		svc := NewReactionService(noopReactionRepo(), &gameCheckerStub{err: boom}, nil)
		_, err := svc.RemoveReaction(context.Background(), "g1", "u1")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		repo := noopReactionRepo()
		repo.deleteByPairFn = func(context.Context, string, string) (bool, error) { return false, boom }
		svc := NewReactionService(repo, &gameCheckerStub{exists: true}, nil)
		_, err := svc.RemoveReaction(context.Background(), "g1", "u1")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("aggregate", func(t *testing.T) {
		t.Parallel()
		repo := noopReactionRepo()
		repo.aggregateFn = func(context.Context, string, string) (*models.ReactionStats, error) { return nil, boom }
		svc := NewReactionService(repo, &gameCheckerStub{exists: true}, nil)
		_, err := svc.GetAggregate(context.Background(), "g1", "u1")
		assert.ErrorIs(t, err, boom)
	})
}

func TestReactionService_PublishesTallyAfterWrites(t *testing.T) {
	t.Parallel()
	svc, db, events := newLedger(t)
	ctx := context.Background()
	game := testutil.CreateGame(t, db, "Broadcast")

	_, err := svc.Like(ctx, game.ID, "u1")
	require.NoError(t, err)
	_, err = svc.Like(ctx, game.ID, "u1")
	require.NoError(t, err)
	_, err = svc.Dislike(ctx, game.ID, "u2")
	require.NoError(t, err)
	_, err = svc.RemoveReaction(ctx, game.ID, "nobody")
	require.NoError(t, err)

	got := events.all()
	require.Len(t, got, 2, "only calls that wrote a row publish")
	for _, ev := range got {
		assert.Equal(t, notifications.EventReactionChanged, ev.Type)
		assert.Equal(t, game.ID, ev.GameID)
	}
	require.NotNil(t, got[1].LikeCount)
	require.NotNil(t, got[1].DislikeCount)
	assert.Equal(t, int64(1), *got[1].LikeCount)
	assert.Equal(t, int64(1), *got[1].DislikeCount)
}

func TestReactionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()
	events := &eventRecorder{err: errors.New("redis down")}
	svc := NewReactionService(noopReactionRepo(), &gameCheckerStub{exists: true}, events)

	res, err := svc.Like(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCreated, res.Outcome)
	assert.Len(t, events.all(), 1)
}

// aggregateHook runs after once the first aggregate read has returned, standing in
// for a write that commits between a reader's count and whatever it does next.
type aggregateHook struct {
	repository.ReactionRepository
	after func()
}

func (r *aggregateHook) Aggregate(ctx context.Context, gameID, userID string) (*models.ReactionStats, error) {
	stats, err := r.ReactionRepository.Aggregate(ctx, gameID, userID)
	if r.after != nil {
		after := r.after
		r.after = nil
		after()
	}
	return stats, err
}

func TestReactionService_AggregateSeesWritesCommittedAfterEarlierRead(t *testing.T) {
	mr := useMiniredis(t)
	db := testutil.NewSQLiteDB(t)
	game := testutil.CreateGame(t, db, "Snapshot")
	ctx := context.Background()

	reactions := repository.NewReactionRepository(db)
	games := repository.NewGameRepository(db)
	writer := NewReactionService(reactions, games, nil)

	hook := &aggregateHook{ReactionRepository: reactions}
	hook.after = func() {
		_, err := writer.Like(ctx, game.ID, "u1")
		require.NoError(t, err)
	}
	reader := NewReactionService(hook, games, nil)

	before, err := reader.GetAggregate(ctx, game.ID, "u1")
	require.NoError(t, err)
	assert.Zero(t, before.LikeCount)
	assert.Nil(t, before.UserReaction)

	after, err := reader.GetAggregate(ctx, game.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.LikeCount)
	require.NotNil(t, after.UserReaction)
	assert.Equal(t, models.ReactionLike, *after.UserReaction)
	assert.Empty(t, mr.Keys(), "reaction tallies are never cached")
}

func TestReactionService_AggregateCountsAndUserReactionAgree(t *testing.T) {
	t.Parallel()
	svc, db, _ := newLedger(t)
	game := testutil.CreateGame(t, db, "Agree")
	ctx := context.Background()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			var err error
			switch i % 3 {
			case 0:
				_, err = svc.Like(ctx, game.ID, "u1")
			case 1:
				_, err = svc.Dislike(ctx, game.ID, "u1")
			default:
				_, err = svc.RemoveReaction(ctx, game.ID, "u1")
			}
			assert.NoError(t, err)
		}
	}()

	for i := 0; i < 50; i++ {
		stats, err := svc.GetAggregate(ctx, game.ID, "u1")
		require.NoError(t, err)
		switch {
		case stats.UserReaction == nil:
			assert.Zero(t, stats.LikeCount+stats.DislikeCount)
		case *stats.UserReaction == models.ReactionLike:
			assert.Equal(t, int64(1), stats.LikeCount)
			assert.Zero(t, stats.DislikeCount)
		default:
			assert.Zero(t, stats.LikeCount)
			assert.Equal(t, int64(1), stats.DislikeCount)
		}
	}
	close(stop)
	wg.Wait()
}
