package repository

import (
	"context"
	"regexp"
	"testing"

	"playhub/internal/models"
	"playhub/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameRepository_CreateLinksCategories(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	puzzle := testutil.CreateCategory(t, db, "Puzzle")
	arcade := testutil.CreateCategory(t, db, "Arcade")
	repo := NewGameRepository(db)
	ctx := context.Background()

	game := &models.Game{Title: "Tile Match", Description: "Match tiles", Rating: 4.2}
	require.NoError(t, repo.Create(ctx, game, []string{puzzle.ID, arcade.ID, puzzle.ID}))
	require.Len(t, game.Categories, 2)
	assert.Equal(t, "Arcade", game.Categories[0].Name)

	got, err := repo.GetByID(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, got.Categories, 2)
}

func TestGameRepository_CreateWithUnknownCategoryPersistsNothing(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGameRepository(db)

	game := &models.Game{Title: "Tile Match", Description: "Match tiles"}
	err := repo.Create(context.Background(), game, []string{"nope"})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	var count int64
	require.NoError(t, db.Model(&models.Game{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGameRepository_GetByIDNotFound(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	_, err := NewGameRepository(db).GetByID(context.Background(), "missing")
	assert.True(t, models.IsNotFound(err))
}

func TestGameRepository_ListFilters(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGameRepository(db)
	ctx := context.Background()

	testutil.CreateGame(t, db, "Space Blaster")
	trending := testutil.CreateGame(t, db, "Space Racer")
	require.NoError(t, db.Model(trending).Update("is_trending", true).Error)
	draft := &models.Game{Title: "Space Draft", Description: "unpublished"}
	require.NoError(t, db.Omit("Categories").Create(draft).Error)

	games, total, err := repo.List(ctx, GameFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, games, 3)

	games, total, err = repo.List(ctx, GameFilter{PublishedOnly: true, Search: "SPACE"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, games, 2)

	games, _, err = repo.List(ctx, GameFilter{PublishedOnly: true, TrendingOnly: true})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, trending.ID, games[0].ID)

	games, total, err = repo.List(ctx, GameFilter{OrderBy: "title ASC", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, games, 1)
	assert.Equal(t, "Space Draft", games[0].Title)
}

func TestGameRepository_UpdateReplacesCategories(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	puzzle := testutil.CreateCategory(t, db, "Puzzle")
	arcade := testutil.CreateCategory(t, db, "Arcade")
	repo := NewGameRepository(db)
	ctx := context.Background()

	game := &models.Game{Title: "Tile Match", Description: "Match tiles"}
	require.NoError(t, repo.Create(ctx, game, []string{puzzle.ID}))

	game.Title = "Tile Match Deluxe"
	game.PublishStatus = false
	require.NoError(t, repo.Update(ctx, game, []string{arcade.ID}))

	got, err := repo.GetByID(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tile Match Deluxe", got.Title)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, arcade.ID, got.Categories[0].ID)

	require.NoError(t, repo.Update(ctx, got, nil))
	got, err = repo.GetByID(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, got.Categories, 1, "nil category ids leave links untouched")
}

func TestGameRepository_DeleteRemovesReactionsAndLinks(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	category := testutil.CreateCategory(t, db, "Puzzle")
	repo := NewGameRepository(db)
	ctx := context.Background()

	game := &models.Game{Title: "Tile Match", Description: "Match tiles"}
	require.NoError(t, repo.Create(ctx, game, []string{category.ID}))
	mustInsert(t, NewReactionRepository(db), game.ID, "U1", models.ReactionLike)

	deleted, err := repo.Delete(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	var reactions, links int64
	require.NoError(t, db.Model(&models.Reaction{}).Count(&reactions).Error)
	require.NoError(t, db.Model(&models.GameCategory{}).Count(&links).Error)
	assert.Zero(t, reactions)
	assert.Zero(t, links)

	deleted, err = repo.Delete(ctx, game.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGameRepository_IncrementPlayCount(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	game := testutil.CreateGame(t, db, "Tile Match")
	repo := NewGameRepository(db)
	ctx := context.Background()

	count, err := repo.IncrementPlayCount(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.IncrementPlayCount(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = repo.IncrementPlayCount(ctx, "missing")
	assert.True(t, models.IsNotFound(err))
}

func TestGameRepository_ExistsSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGameRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "games" WHERE id = $1`)).
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "games" WHERE id = $1`)).
		WithArgs("g2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := repo.Exists(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(context.Background(), "g2")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
