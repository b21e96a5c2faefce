// Package seed fills a database with starter content and fake data for
// development, demos and load tests.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"playhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every generated player.
const DefaultPassword = "password123"

// Options controls how much fake data the Factory generates.
type Options struct {
	Games              int
	Players            int
	ReactionsPerPlayer int
	// LikeRatio is the share of generated reactions that are likes.
	LikeRatio  float64
	SkipBcrypt bool
	DryRun     bool
	Seed       int64
}

// Factory builds fake domain entities and persists them.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	fake *gofakeit.Faker
}

// NewFactory creates a Factory. A zero Seed uses the current time.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.LikeRatio <= 0 || opts.LikeRatio > 1 {
		opts.LikeRatio = 0.75
	}
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(seed)),
		fake: gofakeit.New(seed),
	}
}

// BuildGame returns an unsaved game with fake content.
func (f *Factory) BuildGame(overrides ...func(*models.Game)) *models.Game {
	slug := f.fake.Username()
	game := &models.Game{
		Title:         f.fake.AppName(),
		Description:   f.fake.Sentence(12),
		Rating:        float64(f.rng.Intn(51)) / 10,
		Icon:          fmt.Sprintf("https://picsum.photos/seed/%s/256/256", slug),
		URL:           fmt.Sprintf("https://games.playhub.local/%s", slug),
		PublishStatus: f.rng.Intn(5) > 0,
		IsTrending:    f.rng.Intn(6) == 0,
		PlayCount:     int64(f.rng.Intn(5000)),
	}
	if game.PublishStatus {
		publishedAt := time.Now().Add(-time.Duration(f.rng.Intn(90*24)) * time.Hour)
		game.PublishedAt = &publishedAt
	}
	for _, override := range overrides {
		override(game)
	}
	return game
}

// CreateGames persists n fake games.
func (f *Factory) CreateGames(n int) ([]*models.Game, error) {
	games := make([]*models.Game, 0, n)
	for range n {
		games = append(games, f.BuildGame())
	}
	if n == 0 {
		return games, nil
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateGames: %d games (no DB write)", n)
		return games, nil
	}
	if err := f.db.Omit("Categories").CreateInBatches(&games, 100).Error; err != nil {
		return nil, fmt.Errorf("create games: %w", err)
	}
	return games, nil
}

// CreatePlayer persists one fake player account.
func (f *Factory) CreatePlayer(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Email: f.fake.Email(),
		Name:  f.fake.Name(),
	}

	if f.opts.SkipBcrypt {
		user.Password = DefaultPassword
	} else {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		log.Printf("[dry-run] CreatePlayer: %s", user.Email)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	return user, nil
}

// CreatePlayers persists n fake players with distinct emails.
func (f *Factory) CreatePlayers(n int) ([]*models.User, error) {
	players := make([]*models.User, 0, n)
	for i := range n {
		player, err := f.CreatePlayer(func(u *models.User) {
			u.Email = fmt.Sprintf("player%d.%s", i+1, f.fake.Email())
		})
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	return players, nil
}

// CreateReactions gives each player up to perPlayer reactions on distinct games.
// Pairs that already hold a reaction are left untouched.
func (f *Factory) CreateReactions(players []*models.User, games []*models.Game, perPlayer int) (int, error) {
	if len(games) == 0 || perPlayer <= 0 {
		return 0, nil
	}
	if perPlayer > len(games) {
		perPlayer = len(games)
	}

	var reactions []models.Reaction
	for _, player := range players {
		for _, idx := range f.rng.Perm(len(games))[:perPlayer] {
			kind := models.ReactionDislike
			if f.rng.Float64() < f.opts.LikeRatio {
				kind = models.ReactionLike
			}
			reactions = append(reactions, models.Reaction{
				UserID: player.ID,
				GameID: games[idx].ID,
				Kind:   kind,
			})
		}
	}

	if len(reactions) == 0 {
		return 0, nil
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateReactions: %d reactions (no DB write)", len(reactions))
		return len(reactions), nil
	}

	result := f.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "game_id"}},
		DoNothing: true,
	}).Omit("Game").CreateInBatches(&reactions, 200)
	if result.Error != nil {
		return 0, fmt.Errorf("create reactions: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// Run generates the configured amount of games, players and reactions.
func (f *Factory) Run() error {
	games, err := f.CreateGames(f.opts.Games)
	if err != nil {
		return err
	}
	players, err := f.CreatePlayers(f.opts.Players)
	if err != nil {
		return err
	}
	count, err := f.CreateReactions(players, games, f.opts.ReactionsPerPlayer)
	if err != nil {
		return err
	}
	log.Printf("Seeded %d games, %d players, %d reactions", len(games), len(players), count)
	return nil
}

// ClearAll deletes every seeded row, children first. Admin accounts are kept.
func ClearAll(db *gorm.DB) error {
	tables := []any{
		&models.Reaction{},
		&models.GameCategory{},
		&models.Game{},
		&models.Category{},
		&models.Page{},
		&models.User{},
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return fmt.Errorf("clear %T: %w", table, err)
			}
		}
		return nil
	})
}
