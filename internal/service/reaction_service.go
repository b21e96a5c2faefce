package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"playhub/internal/middleware"
	"playhub/internal/models"
	"playhub/internal/notifications"
	"playhub/internal/observability"
	"playhub/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ReactionResult describes what a like, dislike or remove call did.
type ReactionResult struct {
	Outcome models.ReactionOutcome `json:"-"`
	Message string                 `json:"message"`
	Kind    *models.ReactionKind   `json:"reactionType"`
}

// GameChecker is the existence check every reaction operation runs first.
type GameChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ReactionService maintains at most one like or dislike per (user, game) and the derived tallies.
type ReactionService struct {
	reactions repository.ReactionRepository
	games     GameChecker
	events    EventPublisher
}

// NewReactionService returns a new ReactionService. events may be nil.
func NewReactionService(
	reactions repository.ReactionRepository,
	games GameChecker,
	events EventPublisher,
) *ReactionService {
	return &ReactionService{
		reactions: reactions,
		games:     games,
		events:    events,
	}
}

// Like records a like: inserts one, keeps an existing like, or flips a dislike.
func (s *ReactionService) Like(ctx context.Context, gameID, userID string) (*ReactionResult, error) {
	return s.react(ctx, gameID, userID, models.ReactionLike)
}

// Dislike records a dislike: inserts one, keeps an existing dislike, or flips a like.
func (s *ReactionService) Dislike(ctx context.Context, gameID, userID string) (*ReactionResult, error) {
	return s.react(ctx, gameID, userID, models.ReactionDislike)
}

func (s *ReactionService) react(ctx context.Context, gameID, userID string, want models.ReactionKind) (*ReactionResult, error) {
	span, ctx := observability.NewSpan(ctx, "ReactionService."+string(want),
		attribute.String("game.id", gameID),
		attribute.String("reaction.kind", string(want)),
	)
	defer span.End()

	if err := s.checkGame(ctx, gameID, userID); err != nil {
		span.SetError(err)
		return nil, err
	}

	// Every lost race means another writer settled the pair in between, so the
	// next read sees a newer row. Only cancellation ends the loop early.
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			span.SetError(err)
			return nil, err
		}

		current, err := s.reactions.Get(ctx, gameID, userID)
		if err != nil {
			span.SetError(err)
			return nil, err
		}

		switch {
		case current == nil:
			inserted, err := s.reactions.Insert(ctx, &models.Reaction{GameID: gameID, UserID: userID, Kind: want})
			if err != nil && !errors.Is(err, repository.ErrConstraintViolation) {
				span.SetError(err)
				return nil, err
			}
			if !inserted {
				s.noteConflict(ctx, "insert", gameID, attempt)
				continue
			}
			span.SetOutcome(string(models.OutcomeCreated))
			return s.changed(ctx, string(want), gameID, models.OutcomeCreated, want), nil

		case current.Kind == want:
			span.SetOutcome(string(models.OutcomeAlready))
			return s.result(string(want), models.OutcomeAlready, want), nil

		default:
			swapped, err := s.reactions.CompareAndSwapKind(ctx, current.ID, current.Kind, want)
			if err != nil {
				span.SetError(err)
				return nil, err
			}
			if !swapped {
				s.noteConflict(ctx, "swap", gameID, attempt)
				continue
			}
			span.SetOutcome(string(models.OutcomeUpdated))
			return s.changed(ctx, string(want), gameID, models.OutcomeUpdated, want), nil
		}
	}
}

// RemoveReaction deletes the pair's reaction. Removing nothing is not an error.
func (s *ReactionService) RemoveReaction(ctx context.Context, gameID, userID string) (*ReactionResult, error) {
	span, ctx := observability.NewSpan(ctx, "ReactionService.remove", attribute.String("game.id", gameID))
	defer span.End()

	if err := s.checkGame(ctx, gameID, userID); err != nil {
		span.SetError(err)
		return nil, err
	}

	removed, err := s.reactions.DeleteByPair(ctx, gameID, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if !removed {
		span.SetOutcome(string(models.OutcomeNothingToRemove))
		return s.result("remove", models.OutcomeNothingToRemove, ""), nil
	}
	span.SetOutcome(string(models.OutcomeRemoved))
	return s.changed(ctx, "remove", gameID, models.OutcomeRemoved, ""), nil
}

// GetAggregate returns the game's like and dislike counts plus userID's own reaction.
// An empty userID leaves UserReaction nil.
func (s *ReactionService) GetAggregate(ctx context.Context, gameID, userID string) (*models.ReactionStats, error) {
	span, ctx := observability.NewSpan(ctx, "ReactionService.aggregate", attribute.String("game.id", gameID))
	defer span.End()

	if err := s.ensureGame(ctx, gameID); err != nil {
		span.SetError(err)
		return nil, err
	}

	stats, err := s.reactions.Aggregate(ctx, gameID, strings.TrimSpace(userID))
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return stats, nil
}

func (s *ReactionService) checkGame(ctx context.Context, gameID, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return models.NewValidationError("userId is required")
	}
	return s.ensureGame(ctx, gameID)
}

func (s *ReactionService) ensureGame(ctx context.Context, gameID string) error {
	if strings.TrimSpace(gameID) == "" {
		return models.NewNotFoundError("Game", gameID)
	}
	exists, err := s.games.Exists(ctx, gameID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("Game", gameID)
	}
	return nil
}

func (s *ReactionService) noteConflict(ctx context.Context, kind, gameID string, attempt int) {
	observability.ReactionConflicts.WithLabelValues(kind).Inc()
	middleware.Logger.DebugContext(ctx, "reaction write lost a race, re-reading",
		slog.String("conflict", kind),
		slog.String("game_id", gameID),
		slog.Int("attempt", attempt),
	)
}

// changed finishes a call that wrote a row by announcing the game's new tally.
func (s *ReactionService) changed(ctx context.Context, op, gameID string, outcome models.ReactionOutcome, kind models.ReactionKind) *ReactionResult {
	if s.events != nil {
		if stats, err := s.reactions.Aggregate(ctx, gameID, ""); err == nil {
			publish(ctx, s.events, notifications.ReactionChanged(gameID, stats.LikeCount, stats.DislikeCount))
		}
	}
	return s.result(op, outcome, kind)
}

func (s *ReactionService) result(op string, outcome models.ReactionOutcome, kind models.ReactionKind) *ReactionResult {
	observability.ReactionOperations.WithLabelValues(op, string(outcome)).Inc()
	result := &ReactionResult{Outcome: outcome, Message: reactionMessage(outcome, kind)}
	if kind != "" {
		result.Kind = &kind
	}
	return result
}

func reactionMessage(outcome models.ReactionOutcome, kind models.ReactionKind) string {
	switch outcome {
	case models.OutcomeCreated:
		if kind == models.ReactionLike {
			return "Game liked successfully"
		}
		return "Game disliked successfully"
	case models.OutcomeAlready:
		if kind == models.ReactionLike {
			return "Game already liked"
		}
		return "Game already disliked"
	case models.OutcomeUpdated:
		return "Reaction updated to " + string(kind)
	case models.OutcomeRemoved:
		return "Reaction removed successfully"
	default:
		return "No reaction to remove"
	}
}
