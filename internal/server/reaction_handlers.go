package server

import (
	"context"

	"playhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type reactionOp func(ctx context.Context, gameID, userID string) (*service.ReactionResult, error)

func (s *Server) react(c *fiber.Ctx, op reactionOp) error {
	userID, _ := currentUserID(c)
	result, err := op(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(result)
}

// LikeGame handles POST /api/games/:id/like
// @Summary Like a game
// @Description Creates a like, keeps an existing like, or flips a dislike.
// @Tags reactions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Game ID"
// @Success 200 {object} service.ReactionResult
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{id}/like [post]
func (s *Server) LikeGame(c *fiber.Ctx) error {
	return s.react(c, s.reactionService.Like)
}

// DislikeGame handles POST /api/games/:id/dislike
// @Summary Dislike a game
// @Description Creates a dislike, keeps an existing dislike, or flips a like.
// @Tags reactions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Game ID"
// @Success 200 {object} service.ReactionResult
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{id}/dislike [post]
func (s *Server) DislikeGame(c *fiber.Ctx) error {
	return s.react(c, s.reactionService.Dislike)
}

// RemoveReaction handles DELETE /api/games/:id/reaction
// @Summary Remove the caller's reaction
// @Tags reactions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Game ID"
// @Success 200 {object} service.ReactionResult
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{id}/reaction [delete]
func (s *Server) RemoveReaction(c *fiber.Ctx) error {
	return s.react(c, s.reactionService.RemoveReaction)
}

// GetReactions handles GET /api/games/:id/reactions
// @Summary Like and dislike counts plus the caller's own reaction
// @Tags reactions
// @Produce json
// @Param id path string true "Game ID"
// @Success 200 {object} models.ReactionStats
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{id}/reactions [get]
func (s *Server) GetReactions(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		userID, _ = s.legacyUserID(c)
	}

	stats, err := s.reactionService.GetAggregate(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(stats)
}
