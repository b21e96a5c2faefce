package server

import (
	"playhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListGames handles GET /api/games
// @Summary List published games
// @Tags games
// @Produce json
// @Param search query string false "Title or description search"
// @Success 200 {array} models.Game
// @Router /games [get]
func (s *Server) ListGames(c *fiber.Ctx) error {
	games, err := s.gameService.List(c.UserContext(), c.Query("search"), true)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(games)
}

// ListAdminGames handles GET /api/games/admin/list
// @Summary List every game with paging and sorting (admin)
// @Tags games
// @Security BearerAuth
// @Produce json
// @Param search query string false "Search"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Param sortBy query string false "title|rating|publishStatus|isTrending|createdAt|publishedAt"
// @Param sortOrder query string false "ASC|DESC"
// @Success 200 {object} service.GamePage
// @Router /games/admin/list [get]
func (s *Server) ListAdminGames(c *fiber.Ctx) error {
	page, err := s.gameService.ListAdmin(c.UserContext(), service.AdminGameQuery{
		Search:    c.Query("search"),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 10),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// ListNewGames handles GET /api/games/new
// @Summary Newest published games
// @Tags games
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {array} models.Game
// @Router /games/new [get]
func (s *Server) ListNewGames(c *fiber.Ctx) error {
	games, err := s.gameService.ListNew(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(games)
}

// ListTrendingGames handles GET /api/games/trending
// @Summary Trending published games
// @Tags games
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {array} models.Game
// @Router /games/trending [get]
func (s *Server) ListTrendingGames(c *fiber.Ctx) error {
	games, err := s.gameService.ListTrending(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(games)
}

// GetGame handles GET /api/games/:id
// @Summary Game details
// @Tags games
// @Produce json
// @Param id path string true "Game ID"
// @Success 200 {object} models.Game
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{id} [get]
func (s *Server) GetGame(c *fiber.Ctx) error {
	game, err := s.gameService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(game)
}

// CreateGame handles POST /api/games
// @Summary Create a game (admin)
// @Tags games
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateGameInput true "Game"
// @Success 201 {object} models.Game
// @Failure 400 {object} models.ErrorResponse
// @Router /games [post]
func (s *Server) CreateGame(c *fiber.Ctx) error {
	var req service.CreateGameInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	game, err := s.gameService.Create(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(game)
}

// UpdateGame handles PATCH /api/games/:id
// @Summary Partially update a game (admin)
// @Tags games
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Game ID"
// @Param request body service.UpdateGameInput true "Fields to change"
// @Success 200 {object} models.Game
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{id} [patch]
func (s *Server) UpdateGame(c *fiber.Ctx) error {
	var req service.UpdateGameInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	game, err := s.gameService.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(game)
}

// DeleteGame handles DELETE /api/games/:id
// @Summary Delete a game with its reactions (admin)
// @Tags games
// @Security BearerAuth
// @Produce json
// @Param id path string true "Game ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{id} [delete]
func (s *Server) DeleteGame(c *fiber.Ctx) error {
	if err := s.gameService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return messageResponse(c, "Game deleted successfully")
}

// IncrementPlayCount handles POST /api/games/:id/increment-play-count
// @Summary Record one play
// @Tags games
// @Produce json
// @Param id path string true "Game ID"
// @Success 200 {object} object{playCount=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{id}/increment-play-count [post]
func (s *Server) IncrementPlayCount(c *fiber.Ctx) error {
	count, err := s.gameService.IncrementPlayCount(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"playCount": count})
}
