package server

import (
	"playhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCategories handles GET /api/categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *Server) ListCategories(c *fiber.Ctx) error {
	categories, err := s.categoryService.List(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(categories)
}

// GetCategory handles GET /api/categories/:id
// @Summary Category details
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.Category
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	category, err := s.categoryService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(category)
}

// CreateCategory handles POST /api/categories
// @Summary Create a category (admin)
// @Tags categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CategoryInput true "Category"
// @Success 201 {object} models.Category
// @Router /categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req service.CategoryInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	category, err := s.categoryService.Create(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory handles PATCH /api/categories/:id
// @Summary Update a category (admin)
// @Tags categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param request body service.CategoryInput true "Fields to change"
// @Success 200 {object} models.Category
// @Router /categories/{id} [patch]
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	var req service.CategoryInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	category, err := s.categoryService.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/categories/:id
// @Summary Delete a category (admin)
// @Tags categories
// @Security BearerAuth
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} object{message=string}
// @Router /categories/{id} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	if err := s.categoryService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return messageResponse(c, "Category deleted successfully")
}

// ListPages handles GET /api/pages
// @Summary List published pages
// @Tags pages
// @Produce json
// @Success 200 {array} models.Page
// @Router /pages [get]
func (s *Server) ListPages(c *fiber.Ctx) error {
	pages, err := s.pageService.List(c.UserContext(), true)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(pages)
}

// ListAdminPages handles GET /api/pages/admin/list
// @Summary List every page including drafts (admin)
// @Tags pages
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Page
// @Router /pages/admin/list [get]
func (s *Server) ListAdminPages(c *fiber.Ctx) error {
	pages, err := s.pageService.List(c.UserContext(), false)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(pages)
}

// GetAdminPage handles GET /api/pages/admin/:id
// @Summary Page details by ID including drafts (admin)
// @Tags pages
// @Security BearerAuth
// @Produce json
// @Param id path string true "Page ID"
// @Success 200 {object} models.Page
// @Failure 404 {object} models.ErrorResponse
// @Router /pages/admin/{id} [get]
func (s *Server) GetAdminPage(c *fiber.Ctx) error {
	page, err := s.pageService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// GetPage handles GET /api/pages/:id
// @Summary Published page details by ID
// @Tags pages
// @Produce json
// @Param id path string true "Page ID"
// @Success 200 {object} models.Page
// @Failure 404 {object} models.ErrorResponse
// @Router /pages/{id} [get]
func (s *Server) GetPage(c *fiber.Ctx) error {
	page, err := s.pageService.GetPublished(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// GetPageBySlug handles GET /api/pages/slug/:slug
// @Summary Published page by slug
// @Tags pages
// @Produce json
// @Param slug path string true "Page slug"
// @Success 200 {object} models.Page
// @Failure 404 {object} models.ErrorResponse
// @Router /pages/slug/{slug} [get]
func (s *Server) GetPageBySlug(c *fiber.Ctx) error {
	page, err := s.pageService.GetPublishedBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// CreatePage handles POST /api/pages
// @Summary Create a page (admin)
// @Tags pages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.PageInput true "Page"
// @Success 201 {object} models.Page
// @Failure 409 {object} models.ErrorResponse
// @Router /pages [post]
func (s *Server) CreatePage(c *fiber.Ctx) error {
	var req service.PageInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	page, err := s.pageService.Create(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(page)
}

// UpdatePage handles PATCH /api/pages/:id
// @Summary Update a page (admin)
// @Tags pages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Page ID"
// @Param request body service.PageInput true "Fields to change"
// @Success 200 {object} models.Page
// @Router /pages/{id} [patch]
func (s *Server) UpdatePage(c *fiber.Ctx) error {
	var req service.PageInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	page, err := s.pageService.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// DeletePage handles DELETE /api/pages/:id
// @Summary Delete a page (admin)
// @Tags pages
// @Security BearerAuth
// @Produce json
// @Param id path string true "Page ID"
// @Success 200 {object} object{message=string}
// @Router /pages/{id} [delete]
func (s *Server) DeletePage(c *fiber.Ctx) error {
	if err := s.pageService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return messageResponse(c, "Page deleted successfully")
}
