package server

import (
	"playhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/auth/signup
// @Summary Register a player account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignupInput true "Signup request"
// @Success 201 {object} service.UserSession
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	session, err := s.userService.Signup(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// Login handles POST /api/auth/login
// @Summary Player login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Login credentials"
// @Success 200 {object} service.UserSession
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	session, err := s.userService.Login(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(session)
}

// AdminLogin handles POST /api/admin/login. A new login replaces the admin's previous session.
// @Summary Admin login
// @Tags admin
// @Accept json
// @Produce json
// @Param request body service.AdminCredentials true "Admin credentials"
// @Success 200 {object} service.AdminSession
// @Failure 401 {object} models.ErrorResponse
// @Router /admin/login [post]
func (s *Server) AdminLogin(c *fiber.Ctx) error {
	var req service.AdminCredentials
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	session, err := s.adminService.Login(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(session)
}

// AdminLogout handles POST /api/admin/logout
// @Summary Admin logout
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /admin/logout [post]
func (s *Server) AdminLogout(c *fiber.Ctx) error {
	adminID, _ := c.Locals("adminID").(string)
	if err := s.adminService.Logout(c.UserContext(), adminID); err != nil {
		return s.respondError(c, err)
	}
	return messageResponse(c, "Logged out successfully")
}
