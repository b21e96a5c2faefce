package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"playhub/internal/auth"
	"playhub/internal/middleware"
	"playhub/internal/models"
	"playhub/internal/repository"
	"playhub/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AdminCredentials is the body of an admin login and of admin creation.
type AdminCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminSession is returned after a successful admin login.
type AdminSession struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Admin     *models.Admin `json:"admin"`
}

// AdminService manages admin accounts and their single active session.
type AdminService struct {
	admins   repository.AdminRepository
	tokens   TokenSigner
	sessions auth.SessionStore
	tokenTTL time.Duration
	hashCost int
}

// NewAdminService returns a new AdminService.
func NewAdminService(
	admins repository.AdminRepository,
	tokens TokenSigner,
	sessions auth.SessionStore,
	tokenTTL time.Duration,
) *AdminService {
	return &AdminService{
		admins:   admins,
		tokens:   tokens,
		sessions: sessions,
		tokenTTL: tokenTTL,
		hashCost: bcrypt.DefaultCost,
	}
}

// Create adds an admin account. Usernames are unique.
func (s *AdminService) Create(ctx context.Context, in AdminCredentials) (*models.Admin, error) {
	username := strings.TrimSpace(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	admin := &models.Admin{Username: username, Password: string(hashed)}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrConstraintViolation) {
			return nil, models.NewConflictError("admin " + username + " already exists")
		}
		return nil, err
	}
	return admin, nil
}

// EnsureAdmin creates the admin when no account with that username exists yet.
func (s *AdminService) EnsureAdmin(ctx context.Context, in AdminCredentials) (bool, error) {
	_, err := s.admins.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err == nil {
		return false, nil
	}
	if !models.IsNotFound(err) {
		return false, err
	}

	admin, err := s.Create(ctx, in)
	if err != nil {
		if models.HasCode(err, models.CodeConflict) {
			return false, nil
		}
		return false, err
	}
	middleware.Logger.InfoContext(ctx, "Bootstrap admin created", slog.String("admin_id", admin.ID), slog.String("username", admin.Username))
	return true, nil
}

func (s *AdminService) List(ctx context.Context) ([]models.Admin, error) {
	return s.admins.List(ctx)
}

// Login checks credentials and starts a new session, replacing any previous one.
func (s *AdminService) Login(ctx context.Context, in AdminCredentials) (*AdminSession, error) {
	admin, err := s.admins.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	token, expiresAt, err := s.tokens.Issue(admin.ID, auth.AudienceAdmin, auth.RoleAdmin, s.tokenTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.sessions.Save(ctx, admin.ID, token, s.tokenTTL); err != nil {
		return nil, models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "Admin logged in", slog.String("admin_id", admin.ID))
	return &AdminSession{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

// Logout ends the admin's current session.
func (s *AdminService) Logout(ctx context.Context, adminID string) error {
	return s.sessions.Revoke(ctx, adminID)
}

// Revoke ends another admin's session by ID.
func (s *AdminService) Revoke(ctx context.Context, adminID string) error {
	if _, err := s.admins.GetByID(ctx, adminID); err != nil {
		return err
	}
	return s.sessions.Revoke(ctx, adminID)
}

// Authenticate verifies an admin token and that it is still the admin's live session.
func (s *AdminService) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := s.tokens.Parse(token, auth.AudienceAdmin)
	if err != nil || claims.Role != auth.RoleAdmin {
		return "", models.NewUnauthorizedError("Invalid or expired token")
	}

	valid, err := s.sessions.IsValid(ctx, claims.Subject, token)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if !valid {
		return "", models.NewUnauthorizedError("Session is no longer active")
	}
	return claims.Subject, nil
}
