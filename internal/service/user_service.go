package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"playhub/internal/auth"
	"playhub/internal/models"
	"playhub/internal/repository"
	"playhub/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// TokenSigner issues and verifies bearer tokens.
type TokenSigner interface {
	Issue(subject, audience, role string, ttl time.Duration) (string, time.Time, error)
	Parse(token, audience string) (*auth.Claims, error)
}

// SignupInput is the body of a player registration.
type SignupInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginInput is the body of a player login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserSession is returned after a successful player signup or login.
type UserSession struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// UserService registers and authenticates players.
type UserService struct {
	users    repository.UserRepository
	tokens   TokenSigner
	tokenTTL time.Duration
	hashCost int
}

// NewUserService returns a new UserService.
func NewUserService(users repository.UserRepository, tokens TokenSigner, tokenTTL time.Duration) *UserService {
	return &UserService{
		users:    users,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		hashCost: bcrypt.DefaultCost,
	}
}

func (s *UserService) Signup(ctx context.Context, in SignupInput) (*UserSession, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" {
		return nil, models.NewValidationError("email and password are required")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(name) > 100 {
		return nil, models.NewValidationError("name must not exceed 100 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Email: email, Name: name, Password: string(hashed)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConstraintViolation) {
			return nil, models.NewConflictError("an account with this email already exists")
		}
		return nil, err
	}

	return s.session(user)
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*UserSession, error) {
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return s.session(user)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Authenticate verifies a player token and returns the user ID it was issued to.
func (s *UserService) Authenticate(token string) (string, error) {
	claims, err := s.tokens.Parse(token, auth.AudienceClient)
	if err != nil || claims.Role != auth.RolePlayer {
		return "", models.NewUnauthorizedError("Invalid or expired token")
	}
	return claims.Subject, nil
}

func (s *UserService) session(user *models.User) (*UserSession, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, auth.AudienceClient, auth.RolePlayer, s.tokenTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &UserSession{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
