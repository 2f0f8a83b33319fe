package service

import (
	"context"
	"errors"
	"time"

	autherrors "roombook/internal/auth/errors"
	"roombook/internal/auth/repository"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=1,max=150"`
	Password1 string `json:"password1" validate:"required,min=8,max=128"`
	Password2 string `json:"password2" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ProfileUpdate struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1,max=150"`
}

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) error
	Login(ctx context.Context, req *LoginRequest) (string, error)
	Logout(ctx context.Context, tokenKey string) error
	Authenticate(ctx context.Context, tokenKey string) (*model.Principal, error)
	Profile(ctx context.Context, principal *model.Principal) (*model.User, error)
	UpdateProfile(ctx context.Context, principal *model.Principal, updates *ProfileUpdate) (*model.User, error)
	EnsureSuperuser(ctx context.Context, username, password string) error
}

type authService struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository, cfg *config.Config) AuthService {
	return &authService{
		users:    users,
		tokens:   tokens,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) error {
	if err := s.validate.Struct(req); err != nil {
		s.cfg.Log.Warn("Registration validation failed", "error", err)
		return apperrors.Validation("Invalid registration input", map[string]any{"error": err.Error()})
	}
	if req.Password1 != req.Password2 {
		return apperrors.Validation("The two password fields didn't match", map[string]any{"field": "password2"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password1), s.cfg.BcryptCost)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, autherrors.ErrDuplicateUsername) {
			return apperrors.Validation("A user with that username already exists", map[string]any{"field": "username"})
		}
		return apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User registered", "user_id", user.ID, "username", user.Username)
	return nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", apperrors.Validation("Invalid login input", map[string]any{"error": err.Error()})
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			return "", invalidCredentials()
		}
		return "", apperrors.Internal("Failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)); err != nil {
		return "", invalidCredentials()
	}

	token := &model.Token{
		Key:       uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(s.cfg.TokenTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("User logged in", "user_id", user.ID, "username", user.Username)
	return token.Key, nil
}

func (s *authService) Logout(ctx context.Context, tokenKey string) error {
	if err := s.tokens.Delete(ctx, tokenKey); err != nil {
		if errors.Is(err, autherrors.ErrTokenNotFound) {
			return apperrors.Unauthorized("Invalid token")
		}
		return apperrors.Internal("Failed to invalidate token", err)
	}
	return nil
}

// Authenticate resolves a token key to a principal. Expired tokens are
// rejected even if the TTL reaper has not removed them yet.
func (s *authService) Authenticate(ctx context.Context, tokenKey string) (*model.Principal, error) {
	token, err := s.tokens.FindByKey(ctx, tokenKey)
	if err != nil {
		if errors.Is(err, autherrors.ErrTokenNotFound) {
			return nil, apperrors.Unauthorized("Invalid token")
		}
		return nil, apperrors.Internal("Failed to look up token", err)
	}

	if time.Now().UTC().After(token.ExpiresAt) {
		return nil, apperrors.Unauthorized("Token expired")
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			return nil, apperrors.Unauthorized("Invalid token")
		}
		return nil, apperrors.Internal("Failed to look up user", err)
	}

	return &model.Principal{
		UserID:      user.ID,
		Username:    user.Username,
		IsSuperuser: user.IsSuperuser,
	}, nil
}

func (s *authService) Profile(ctx context.Context, principal *model.Principal) (*model.User, error) {
	if principal == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	user, err := s.users.FindByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Internal("Failed to retrieve profile", err)
	}

	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, principal *model.Principal, updates *ProfileUpdate) (*model.User, error) {
	if principal == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if err := s.validate.Struct(updates); err != nil {
		return nil, apperrors.Validation("Invalid profile input", map[string]any{"error": err.Error()})
	}

	if updates.Username != nil {
		err := s.users.UpdateUsername(ctx, principal.UserID, *updates.Username)
		if err != nil {
			if errors.Is(err, autherrors.ErrDuplicateUsername) {
				return nil, apperrors.Validation("A user with that username already exists", map[string]any{"field": "username"})
			}
			if errors.Is(err, autherrors.ErrUserNotFound) {
				return nil, apperrors.NotFound("User")
			}
			return nil, apperrors.Internal("Failed to update profile", err)
		}
	}

	return s.Profile(ctx, principal)
}

// EnsureSuperuser creates the bootstrap administrator account if it does not
// exist yet. An existing account is left untouched.
func (s *authService) EnsureSuperuser(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}

	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, autherrors.ErrUserNotFound) {
		return apperrors.Internal("Failed to look up superuser", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return apperrors.Internal("Failed to hash superuser password", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		IsSuperuser:  true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return apperrors.Internal("Failed to create superuser", err)
	}

	s.cfg.Log.Info("Superuser bootstrapped", "username", username)
	return nil
}

func invalidCredentials() error {
	return apperrors.Validation("Unable to log in with provided credentials", nil)
}
