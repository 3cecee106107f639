package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/skillswap/internal/apperror"
	"github.com/sakif/skillswap/internal/auth"
	"github.com/sakif/skillswap/internal/metrics"
	"github.com/sakif/skillswap/internal/model"
	"github.com/sakif/skillswap/internal/repository"
)

// compile-time check that *AuthService can back auth.RequireAuth
var _ auth.Authenticator = (*AuthService)(nil)

// AuthService handles registration, sign-in and token resolution.
//
//	AuthHandler (HTTP) -> AuthService -> UserRepository (DB)
//	                                  -> TokenService (JWT)
//	                                  -> PasswordService (bcrypt)
//
// Accounts come from two places: email and password registration, and
// GitHub sign-in. Both end with the same AuthResult so the handler responds
// identically.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and the access token issued for them.
type AuthResult struct {
	User  *model.User
	Token string
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Location *string
}

const invalidCredentials = "Invalid email or password"

// Register creates a public profile with no skills and signs the new user in.
// A taken email returns apperror.ErrConflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	// Fast path for the common duplicate. The unique index still catches a
	// concurrent registration that passes this check.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("Email already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:           email,
		PasswordHash:    hash,
		Name:            name,
		Location:        trimOptional(in.Location),
		SkillsOffered:   []string{},
		SkillsWanted:    []string{},
		IsProfilePublic: true,
		Role:            model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	metrics.UsersRegistered.WithLabelValues(metrics.MethodPassword).Inc()
	s.logger.Info("user registered", slog.String("userID", user.ID))

	return s.issue(user)
}

// Login verifies email and password. Unknown emails, wrong passwords and
// accounts without a password all return the same Unauthorized error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: loading user: %w", err)
	}

	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized(invalidCredentials)
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// LoginWithGitHub signs in the account whose email matches the GitHub
// primary email, creating a password-less public profile on first use.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	email := NormalizeEmail(ghUser.Email)
	if email == "" {
		return nil, apperror.Unauthorized("GitHub account has no verified email")
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.logger.Info("user authenticated via GitHub",
			slog.String("userID", user.ID),
			slog.String("login", ghUser.Login),
		)
		return s.issue(user)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: loading user: %w", err)
	}

	user = &model.User{
		Email:           email,
		Name:            ghUser.DisplayName(),
		SkillsOffered:   []string{},
		SkillsWanted:    []string{},
		IsProfilePublic: true,
		Role:            model.RoleUser,
	}
	if ghUser.AvatarURL != "" {
		avatar := ghUser.AvatarURL
		user.ProfilePhoto = &avatar
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user (githubID=%d): %w", ghUser.ID, err)
	}

	metrics.UsersRegistered.WithLabelValues(metrics.MethodGitHub).Inc()
	s.logger.Info("user registered via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)

	return s.issue(user)
}

// Authenticate resolves a bearer token to its user. A bad or expired token
// and a valid token for a user that no longer exists are Unauthorized; a
// failed user lookup is returned wrapped, as an internal error.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperror.Unauthorized("Token expired")
		}
		return nil, apperror.Unauthorized("Invalid token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("User not found")
		}
		return nil, fmt.Errorf("service/auth: loading user %s: %w", userID, err)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// NormalizeEmail trims and lower-cases an address so lookups and the unique
// index agree on what counts as the same email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
