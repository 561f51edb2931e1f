package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"social-service/model"
	"social-service/pkg/apperror"
	"social-service/pkg/clock"
	"social-service/pkg/jwt"
	"social-service/repository"
)

const passwordCost = 10

type SignupInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	FullName string `json:"fullName" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email_format"`
	Password string `json:"password" validate:"required,min=6,max=50"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type AuthService struct {
	users      repository.UserRepository
	tokens     repository.TokenRepository
	jwtManager *jwt.Manager
	clock      clock.Clock
	validate   *validator.Validate
}

func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository, jwtManager *jwt.Manager, clk clock.Clock) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwtManager: jwtManager,
		clock:      clk,
		validate:   newValidator(),
	}
}

// Signup creates the account and returns it with a fresh access token.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if err := validateStruct(s.validate, in); err != nil {
		return nil, "", err
	}

	if existing, _ := s.users.GetByUsername(ctx, in.Username); existing != nil {
		return nil, "", apperror.Conflict("Username is already taken")
	}
	if existing, _ := s.users.GetByEmail(ctx, in.Email); existing != nil {
		return nil, "", apperror.Conflict("Email is already in use")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	now := s.clock.NowUtc()
	user := &models.User{
		ID:           uuid.New(),
		Username:     in.Username,
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", conflictOr(err)
	}

	token, _, err := s.jwtManager.Generate(user.ID)
	if err != nil {
		return nil, "", apperror.Internal("failed to generate token", err)
	}

	log.WithField("user_id", user.ID).Info("User signed up")
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, string, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, "", err
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperror.Internal("internal server error", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, "", apperror.Validation("Invalid username or password")
	}

	token, _, err := s.jwtManager.Generate(user.ID)
	if err != nil {
		return nil, "", apperror.Internal("failed to generate token", err)
	}

	return user, token, nil
}

// Logout revokes the token until it would have expired. Tokens that no
// longer verify need no revocation.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.jwtManager.Verify(token)
	if err != nil {
		return nil
	}

	if err := s.tokens.Revoke(ctx, claims.ID, s.jwtManager.RemainingLifetime(claims)); err != nil {
		return apperror.Internal("failed to log out", err)
	}
	return nil
}

// Authenticate resolves a token to the user it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperror.Unauthorized("Unauthorized: No token provided")
	}

	claims, err := s.jwtManager.Verify(token)
	if err != nil {
		return nil, apperror.Unauthorized("Unauthorized: Invalid token")
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperror.Internal("failed to check token", err)
	}
	if revoked {
		return nil, apperror.Unauthorized("Unauthorized: Token has been revoked")
	}

	// Verify already checked the user id parses.
	user, err := s.users.GetByID(ctx, uuid.MustParse(claims.UserID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized("Unauthorized: User not found")
		}
		return nil, apperror.Internal("internal server error", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// TokenLifetime is the max age to give the session cookie.
func (s *AuthService) TokenLifetime() int {
	return int(s.jwtManager.Expiry().Seconds())
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", apperror.Internal("failed to hash password", err)
	}
	return string(hash), nil
}
