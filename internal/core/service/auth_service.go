package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mandimarket/marketplace-api/internal/api/metrics"
	"github.com/mandimarket/marketplace-api/internal/core/domain"
	"github.com/mandimarket/marketplace-api/internal/core/ports"
	"github.com/mandimarket/marketplace-api/internal/core/token"
)

// AuthService implements registration, login, and profile lookup.
type AuthService struct {
	repo   ports.UserRepository
	tokens *token.Service
	logger zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, tokens *token.Service, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, string, error) {
	if input.Name == "" || input.Email == "" || input.Phone == "" ||
		input.Address == "" || input.Password == "" || input.Role == "" {
		return nil, "", &domain.ValidationError{Msg: "all fields are required"}
	}
	if !input.Role.IsValid() || input.Role == domain.RoleAdmin {
		return nil, "", &domain.ValidationError{Msg: "invalid role"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
		PasswordHash: string(hash),
		Role:         input.Role,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	tkn, err := s.tokens.Issue(created.ID, created.Role)
	if err != nil {
		return nil, "", err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(created.Role)).Inc()
	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")

	return created, tkn, nil
}

// Login verifies credentials. Unknown email and wrong password collapse into
// the same error so callers cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("failed").Inc()
		return nil, "", domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failed").Inc()
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("failed").Inc()
		return nil, "", domain.ErrInvalidCredentials
	}

	tkn, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")

	return user, tkn, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}
