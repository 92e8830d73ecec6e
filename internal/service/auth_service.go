package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/isp-workboard/internal/auth"
	"github.com/spec-kit/isp-workboard/internal/config"
	"github.com/spec-kit/isp-workboard/internal/domain"
	"github.com/spec-kit/isp-workboard/internal/repository"
	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

// AuthService coordinates sign-in for dashboard operators.
type AuthService struct {
	accounts   repository.AccountRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	AccountRepo repository.AccountRepository
}

// AccountInput describes a new operator account.
type AccountInput struct {
	Username       string
	DisplayName    string
	Password       string
	Role           domain.Role
	TechnicianCode domain.Assignee
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		accounts:   deps.AccountRepo,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterAccount hashes the password and stores the account. Technicians
// must carry a technician code since their board is filtered by it.
func (s *AuthService) RegisterAccount(ctx context.Context, input AccountInput) (*domain.Account, error) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username and password required", nil)
	}
	if _, err := domain.ParseRole(string(input.Role)); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"role": input.Role})
	}
	if input.TechnicianCode == "" {
		input.TechnicianCode = domain.AssigneeNone
	}
	if !input.TechnicianCode.Valid() {
		return nil, apperrors.NewValidationError("invalid technician code", map[string]any{"technician_code": input.TechnicianCode})
	}
	if input.Role == domain.RoleTechnician && input.TechnicianCode == domain.AssigneeNone {
		return nil, apperrors.NewValidationError("technician accounts need a technician code", map[string]any{"username": input.Username})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	account := domain.Account{
		Username:       input.Username,
		DisplayName:    strings.TrimSpace(input.DisplayName),
		PasswordHash:   hash,
		Role:           input.Role,
		TechnicianCode: input.TechnicianCode,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			return nil, apperrors.NewValidationError("username already taken", map[string]any{"username": input.Username})
		}
		return nil, apperrors.MapError(err)
	}
	return &account, nil
}

// Login checks the credentials and returns a role-bearing token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Account, string, time.Time, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized(auth.ErrInvalidCredentials.Error())
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized(err.Error())
	}
	token, exp, err := s.tokenMgr.GenerateToken(*account)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return account, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
