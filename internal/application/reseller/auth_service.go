package reseller

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService handles reseller staff authentication
type AuthService struct {
	resellerRepo reseller.Repository
	jwtService   *auth.JWTService
	logger       *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	resellerRepo reseller.Repository,
	jwtService *auth.JWTService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		resellerRepo: resellerRepo,
		jwtService:   jwtService,
		logger:       logger,
	}
}

// LoginRequest carries the credentials for a staff login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse contains the issued token and basic account info
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	Account     AccountInfo `json:"account"`
}

// AccountInfo is the logged-in account as returned after login
type AccountInfo struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Level    int       `json:"level"`
}

// Login authenticates by email and password and issues an access token.
// Every failure path returns the same INVALID_CREDENTIALS error so the
// response does not reveal whether the email exists.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	invalidCredentials := shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

	account, err := s.resellerRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown email", zap.String("email", req.Email))
			return nil, invalidCredentials
		}
		s.logger.Error("Failed to look up account during login", zap.Error(err))
		return nil, err
	}

	if !account.IsActive {
		s.logger.Warn("Login attempt for deactivated account",
			zap.String("email", req.Email),
			zap.String("reseller_id", account.ID.String()))
		return nil, invalidCredentials
	}

	if account.PasswordHash == "" || !auth.CheckPassword(req.Password, account.PasswordHash) {
		s.logger.Warn("Invalid password attempt",
			zap.String("email", req.Email),
			zap.String("reseller_id", account.ID.String()))
		return nil, invalidCredentials
	}

	token, err := s.jwtService.GenerateToken(auth.GenerateTokenInput{
		TenantID:   account.TenantID,
		ResellerID: account.ID,
		Name:       account.Name,
		Role:       string(account.Role),
	})
	if err != nil {
		s.logger.Error("Failed to issue access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to issue access token")
	}

	s.logger.Info("Login successful",
		zap.String("reseller_id", account.ID.String()),
		zap.String("role", string(account.Role)))

	return &LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		Account: AccountInfo{
			ID:       account.ID,
			TenantID: account.TenantID,
			Name:     account.Name,
			Email:    account.Email,
			Role:     string(account.Role),
			Level:    account.Level,
		},
	}, nil
}

// SetPassword hashes and stores a new password for an account
func (s *AuthService) SetPassword(ctx context.Context, tenantID, resellerID uuid.UUID, password string) error {
	account, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, resellerID)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	account.PasswordHash = hash
	account.IncrementVersion()
	if err := s.resellerRepo.SaveWithLock(ctx, account); err != nil {
		return err
	}

	s.logger.Info("Password updated", zap.String("reseller_id", resellerID.String()))
	return nil
}
