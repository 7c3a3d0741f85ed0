// Package auth contains authentication-related use cases.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/agency-crm/backend/internal/application/adapter"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
)

// AdminSubject is the token subject issued to the agency operator.
const AdminSubject = "admin"

// AdminCredentials are the operator's login email and bcrypt password hash.
type AdminCredentials struct {
	Email        string
	PasswordHash string
}

// LoginAdminInput represents the input for operator login.
type LoginAdminInput struct {
	Email    string
	Password string
}

// LoginAdminOutput represents the output of operator login.
type LoginAdminOutput struct {
	AccessToken string
	ExpiresAt   time.Time
	Email       string
}

// LoginAdminUseCase handles operator login logic.
type LoginAdminUseCase struct {
	credentials     AdminCredentials
	passwordService adapter.PasswordService
	tokenService    adapter.TokenService
}

// NewLoginAdminUseCase creates a new LoginAdminUseCase instance.
func NewLoginAdminUseCase(
	credentials AdminCredentials,
	passwordService adapter.PasswordService,
	tokenService adapter.TokenService,
) *LoginAdminUseCase {
	return &LoginAdminUseCase{
		credentials:     credentials,
		passwordService: passwordService,
		tokenService:    tokenService,
	}
}

// Execute performs the operator login.
func (uc *LoginAdminUseCase) Execute(ctx context.Context, input LoginAdminInput) (*LoginAdminOutput, error) {
	if input.Email == "" || input.Password == "" {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeMissingFields,
			"email and password are required",
			nil,
		)
	}

	// Login is disabled until credentials are configured
	if uc.credentials.Email == "" || uc.credentials.PasswordHash == "" {
		return nil, invalidCredentials()
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	expected := strings.ToLower(strings.TrimSpace(uc.credentials.Email))
	emailMatches := subtle.ConstantTimeCompare([]byte(email), []byte(expected)) == 1

	// Verify password even on an email mismatch so both paths take the same time
	passwordErr := uc.passwordService.VerifyPassword(uc.credentials.PasswordHash, input.Password)
	if !emailMatches || passwordErr != nil {
		return nil, invalidCredentials()
	}

	token, err := uc.tokenService.GenerateAccessToken(ctx, AdminSubject, expected)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginAdminOutput{
		AccessToken: token.Token,
		ExpiresAt:   token.ExpiresAt,
		Email:       expected,
	}, nil
}

func invalidCredentials() error {
	return domainerror.NewAuthError(
		domainerror.ErrCodeInvalidCredentials,
		"invalid email or password",
		domainerror.ErrInvalidCredentials,
	)
}
