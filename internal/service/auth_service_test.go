package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/isp-workboard/internal/config"
	"github.com/spec-kit/isp-workboard/internal/domain"
	"github.com/spec-kit/isp-workboard/internal/repository"
	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

func newAuthService() *AuthService {
	return NewAuthService(config.AuthConfig{JWTSecret: "s", AccessTokenTTLMinutes: 5, BcryptCost: 4},
		AuthDependencies{AccountRepo: repository.NewMemoryAccountRepository()})
}

func TestRegisterAccountValidation(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	tests := []struct {
		name  string
		input AccountInput
	}{
		{"missing password", AccountInput{Username: "a", Role: domain.RoleSuperAdmin}},
		{"blank username", AccountInput{Username: "  ", Password: "x", Role: domain.RoleSuperAdmin}},
		{"unknown role", AccountInput{Username: "a", Password: "x", Role: "Janitor"}},
		{"bad technician code", AccountInput{Username: "a", Password: "x", Role: domain.RoleTechnician, TechnicianCode: "ZZ"}},
		{"technician without code", AccountInput{Username: "a", Password: "x", Role: domain.RoleTechnician}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RegisterAccount(ctx, tc.input)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	account, err := svc.RegisterAccount(ctx, AccountInput{
		Username: " desk ", DisplayName: "Help Desk", Password: "pw", Role: domain.RoleCustomerSupport,
	})
	require.NoError(t, err)
	assert.Equal(t, "desk", account.Username)
	assert.Equal(t, domain.AssigneeNone, account.TechnicianCode)
	assert.NotEqual(t, "pw", account.PasswordHash)

	_, err = svc.RegisterAccount(ctx, AccountInput{Username: "DESK", Password: "pw", Role: domain.RoleCustomerSupport})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	got, token, exp, err := svc.Login(ctx, "Desk", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Help Desk", got.DisplayName)
	assert.False(t, exp.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomerSupport, claims.Role)

	_, _, _, err = svc.Login(ctx, "desk", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, _, _, err = svc.Login(ctx, "nobody", "pw")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}
