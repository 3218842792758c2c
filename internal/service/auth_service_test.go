package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvass/internal/config"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:   "test-secret",
		OrgID:       "org-test",
		OrgUsername: "admin",
		OrgPassword: "secret",
	}
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	svc := NewAuthService(testAuthConfig())

	resp, err := svc.Login("admin", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "org-test", resp.OrgID)

	claims, err := svc.ValidateOrgToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "org-test", claims.OrgID)
}

func TestAuthService_BadCredentials(t *testing.T) {
	svc := NewAuthService(testAuthConfig())

	_, err := svc.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RejectsForeignToken(t *testing.T) {
	svc := NewAuthService(testAuthConfig())

	other := testAuthConfig()
	other.JWTSecret = "different-secret"
	resp, err := NewAuthService(other).Login("admin", "secret")
	require.NoError(t, err)

	_, err = svc.ValidateOrgToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateOrgToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
