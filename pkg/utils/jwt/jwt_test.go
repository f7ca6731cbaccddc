package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estacrm_backend/internal/rbac"
)

func TestGenerateAndValidate(t *testing.T) {
	Configure("test-secret", time.Hour)

	token, err := GenerateToken(7, "agent@example.com", rbac.RoleAgent)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "agent@example.com", claims.Email)
	assert.Equal(t, rbac.RoleAgent, claims.Role)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	Configure("secret-a", time.Hour)
	token, err := GenerateToken(1, "a@example.com", rbac.RoleAdmin)
	require.NoError(t, err)

	Configure("secret-b", time.Hour)
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	Configure("test-secret", time.Nanosecond)
	token, err := GenerateToken(1, "a@example.com", rbac.RoleAdmin)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = ValidateToken(token)
	assert.Error(t, err)
	Configure("test-secret", time.Hour)
}

func TestValidateGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}
