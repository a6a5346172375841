package server

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coordinator/internal/config"
	"github.com/jonathan/interview-coordinator/internal/types"
)

func testJWTService(t *testing.T, secret string) *JWTService {
	t.Helper()
	return NewJWTService(&config.JWTConfig{Secret: secret, ExpirationHours: 1})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := testJWTService(t, "unit-test-secret")

	actor := types.Actor{
		ID:            uuid.New(),
		Name:          "Kim",
		Email:         "kim@example.com",
		Role:          types.RoleInterviewer,
		AssignedField: "FE",
	}

	token, err := svc.GenerateToken(actor)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	got := claims.GetActor()
	assert.Equal(t, actor.ID, got.ID)
	assert.Equal(t, types.RoleInterviewer, got.Role)
	assert.Equal(t, "FE", got.AssignedField)
	assert.Equal(t, "kim@example.com", got.Email)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := testJWTService(t, "secret-a").GenerateToken(types.Actor{ID: uuid.New(), Role: types.RoleUser})
	require.NoError(t, err)

	_, err = testJWTService(t, "secret-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Empty(t *testing.T) {
	_, err := testJWTService(t, "secret").ValidateToken("")
	assert.Error(t, err)
}

func TestValidateToken_Malformed(t *testing.T) {
	_, err := testJWTService(t, "secret").ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestClaims_UnknownRoleFallsBackToUser(t *testing.T) {
	claims := &Claims{UserID: uuid.New(), Role: "superuser"}
	assert.Equal(t, types.RoleUser, claims.GetActor().Role)
}

func TestTokenExpiration(t *testing.T) {
	svc := NewJWTService(&config.JWTConfig{Secret: "secret", ExpirationHours: 1})

	token, err := svc.GenerateToken(types.Actor{ID: uuid.New(), Role: types.RoleUser})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}
