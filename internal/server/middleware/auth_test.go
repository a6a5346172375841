package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coordinator/internal/types"
)

type fakeClaims struct {
	actor types.Actor
}

func (c *fakeClaims) GetActor() types.Actor { return c.actor }

type fakeValidator struct {
	actor types.Actor
	err   error
}

func (v *fakeValidator) ValidateToken(tokenString string) (ActorGetter, error) {
	if v.err != nil {
		return nil, v.err
	}
	return &fakeClaims{actor: v.actor}, nil
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	actor := types.Actor{ID: uuid.New(), Role: types.RoleInterviewer, AssignedField: "FE"}
	mw := AuthMiddleware(&fakeValidator{actor: actor})

	var got types.Actor
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		got, err = GetActor(r)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, actor.ID, got.ID)
	assert.Equal(t, "FE", got.AssignedField)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		validator *fakeValidator
	}{
		{"missing header", "", &fakeValidator{}},
		{"wrong scheme", "Basic abc123", &fakeValidator{}},
		{"empty token", "Bearer ", &fakeValidator{}},
		{"invalid token", "Bearer bad", &fakeValidator{err: errors.New("expired")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := AuthMiddleware(tt.validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/requests", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called, "handler must not run")
		})
	}
}

func TestAuthMiddleware_CaseInsensitiveBearer(t *testing.T) {
	actor := types.Actor{ID: uuid.New(), Role: types.RoleUser}
	handler := AuthMiddleware(&fakeValidator{actor: actor})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	req.Header.Set("Authorization", "bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetActor_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	_, err := GetActor(req)
	assert.Error(t, err)
}

func TestWithActor(t *testing.T) {
	actor := types.Actor{ID: uuid.New(), Role: types.RoleAdmin}
	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	req = req.WithContext(WithActor(req.Context(), actor))

	got, err := GetActor(req)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}
