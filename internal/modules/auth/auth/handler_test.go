package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daily-reflections/core/internal/database"
	"github.com/daily-reflections/core/internal/middleware"
	"github.com/daily-reflections/core/internal/models"
	jwtpkg "github.com/daily-reflections/core/internal/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwtpkg.SetSecret("auth-test")

	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)

	r := gin.New()
	NewHandler(NewService(db)).RegisterRoutes(r.Group("/api"), middleware.Auth(db))
	return r, db
}

func call(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type authReply struct {
	Token string           `json:"token"`
	User  models.UserModel `json:"user"`
}

func TestSignUpSignInSignOut(t *testing.T) {
	r, db := newRouter(t)

	w := call(t, r, http.MethodPost, "/api/auth/sign-up/email", "", gin.H{
		"email": "  Mira@Example.com ", "password": "correct horse", "name": "Mira",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var signedUp authReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signedUp))
	assert.NotEmpty(t, signedUp.Token)
	assert.Equal(t, "mira@example.com", signedUp.User.Email)
	assert.Equal(t, "UTC", signedUp.User.Timezone)
	assert.True(t, signedUp.User.NeedsOnboarding())
	assert.NotContains(t, w.Body.String(), "correct horse")
	assert.NotEmpty(t, w.Result().Cookies())

	var stored models.UserModel
	require.NoError(t, db.First(&stored, "email = ?", "mira@example.com").Error)
	require.NotNil(t, stored.OnboardingCompleted)
	assert.Equal(t, models.OnboardingPending, *stored.OnboardingCompleted)

	w = call(t, r, http.MethodPost, "/api/auth/sign-in/email", "", gin.H{"email": "mira@example.com", "password": "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = call(t, r, http.MethodPost, "/api/auth/sign-in/email", "", gin.H{"email": "nobody@example.com", "password": "correct horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, r, http.MethodPost, "/api/auth/sign-in/email", "", gin.H{"email": "MIRA@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code)
	var signedIn authReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signedIn))

	w = call(t, r, http.MethodGet, "/api/auth/session", signedIn.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"mira@example.com"`)

	w = call(t, r, http.MethodPost, "/api/auth/sign-out", signedIn.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodGet, "/api/auth/session", signedIn.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The sign-up session is independent of the revoked one.
	w = call(t, r, http.MethodGet, "/api/auth/session", signedUp.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignUpRejects(t *testing.T) {
	r, _ := newRouter(t)

	w := call(t, r, http.MethodPost, "/api/auth/sign-up/email", "", gin.H{"email": "ana@example.com", "password": "long enough"})
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name string
		body gin.H
	}{
		{"email taken", gin.H{"email": "ANA@example.com", "password": "long enough"}},
		{"short password", gin.H{"email": "new@example.com", "password": "short"}},
		{"bad email", gin.H{"email": "not-an-email", "password": "long enough"}},
		{"missing fields", gin.H{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(t, r, http.MethodPost, "/api/auth/sign-up/email", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSignOutRequiresSession(t *testing.T) {
	r, _ := newRouter(t)
	w := call(t, r, http.MethodPost, "/api/auth/sign-out", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
