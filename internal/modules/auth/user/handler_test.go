package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	_ "time/tzdata"

	"github.com/daily-reflections/core/internal/database"
	"github.com/daily-reflections/core/internal/middleware"
	"github.com/daily-reflections/core/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gin.Engine, *gorm.DB, *models.UserModel) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)

	pending := models.OnboardingPending
	u := &models.UserModel{Email: "lee@example.com", Name: "Lee", Timezone: "UTC", OnboardingCompleted: &pending}
	require.NoError(t, db.Create(u).Error)

	asUser := func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set(middleware.ContextKeyUserID, id)
		}
		c.Next()
	}
	r := gin.New()
	NewHandler(NewService(db)).RegisterRoutes(r.Group("/api"), asUser)
	return r, db, u
}

func send(t *testing.T, r *gin.Engine, method, path, uid string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", uid)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetUser(t *testing.T) {
	r, _, u := setup(t)

	w := send(t, r, http.MethodGet, "/api/user", u.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"needsOnboarding":true`)
	assert.Contains(t, w.Body.String(), `"email":"lee@example.com"`)

	w = send(t, r, http.MethodGet, "/api/user", "00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	r, db, u := setup(t)

	w := send(t, r, http.MethodPatch, "/api/user/profile", u.ID, gin.H{
		"firstName": "  Lee ",
		"timezone":  "Asia/Tokyo",
		"gender":    "Non-Binary",
		"languages": []string{"en", "ja"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.UserModel
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	require.NotNil(t, stored.FirstName)
	assert.Equal(t, "Lee", *stored.FirstName)
	assert.Equal(t, "Asia/Tokyo", stored.Timezone)
	require.NotNil(t, stored.Gender)
	assert.Equal(t, "non-binary", *stored.Gender)
	assert.Equal(t, models.StringArray{"en", "ja"}, stored.Languages)
	assert.Equal(t, "Lee", stored.Name)

	tests := []struct {
		name string
		body gin.H
	}{
		{"bad timezone", gin.H{"timezone": "Mars/Olympus"}},
		{"empty name", gin.H{"name": "  "}},
		{"unknown gender", gin.H{"gender": "robot"}},
		{"wrong type", gin.H{"languages": "en"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(t, r, http.MethodPatch, "/api/user/profile", u.ID, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	w = send(t, r, http.MethodPatch, "/api/user/profile", "00000000-0000-0000-0000-000000000000", gin.H{"bio": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompleteOnboarding(t *testing.T) {
	r, db, u := setup(t)

	w := send(t, r, http.MethodPost, "/api/user/complete-onboarding", u.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"onboardingCompleted":"true"`)
	assert.Contains(t, w.Body.String(), `"needsOnboarding":false`)

	var stored models.UserModel
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.False(t, stored.NeedsOnboarding())

	w = send(t, r, http.MethodPost, "/api/user/complete-onboarding", "00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
