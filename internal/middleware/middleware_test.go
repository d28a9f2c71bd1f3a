package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javajoker/agriconnect-backend/internal/apperr"
	"github.com/javajoker/agriconnect-backend/internal/i18n"
	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/testutil"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

type stubAuth struct {
	users map[string]*models.User
}

func (s stubAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Unauthenticated("auth.required")
	}
	if token == "ghost" {
		return nil, apperr.New(apperr.KindUserNotFound, "auth.user_not_found")
	}
	user, ok := s.users[token]
	if !ok {
		return nil, apperr.Unauthenticated("auth.token_expired")
	}
	return user, nil
}

func newUser(role models.Role) *models.User {
	u := &models.User{Name: string(role), Role: role}
	u.ID = uuid.New()
	return u
}

func perform(r http.Handler, req *http.Request) (*httptest.ResponseRecorder, utils.APIResponse) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body utils.APIResponse
	json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	farmer := newUser(models.RoleFarmer)
	auth := stubAuth{users: map[string]*models.User{"good": farmer}}

	r := gin.New()
	r.GET("/me", AuthRequired(auth), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		id, _ := utils.GetUserIDFromContext(c)
		role, _ := utils.GetRoleFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role, "name": user.Name})
	})

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"malformed", "Token good", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"expired", "Bearer stale", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"deleted user", "Bearer ghost", http.StatusUnauthorized, "USER_NOT_FOUND"},
		{"valid", "Bearer good", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w, body := perform(r, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				require.NotNil(t, body.Error)
				assert.Equal(t, tc.code, body.Error.Code)
			}
		})
	}

	// query tokens only count for websocket upgrades
	req := httptest.NewRequest(http.MethodGet, "/me?token=good", nil)
	w, _ := perform(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me?token=good", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	w, _ = perform(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), farmer.ID.String())
}

func TestRoleRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := stubAuth{users: map[string]*models.User{
		"farmer": newUser(models.RoleFarmer),
		"buyer":  newUser(models.RoleBuyer),
	}}

	r := gin.New()
	r.POST("/products", AuthRequired(auth), RoleRequired(models.RoleFarmer), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	r.GET("/unguarded", RoleRequired(models.RoleFarmer), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/products", nil)
	req.Header.Set("Authorization", "Bearer farmer")
	w, _ := perform(r, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/products", nil)
	req.Header.Set("Authorization", "Bearer buyer")
	w, body := perform(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", body.Error.Code)

	w, _ = perform(r, httptest.NewRequest(http.MethodGet, "/unguarded", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buyer := newUser(models.RoleBuyer)
	auth := stubAuth{users: map[string]*models.User{"buyer": buyer}}

	r := gin.New()
	r.GET("/products", OptionalAuth(auth), func(c *gin.Context) {
		_, ok := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	for header, want := range map[string]bool{"": false, "Bearer nope": false, "Bearer buyer": true} {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		var got map[string]bool
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, want, got["authenticated"], header)
	}
}

func TestI18nMiddleware(t *testing.T) {
	require.NoError(t, i18n.Initialize())
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(I18nMiddleware("en"))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, utils.GetLangFromContext(c)) })

	for header, want := range map[string]string{
		"":                       "en",
		"zh-TW,zh;q=0.9":         "zh_TW",
		"fr-FR,fr;q=0.9":         "en",
		"en-GB,en;q=0.8":         "en",
		"fr;q=0.5,zh-Hant;q=0.9": "zh_TW",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Body.String(), header)
	}
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter("test", rate.Every(time.Minute), 2)
	defer rl.Stop()

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last, _ = perform(r, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, last.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	retry, err := strconv.Atoi(last.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.InDelta(t, 60, retry, 1)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.1.1.1:4000"
	w, _ := perform(r, other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractResource(t *testing.T) {
	assert.Equal(t, "orders", extractResourceType("/api/orders/:id/status"))
	assert.Equal(t, "ws", extractResourceType("/ws"))
}

func TestAuditLogMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	userID := uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(utils.ContextKeyUserID, userID) }, AuditLogMiddleware(db))
	r.PUT("/api/orders/:id/status", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	orderID := uuid.New()
	body := `{"status":"accepted","auth":{"password":"hunter2"}}`
	req := httptest.NewRequest(http.MethodPut, "/api/orders/"+orderID.String()+"/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	perform(r, req)
	perform(r, httptest.NewRequest(http.MethodGet, "/api/orders/"+orderID.String(), nil))

	var logs []models.AuditLog
	require.Eventually(t, func() bool {
		return db.Find(&logs).Error == nil && len(logs) == 1
	}, 2*time.Second, 20*time.Millisecond)

	entry := logs[0]
	assert.Equal(t, "PUT /api/orders/:id/status", entry.Action)
	assert.Equal(t, "orders", entry.ResourceType)
	assert.Equal(t, &orderID, entry.ResourceID)
	assert.Equal(t, &userID, entry.UserID)
	assert.Equal(t, "accepted", entry.NewValues["status"])
	assert.Equal(t, redacted, entry.NewValues["auth"].(map[string]interface{})["password"])
}

func TestRequestLoggerRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w, _ := perform(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w, _ = perform(r, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}
