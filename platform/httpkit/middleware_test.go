package httpkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"outreach_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret"

type jwtConfig struct{}

func (jwtConfig) GetJWTAccessSecret() string { return testSecret }

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func accessToken(t *testing.T, userID uuid.UUID, tenantID *uuid.UUID, roles ...string) string {
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  "access",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"roles": roles,
	}
	if tenantID != nil {
		claims["tenant_id"] = tenantID.String()
	}
	return signToken(t, claims)
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	return engine
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthRequired_SetsTenantPrincipal(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	engine := newEngine()
	engine.GET("/me", AuthRequired(jwtConfig{}), func(c *gin.Context) {
		got, ok := MustGetTenantID(c)
		if !ok {
			return
		}
		p, _ := GetPrincipal(c)
		OK(c, gin.H{"tenant": got.String(), "user": p.UserID.String(), "admin": p.HasRole("admin")})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, userID, &tenantID, "admin"))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, tenantID.String(), body["tenant"])
	assert.Equal(t, userID.String(), body["user"])
	assert.Equal(t, true, body["admin"])
}

func TestAuthRequired_RejectsBadTokens(t *testing.T) {
	userID := uuid.New()
	refresh := signToken(t, jwt.MapClaims{"sub": userID.String(), "type": "refresh", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signToken(t, jwt.MapClaims{"sub": userID.String(), "type": "access", "exp": time.Now().Add(-time.Minute).Unix()})
	noExpiry := signToken(t, jwt.MapClaims{"sub": userID.String(), "type": "access"})

	cases := map[string]struct {
		header  string
		message string
	}{
		"missing":   {header: "", message: errMissingToken},
		"garbage":   {header: "Bearer not-a-jwt", message: errInvalidToken},
		"refresh":   {header: "Bearer " + refresh, message: errInvalidToken},
		"expired":   {header: "Bearer " + expired, message: errInvalidToken},
		"no expiry": {header: "Bearer " + noExpiry, message: errInvalidToken},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			engine := newEngine()
			engine.GET("/x", AuthRequired(jwtConfig{}), func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tc.message, body.Error)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestAuthRequired_AcceptsQueryToken(t *testing.T) {
	tenantID := uuid.New()
	engine := newEngine()
	engine.GET("/download", AuthRequired(jwtConfig{}), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/download?token="+accessToken(t, uuid.New(), &tenantID), nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMustGetTenantID_ForbiddenWithoutTenant(t *testing.T) {
	engine := newEngine()
	engine.GET("/x", AuthRequired(jwtConfig{}), func(c *gin.Context) {
		if _, ok := MustGetTenantID(c); ok {
			c.Status(http.StatusOK)
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, uuid.New(), nil))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tenantID := uuid.New()
	engine := newEngine()
	engine.GET("/admin", AuthRequired(jwtConfig{}), RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	for roles, want := range map[string]int{"admin": http.StatusOK, "member": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, uuid.New(), &tenantID, roles))
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, roles)
	}
}

func TestRateLimit_KeysByTenant(t *testing.T) {
	tenantA, tenantB := uuid.New(), uuid.New()
	limiter := NewIPRateLimiter(rate.Limit(0.001), 1, nil)
	engine := newEngine()
	engine.GET("/x", AuthRequired(jwtConfig{}), limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(tenant uuid.UUID) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, uuid.New(), &tenant))
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(tenantA))
	assert.Equal(t, http.StatusTooManyRequests, call(tenantA))
	assert.Equal(t, http.StatusOK, call(tenantB))
}

func TestRateLimit_EvictsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(rate.Limit(0.001), 1, nil)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.allow("ip:10.0.0.1"))
	assert.False(t, limiter.allow("ip:10.0.0.1"))

	now = now.Add(limiterIdleTTL + time.Minute)
	assert.True(t, limiter.allow("ip:10.0.0.2"))
	assert.NotContains(t, limiter.limiters, "ip:10.0.0.1")
	assert.True(t, limiter.allow("ip:10.0.0.1"))
}

func TestRequestID_EchoesOrGenerates(t *testing.T) {
	engine := newEngine()
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	_, err := uuid.Parse(rec.Header().Get(HeaderRequestID))
	assert.NoError(t, err)
}

func TestHandleError_MapsKinds(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{apperr.NotFound("contact not found"), http.StatusNotFound, "contact not found"},
		{apperr.Validation("email is required").WithDetails(map[string]string{"email": "required"}), http.StatusBadRequest, "email is required"},
		{apperr.Forbidden("contact opted out"), http.StatusForbidden, "contact opted out"},
		{apperr.Upstream("enrichment provider failed", assert.AnError), http.StatusBadGateway, "enrichment provider failed"},
		{apperr.Internal("db exploded"), http.StatusInternalServerError, "internal server error"},
		{assert.AnError, http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		engine := newEngine()
		engine.GET("/x", func(c *gin.Context) { HandleError(c, tc.err) })

		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, tc.message, decodeError(t, rec).Error)
	}
}
