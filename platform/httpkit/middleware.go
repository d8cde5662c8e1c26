package httpkit

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// HeaderRequestID carries the request ID in both directions.
	HeaderRequestID = "X-Request-ID"

	maxRequestIDLength = 64
	limiterIdleTTL     = 10 * time.Minute

	errMissingToken = "missing token"
	errInvalidToken = "invalid token"
)

// RequestID assigns every request an ID, echoes it in X-Request-ID and
// stores it on the request context for logger.WithContext.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID))
		c.Next()
	}
}

// RequestLogger logs one line per request. Requests that recorded an error
// through c.Error are logged at error level with the cause.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		reqLog := log.WithContext(c.Request.Context())
		if last := c.Errors.Last(); last != nil {
			reqLog.HTTPError(c.Request.Method, path, c.Writer.Status(), last.Err, c.ClientIP())
			return
		}
		reqLog.HTTPRequest(c.Request.Method, path, c.Writer.Status(), float64(time.Since(start).Milliseconds()), c.ClientIP())
	}
}

// SecurityHeaders sets the headers a JSON API needs. Nothing here is ever
// rendered as a page, so the CSP denies everything.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		if c.Request.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per caller. Authenticated requests
// are keyed by tenant so a workspace shares one budget across its users;
// anything else falls back to the client IP. Buckets idle for longer than
// limiterIdleTTL are dropped.
type IPRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
	log       *logger.Logger
}

func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	if log == nil {
		log = logger.Nop()
	}
	return &IPRateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    burst,
		now:      time.Now,
		log:      log,
	}
}

func (i *IPRateLimiter) allow(key string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if now.Sub(i.lastSweep) > limiterIdleTTL {
		for k, e := range i.limiters {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(i.limiters, k)
			}
		}
		i.lastSweep = now
	}

	e, ok := i.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// RateLimit rejects callers over budget with 429.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if p, ok := GetPrincipal(c); ok && p.TenantID != nil {
			key = "tenant:" + p.TenantID.String()
		}
		if !i.allow(key) {
			i.log.RateLimitExceeded(c.ClientIP(), c.Request.URL.Path)
			abortJSON(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

// accessClaims is the shape of the access tokens issued by the identity
// service.
type accessClaims struct {
	Type     string   `json:"type"`
	TenantID string   `json:"tenant_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// AuthRequired verifies the bearer access token and stores the Principal.
// Export download links may pass the token as ?token= instead.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			rawToken = c.Query("token")
		}
		if rawToken == "" {
			abortJSON(c, http.StatusUnauthorized, errMissingToken)
			return
		}

		p, err := parsePrincipal(rawToken, cfg.GetJWTAccessSecret())
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, errInvalidToken)
			return
		}

		c.Set(principalKey, p)
		if p.TenantID != nil {
			c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.TenantIDKey, p.TenantID.String()))
		}
		c.Next()
	}
}

// RequireRole aborts with 403 unless the principal has role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok || !p.HasRole(role) {
			abortJSON(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

func extractBearerToken(authHeader string) (string, bool) {
	rawToken, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return "", false
	}
	rawToken = strings.TrimSpace(rawToken)
	return rawToken, rawToken != ""
}

func parsePrincipal(rawToken, secret string) (Principal, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(rawToken, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, err
	}
	if claims.Type != "access" {
		return Principal{}, errors.New("not an access token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, err
	}
	p := Principal{UserID: userID, Roles: claims.Roles}
	if tenant := strings.TrimSpace(claims.TenantID); tenant != "" {
		tenantID, err := uuid.Parse(tenant)
		if err != nil {
			return Principal{}, err
		}
		p.TenantID = &tenantID
	}
	return p, nil
}
