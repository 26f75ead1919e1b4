package handlers

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/islandscholars/placement-hub/pkg/logger"
)

const (
	ctxKeyUserID    = "user_id"
	ctxKeyRequestID = "request_id"

	// HeaderAPIKey carries the internal API key.
	HeaderAPIKey    = "X-API-Key"
	headerRequestID = "X-Request-ID"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST ID & LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// RequestID assigns every request an ID, reusing X-Request-ID when the caller sends one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// GetRequestID returns the request ID set by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}

// RequestLogger logs every request and stores a request-scoped logger in the context.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With(logger.RequestID(GetRequestID(c)))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLog))

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			logger.Latency(time.Since(start)),
			"ip", c.ClientIP(),
		}
		if uid := GetUserID(c); uid != "" {
			attrs = append(attrs, logger.UserID(uid))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
			reqLog.Error("http request", attrs...)
			return
		}
		reqLog.Info("http request", attrs...)
	}
}

// Recovery recovers from panics and returns 500. It logs through the
// request-scoped logger, so RequestLogger must run first.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(c.Request.Context()).Error("panic recovered",
					"error", fmt.Sprint(r),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
				)
				Fail(c, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
			}
		}()
		c.Next()
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// JWT AUTH
// ══════════════════════════════════════════════════════════════════════════════

// Claims are the bearer token claims issued by the auth service.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// GenerateJWT signs an HS256 token for userID.
func GenerateJWT(secret, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Email:  email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// JWTAuth validates the bearer token and stores the caller's user ID.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || tokenString == "" {
			Fail(c, http.StatusUnauthorized, "unauthorized", "bearer token required")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			Fail(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		userID := claims.UserID
		if userID == "" {
			userID = claims.Subject
		}
		if userID == "" {
			Fail(c, http.StatusUnauthorized, "unauthorized", "token carries no user")
			return
		}

		c.Set(ctxKeyUserID, userID)
		c.Next()
	}
}

// GetUserID returns the caller's user ID. JWTAuth must run first.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}

// ══════════════════════════════════════════════════════════════════════════════
// API KEY AUTH
// ══════════════════════════════════════════════════════════════════════════════

// HashAPIKey returns the bcrypt hash to configure for key.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// APIKeyAuth admits requests whose X-API-Key matches the bcrypt hash.
// An empty hash rejects every request. The last accepted key is remembered
// so steady traffic does not pay for bcrypt on every call.
func APIKeyAuth(hash string) gin.HandlerFunc {
	var (
		mu       sync.RWMutex
		accepted []byte
	)
	return func(c *gin.Context) {
		key := []byte(c.GetHeader(HeaderAPIKey))
		if len(key) == 0 || hash == "" {
			Fail(c, http.StatusUnauthorized, "unauthorized", "API key required")
			return
		}

		mu.RLock()
		known := accepted != nil && subtle.ConstantTimeCompare(accepted, key) == 1
		mu.RUnlock()

		if !known {
			if err := bcrypt.CompareHashAndPassword([]byte(hash), key); err != nil {
				Fail(c, http.StatusUnauthorized, "unauthorized", "invalid API key")
				return
			}
			mu.Lock()
			accepted = key
			mu.Unlock()
		}
		c.Next()
	}
}
