package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/booking-core/internal/logger"
)

const (
	ContextKeyTenantID = "tenant_id"
	ContextKeySubject  = "sub"
)

var ErrInvalidToken = errors.New("invalid token")

type JWTConfig struct {
	Secret string
	// Optional; when set the iss claim must match.
	Issuer    string
	SkipPaths []string
}

// Claims carry the merchant every request is scoped to.
type Claims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// JWTMiddleware validates an HS256 bearer token and puts its tenant_id in
// the gin context. Requests without a valid tenant never reach a handler.
func JWTMiddleware(config JWTConfig) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		for _, path := range config.SkipPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Error(ErrCodeUnauthorized, "Authorization header is required"))
			return
		}
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) || len(authHeader) == len(bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Error(ErrCodeUnauthorized, "Invalid authorization header format"))
			return
		}

		var claims Claims
		_, err := parser.ParseWithClaims(authHeader[len(bearerPrefix):], &claims, func(*jwt.Token) (any, error) {
			return []byte(config.Secret), nil
		})
		if err != nil {
			msg := "Invalid access token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Access token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, Error(ErrCodeUnauthorized, msg))
			return
		}

		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Error(ErrCodeUnauthorized, "Missing tenant_id in token"))
			return
		}

		c.Set(ContextKeyTenantID, tenantID)
		c.Set(ContextKeySubject, claims.Subject)
		c.Next()
	}
}

// TenantID returns the tenant set by JWTMiddleware.
func TenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextKeyTenantID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// RequestLogger logs one line per request. Handler errors attached with
// c.Error are included.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if id, ok := TenantID(c); ok {
			fields = append(fields, zap.String("tenant_id", id.String()))
		}
		l := logger.WithTrace(c.Request.Context(), log)
		if len(c.Errors) > 0 {
			l.Error("http request", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		l.Debug("http request", fields...)
	}
}
