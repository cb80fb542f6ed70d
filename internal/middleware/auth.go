package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/tools"
)

// Claims are the JWT claims a caller presents. Subject is the user ID.
type Claims struct {
	jwt.RegisteredClaims
	FamilyID string `json:"family_id,omitempty"`
}

// AuthConfig configures token validation
type AuthConfig struct {
	SigningKey []byte
	Issuer     string
	Audience   string
}

var errMissingSubject = errors.New("token has no subject")

// ParseToken validates a signed token and returns its claims
func ParseToken(cfg AuthConfig, tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.Subject == "" {
		return nil, errMissingSubject
	}
	return claims, nil
}

// AuthMiddleware requires a valid bearer token and scopes the request to its caller
func AuthMiddleware(cfg AuthConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			unauthorized(c, "invalid authorization format")
			return
		}

		claims, err := ParseToken(cfg, strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Warn("rejected bearer token",
				zap.String("request_id", c.GetString(RequestIDKey)),
				zap.String("ip", c.ClientIP()),
				zap.Error(err),
			)
			unauthorized(c, "invalid token")
			return
		}

		c.Set(UserIDKey, claims.Subject)
		ctx := tools.WithCaller(c.Request.Context(), tools.Caller{
			UserID:    claims.Subject,
			FamilyID:  claims.FamilyID,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}
