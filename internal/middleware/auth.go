package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"bankroll/internal/config"
	apperrors "bankroll/internal/errors"
)

// Context keys set by AuthMiddleware.
const (
	UIDKey   = "uid"
	EmailKey = "email"
)

// IdentityClaims are the claims of an identity-provider ID token. The subject
// is the user's stable uid.
type IdentityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// getIdentityKey returns the shared secret identity tokens are signed with.
func getIdentityKey() []byte {
	return []byte(config.Get().IdentityTokenSecret)
}

// IssueIdentityToken signs an ID token for uid. The identity provider issues
// these in production; local tooling and tests use this helper.
func IssueIdentityToken(uid, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &IdentityClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    config.Get().IdentityIssuer,
			Subject:   uid,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getIdentityKey())
}

// ParseIdentityToken verifies an ID token and returns its claims.
func ParseIdentityToken(tokenString string) (*IdentityClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if iss := config.Get().IdentityIssuer; iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}

	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getIdentityKey(), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid identity token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("identity token has no subject")
	}
	return claims, nil
}

// AuthMiddleware verifies the bearer identity token and sets the caller's uid
// and email in the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		claims, err := ParseIdentityToken(parts[1])
		if err != nil {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token"))
			return
		}

		c.Set(UIDKey, claims.Subject)
		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

func abortWithError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
