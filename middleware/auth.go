package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/yashrajoria/bms-storefront/apperrors"
)

const (
	UserContextKey  = "userID"
	TokenContextKey = "token"
	AdminContextKey = "isAdmin"
)

// Identity is what the BFF needs from a store API token.
type Identity struct {
	UserID  string
	IsAdmin bool
}

// Authenticator validates tokens issued by the store API. The BFF shares the
// API's HMAC secret and forwards the raw token on every upstream call.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(strings.TrimSpace(secret))}
}

// ParseToken validates tokenStr and extracts the caller's identity.
func (a *Authenticator) ParseToken(tokenStr string) (Identity, error) {
	if len(a.secret) == 0 {
		return Identity{}, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return Identity{}, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("invalid token claims")
	}

	id := Identity{UserID: userIDClaim(claims), IsAdmin: adminClaim(claims)}
	if id.UserID == "" {
		return Identity{}, fmt.Errorf("token carries no user id")
	}
	return id, nil
}

// userIDClaim reads sub, user_id or id, whichever the API put in.
func userIDClaim(claims jwt.MapClaims) string {
	for _, key := range []string{"sub", "user_id", "id"} {
		switch v := claims[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func adminClaim(claims jwt.MapClaims) bool {
	switch v := claims["is_admin"].(type) {
	case bool:
		if v {
			return true
		}
	case string:
		if strings.EqualFold(v, "true") {
			return true
		}
	}
	role, _ := claims["role"].(string)
	return strings.EqualFold(role, "admin") || strings.EqualFold(role, "true")
}

func abort(c *gin.Context, e *apperrors.Error) {
	c.AbortWithStatusJSON(e.Code, gin.H{"error": e.Message, "kind": e.Kind})
}

// JWTAuth requires a valid bearer token and stores the caller's identity on the context.
func (a *Authenticator) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, apperrors.ErrUnauthorized.WithMessage("Token is required"))
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			abort(c, apperrors.ErrUnauthorized.WithMessage("Invalid token format"))
			return
		}
		tokenStr := strings.TrimSpace(header[len("Bearer "):])

		id, err := a.ParseToken(tokenStr)
		if err != nil {
			abort(c, apperrors.ErrUnauthorized.WithMessage("Invalid or expired token").Wrap(err))
			return
		}

		c.Set(UserContextKey, id.UserID)
		c.Set(TokenContextKey, tokenStr)
		c.Set(AdminContextKey, id.IsAdmin)
		c.Next()
	}
}

// RequireAdmin must run after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			abort(c, apperrors.ErrForbidden.WithMessage("Admin access required"))
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, error) {
	val, exists := c.Get(UserContextKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	userID, ok := val.(string)
	if !ok || userID == "" {
		return "", errors.New("user ID has invalid type in context")
	}
	return userID, nil
}

// GetToken returns the caller's raw bearer token.
func GetToken(c *gin.Context) string {
	return c.GetString(TokenContextKey)
}

func IsAdmin(c *gin.Context) bool {
	return c.GetBool(AdminContextKey)
}
