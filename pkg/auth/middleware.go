package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	tokenHeader = "Authorization"
	tokenPrefix = "Bearer "

	userIDKey = "auth_user_id"
	claimsKey = "auth_claims"
)

// RequireAuth validates the bearer token and aborts unauthenticated requests.
func RequireAuth(signer *Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, signer)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth extracts the caller's identity when a valid token is present
// but lets anonymous requests through. Bid submission uses this: anonymous
// bids are permitted.
func OptionalAuth(signer *Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c, signer); ok {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

func bearerClaims(c *gin.Context, signer *Signer) (*Claims, bool) {
	authHeader := c.GetHeader(tokenHeader)
	if !strings.HasPrefix(authHeader, tokenPrefix) {
		return nil, false
	}
	claims, err := signer.ValidateToken(strings.TrimPrefix(authHeader, tokenPrefix))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, claims *Claims) {
	c.Set(claimsKey, claims)
	c.Set(userIDKey, claims.Subject)
}

// UserID returns the authenticated caller's ID, if any.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw.(string))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// UserClaims returns the full claims of the authenticated caller, if any.
func UserClaims(c *gin.Context) (*Claims, bool) {
	raw, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := raw.(*Claims)
	return claims, ok
}
