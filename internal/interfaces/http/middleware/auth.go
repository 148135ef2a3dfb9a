package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	appsales "github.com/pharmacore/backend/internal/application/sales"
	"github.com/pharmacore/backend/internal/infrastructure/auth"
	"github.com/pharmacore/backend/internal/interfaces/http/dto"
)

// Auth context keys
const (
	ActorIDKey    = "actor_id"
	TrustTierKey  = "trust_tier"
	PharmacyIDKey = "pharmacy_id"

	authHeaderKey = "Authorization"
	bearerPrefix  = "Bearer "
)

// Auth validates the bearer token and puts the actor's identity on the gin
// context. Requests without a valid token are rejected.
func Auth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authHeaderKey)
		if header == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(ActorIDKey, claims.ActorID)
		c.Set(TrustTierKey, claims.TrustTier)
		c.Set(PharmacyIDKey, claims.PharmacyID)
		c.Next()
	}
}

// GetActor builds the application-layer actor from the authenticated claims
func GetActor(c *gin.Context) appsales.Actor {
	return appsales.Actor{
		ID:        c.GetString(ActorIDKey),
		TrustTier: appsales.TrustTier(c.GetString(TrustTierKey)),
	}
}

// GetActorID returns the authenticated actor ID
func GetActorID(c *gin.Context) string {
	return c.GetString(ActorIDKey)
}

// GetPharmacyID returns the pharmacy the token was issued for
func GetPharmacyID(c *gin.Context) string {
	return c.GetString(PharmacyIDKey)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}
