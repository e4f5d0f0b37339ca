package middlewares

import (
	"net/http"

	"nick8/models"
	"nick8/utils"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const identityKey = "identity"

// AuthMiddleware verifies the bearer JWT and stores the caller in the context
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Debug("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			return
		}

		token, ok := utils.BearerToken(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization token format"})
			return
		}

		who, err := utils.IdentityFromToken(jwtSecret, token)
		if err != nil {
			log.WithError(err).Debug("Invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(identityKey, who)
		c.Set("email", who.Email)
		c.Next()
	}
}

// CurrentIdentity returns the caller stored by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	who, ok := value.(models.Identity)
	return who, ok && who.Email != ""
}
