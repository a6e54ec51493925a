package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"clipway/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RevokedTokenKey is the Redis key holding a revoked token id until its expiry.
func RevokedTokenKey(tokenID string) string {
	return fmt.Sprintf("auth:revoked:%s", tokenID)
}

func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return authMiddleware(jwtService, nil)
}

// AuthMiddlewareWithRevocation additionally rejects tokens that were revoked
// by logout. A nil redis client behaves like AuthMiddleware.
func AuthMiddlewareWithRevocation(jwtService *jwt.Service, redisClient *redis.Client) gin.HandlerFunc {
	return authMiddleware(jwtService, redisClient)
}

func authMiddleware(jwtService *jwt.Service, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		if redisClient != nil && claims.ID != "" {
			exists, err := redisClient.Exists(c.Request.Context(), RevokedTokenKey(claims.ID)).Result()
			if err == nil && exists > 0 {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("token_id", claims.ID)
		c.Next()
	}
}
