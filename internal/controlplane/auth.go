package controlplane

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// bearerAuth rejects requests without a valid HS256 bearer token signed
// with s.jwtSecret. It is a no-op when jwtSecret is empty.
func (s *Server) bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(s.jwtSecret) == 0 {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(401, gin.H{"error": "missing bearer token"})
			return
		}
		_, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return s.jwtSecret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}
