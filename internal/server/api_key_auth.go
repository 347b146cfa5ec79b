package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const contextPrincipalKey = "api_key_name"

// APIKeyRequired authenticates bearer API keys and checks the key's role
// against the route. It passes everything through when auth is disabled.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authorizer.Enabled() {
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.authorizer.Authenticate(parts[1])
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(contextPrincipalKey, principal.Name)

		allowed, err := s.authorizer.Authorize(principal, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !allowed {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}
