package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const contextUserIDKey = "user_id"

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		userID, err := s.tokens.Verify(token)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Next()
	}
}

// OptionalAuth resolves the bearer token when present but lets the request
// through either way. Used by award, which accepts an explicit user_id.
func (s *Server) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if userID, err := s.tokens.Verify(token); err == nil {
				c.Set(contextUserIDKey, userID)
			}
		}
		c.Next()
	}
}

// AdminRequired accepts either an authenticated admin user or the static
// admin token header used by ops tooling.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AdminToken != "" && c.GetHeader("X-Admin-Token") == s.cfg.AdminToken {
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		userID, err := s.tokens.Verify(token)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		user, err := s.usersvc.GetByID(c.Request.Context(), userID)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !user.IsAdmin {
			AbortWithError(c, ErrForbidden)
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) (snowflake.ID, bool) {
	v, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(snowflake.ID)
	return id, ok
}
