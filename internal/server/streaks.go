package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Checkin(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	result, err := s.streaksvc.Checkin(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
