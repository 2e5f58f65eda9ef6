package server

import (
	"net/http"

	badgedomain "github.com/codequest-labs/codequest/internal/badge/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListBadges(c *gin.Context) {
	badges, err := s.badgesvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

func (s *Server) MyBadges(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	earned, err := s.badgesvc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"badges": earned})
}

func (s *Server) CreateBadge(c *gin.Context) {
	var req badgedomain.CreateBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	badge, err := s.badgesvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, badge)
}

// AwardBadge grants a catalog badge to the authenticated user. Granting a
// badge the user already holds reports awarded=false.
func (s *Server) AwardBadge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	awarded, err := s.badgesvc.AwardByCode(c.Request.Context(), userID, c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"awarded": awarded})
}
