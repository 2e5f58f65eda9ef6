package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/codequest-labs/codequest/internal/auth/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) Signup(c *gin.Context) {
	var req authdomain.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authsvc.Signup(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) Login(c *gin.Context) {
	var req authdomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) GitHubLogin(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authsvc.GitHubExchange(c.Request.Context(), req.Code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DevLogin mints a token for any user id. The service refuses it outside
// development.
func (s *Server) DevLogin(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
		Secret string `json:"secret"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if s.cfg.DevLoginSecret == "" || req.Secret != s.cfg.DevLoginSecret {
		AbortWithError(c, authdomain.ErrDevLoginDisabled)
		return
	}

	userID, err := snowflake.ParseString(req.UserID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authsvc.DevLogin(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
