package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	jobdomain "github.com/codequest-labs/codequest/internal/job/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) SubmitJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req jobdomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserID = userID

	result, err := s.jobsvc.Submit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) ListJobs(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	jobs, err := s.jobsvc.List(c.Request.Context(), jobdomain.ListRequest{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (s *Server) GetJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	jobID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	job, err := s.jobsvc.Get(c.Request.Context(), userID, jobID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (s *Server) CancelJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	jobID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.jobsvc.Cancel(c.Request.Context(), userID, jobID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
