package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/codequest-labs/codequest/internal/levels"
	xpdomain "github.com/codequest-labs/codequest/internal/xp/domain"
	"github.com/gin-gonic/gin"
)

const recentEventsLimit = 10

type awardHTTPRequest struct {
	UserID         string         `json:"user_id"`
	Amount         int64          `json:"xp"`
	Source         string         `json:"source"`
	SourceID       string         `json:"source_id"`
	IdempotencyKey string         `json:"idempotency_key"`
	Metadata       map[string]any `json:"metadata"`
}

type awardHTTPResponse struct {
	OK                 bool     `json:"ok"`
	NewXP              int64    `json:"new_xp"`
	NewLevel           int      `json:"new_level"`
	LeveledUp          bool     `json:"leveled_up"`
	Duplicate          bool     `json:"duplicate,omitempty"`
	NextLevelThreshold int64    `json:"next_level_threshold"`
	AwardedBadges      []string `json:"awarded_badges,omitempty"`
}

// AwardXP grants XP to an explicit user_id, or to the authenticated user when
// the body omits one.
func (s *Server) AwardXP(c *gin.Context) {
	var req awardHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var userID snowflake.ID
	if req.UserID != "" {
		parsed, err := snowflake.ParseString(req.UserID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		userID = parsed
	} else {
		authed, ok := currentUserID(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		userID = authed
	}

	result, err := s.xpsvc.Award(c.Request.Context(), xpdomain.AwardRequest{
		UserID:         userID,
		Amount:         req.Amount,
		Source:         req.Source,
		SourceID:       req.SourceID,
		IdempotencyKey: req.IdempotencyKey,
		Metadata:       req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, awardHTTPResponse{
		OK:                 true,
		NewXP:              result.NewXP,
		NewLevel:           result.NewLevel,
		LeveledUp:          result.LeveledUp,
		Duplicate:          result.Duplicate,
		NextLevelThreshold: result.NextLevelThreshold,
		AwardedBadges:      result.AwardedBadges,
	})
}

type statsResponse struct {
	UserID        snowflake.ID          `json:"user_id"`
	DisplayName   string                `json:"display_name"`
	XP            int64                 `json:"xp"`
	Progress      levels.Progress       `json:"progress"`
	CurrentStreak int                   `json:"current_streak"`
	Badges        []string              `json:"badges"`
	RecentEvents  []recentEventResponse `json:"recent_events"`
}

type recentEventResponse struct {
	Amount    int64  `json:"xp"`
	Source    string `json:"source,omitempty"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) statsFor(c *gin.Context, userID snowflake.ID) (*statsResponse, error) {
	ctx := c.Request.Context()

	user, err := s.usersvc.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &statsResponse{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		XP:          user.XPTotal,
		Progress:    levels.ProgressFor(user.XPTotal, user.Level),
		Badges:      []string{},
	}

	if streak, err := s.streaksvc.Get(ctx, userID); err == nil && streak != nil {
		resp.CurrentStreak = streak.CurrentStreak
	}

	earned, err := s.badgesvc.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, b := range earned {
		resp.Badges = append(resp.Badges, b.Code)
	}

	events, err := s.xpsvc.RecentEvents(ctx, userID, recentEventsLimit)
	if err != nil {
		return nil, err
	}
	resp.RecentEvents = make([]recentEventResponse, 0, len(events))
	for _, e := range events {
		view := recentEventResponse{
			Amount:    e.Amount,
			CreatedAt: e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
		if e.Source != nil {
			view.Source = *e.Source
		}
		resp.RecentEvents = append(resp.RecentEvents, view)
	}

	return resp, nil
}
