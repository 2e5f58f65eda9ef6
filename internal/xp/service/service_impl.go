package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/codequest-labs/codequest/internal/badge/domain"
	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/levels"
	"github.com/codequest-labs/codequest/internal/metrics"
	"github.com/codequest-labs/codequest/internal/ratelimit"
	userdomain "github.com/codequest-labs/codequest/internal/user/domain"
	xpdomain "github.com/codequest-labs/codequest/internal/xp/domain"
	"github.com/codequest-labs/codequest/pkg/db"
	"github.com/codequest-labs/codequest/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Limiter *ratelimit.AwardLimiter
	UserSvc userdomain.Service
	Badges  badgedomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	limiter *ratelimit.AwardLimiter
	usersvc userdomain.Service
	badges  badgedomain.Service
	metrics *metrics.Metrics
}

func NewService(p ServiceParam) xpdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("xp.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		limiter: p.Limiter,
		usersvc: p.UserSvc,
		badges:  p.Badges,
		metrics: p.Metrics,
	}
}

// Award appends one ledger entry and moves the user's balance and level under
// a per-user row lock. Replays by idempotency key or natural key resolve to a
// duplicate result, including when the duplicate is only detected as a
// unique-constraint violation at insert time.
func (s *Service) Award(ctx context.Context, req xpdomain.AwardRequest) (*xpdomain.AwardResult, error) {
	if req.Amount <= 0 {
		return nil, xpdomain.ErrInvalidAmount
	}

	user, err := s.usersvc.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		check := s.limiter.Check(ctx, user.ID.String())
		if !check.Allowed {
			if s.metrics != nil {
				s.metrics.RateLimitDenials.WithLabelValues("xp_award").Inc()
			}
			return nil, &xpdomain.RateLimitedError{RetryAfterSeconds: check.ResetSeconds}
		}
	}

	source := strings.TrimSpace(req.Source)
	sourceID := strings.TrimSpace(req.SourceID)
	idempotencyKey := strings.TrimSpace(req.IdempotencyKey)

	// Strict idempotency: check presence before touching balances so retries
	// return the original outcome.
	existing, err := s.findExistingEvent(ctx, user.ID, idempotencyKey, source, sourceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.duplicateResult(ctx, user.ID, source)
	}

	now := s.clock.Now()
	event := &xpdomain.XPEvent{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		Amount:    req.Amount,
		CreatedAt: now,
	}
	if source != "" {
		event.Source = &source
	}
	if sourceID != "" {
		event.SourceID = &sourceID
	}
	if idempotencyKey != "" {
		event.IdempotencyKey = &idempotencyKey
	}
	if req.Metadata != nil {
		event.Metadata = datatypes.JSONMap(req.Metadata)
	}

	var result xpdomain.AwardResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked userdomain.User
		stmt := tx
		if !strings.EqualFold(tx.Dialector.Name(), "sqlite") {
			stmt = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := stmt.First(&locked, "id = ?", user.ID).Error; err != nil {
			return err
		}

		if err := tx.Create(event).Error; err != nil {
			return err
		}

		newTotal := locked.XPTotal + req.Amount
		oldLevel := locked.Level
		if oldLevel < 1 {
			oldLevel = 1
		}
		newLevel := levels.LevelFor(newTotal)

		if err := tx.Model(&userdomain.User{}).
			Where("id = ?", locked.ID).
			Updates(map[string]any{
				"xp_total":   newTotal,
				"level":      newLevel,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		result = xpdomain.AwardResult{
			NewXP:              newTotal,
			NewLevel:           newLevel,
			LeveledUp:          newLevel > oldLevel,
			NextLevelThreshold: levels.NextLevelThreshold(newLevel),
		}
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			// lost the insert race; the committed writer already applied the award
			return s.duplicateResult(ctx, user.ID, source)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.XPAwards.WithLabelValues(metricSource(source)).Inc()
	}

	// best effort, never rolls back the committed award
	result.AwardedBadges = s.badges.EvaluateForUser(ctx, user.ID)

	return &result, nil
}

func (s *Service) RecentEvents(ctx context.Context, userID snowflake.ID, limit int) ([]xpdomain.XPEvent, error) {
	page := pagination.Normalize(limit, 0)
	var events []xpdomain.XPEvent
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).
		Find(&events).Error
	return events, err
}

func (s *Service) findExistingEvent(ctx context.Context, userID snowflake.ID, idempotencyKey, source, sourceID string) (*xpdomain.XPEvent, error) {
	if idempotencyKey != "" {
		var record xpdomain.XPEvent
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND idempotency_key = ?", userID, idempotencyKey).
			First(&record).Error
		if err == nil {
			return &record, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}
	if source != "" && sourceID != "" {
		var record xpdomain.XPEvent
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND source = ? AND source_id = ?", userID, source, sourceID).
			First(&record).Error
		if err == nil {
			return &record, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}
	return nil, nil
}

// duplicateResult reports the user's current balance without re-applying the
// award.
func (s *Service) duplicateResult(ctx context.Context, userID snowflake.ID, source string) (*xpdomain.AwardResult, error) {
	user, err := s.usersvc.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.XPDuplicates.WithLabelValues(metricSource(source)).Inc()
	}
	return &xpdomain.AwardResult{
		Duplicate:          true,
		NewXP:              user.XPTotal,
		NewLevel:           user.Level,
		NextLevelThreshold: levels.NextLevelThreshold(user.Level),
	}, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func metricSource(source string) string {
	if source == "" {
		return "unspecified"
	}
	return source
}
