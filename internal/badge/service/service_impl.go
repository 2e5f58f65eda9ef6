package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/codequest-labs/codequest/internal/badge/domain"
	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/config"
	"github.com/codequest-labs/codequest/internal/metrics"
	streakdomain "github.com/codequest-labs/codequest/internal/streak/domain"
	userdomain "github.com/codequest-labs/codequest/internal/user/domain"
	"github.com/codequest-labs/codequest/pkg/db"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Rules   *config.BadgeRulesHolder
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	rules   *config.BadgeRulesHolder
	metrics *metrics.Metrics
}

func NewService(p ServiceParam) badgedomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("badge.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		rules:   p.Rules,
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]badgedomain.Badge, error) {
	var badges []badgedomain.Badge
	err := s.db.WithContext(ctx).Order("code ASC").Find(&badges).Error
	return badges, err
}

func (s *Service) ListForUser(ctx context.Context, userID snowflake.ID) ([]badgedomain.EarnedBadge, error) {
	var earned []badgedomain.EarnedBadge
	err := s.db.WithContext(ctx).
		Table("user_badges").
		Select("badges.id, badges.code, badges.name, user_badges.earned_at").
		Joins("JOIN badges ON badges.id = user_badges.badge_id").
		Where("user_badges.user_id = ?", userID).
		Order("user_badges.earned_at ASC").
		Scan(&earned).Error
	return earned, err
}

func (s *Service) Create(ctx context.Context, req badgedomain.CreateBadgeRequest) (*badgedomain.Badge, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, badgedomain.ErrInvalidName
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = slug.Make(name)
	}

	record := &badgedomain.Badge{
		ID:          s.genID.Generate(),
		Code:        code,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Icon:        strings.TrimSpace(req.Icon),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, badgedomain.ErrBadgeExists
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) AwardByCode(ctx context.Context, userID snowflake.ID, code string) (bool, error) {
	code = strings.TrimSpace(code)
	var badge badgedomain.Badge
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&badge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, badgedomain.ErrNotFound
		}
		return false, err
	}
	return s.grant(ctx, userID, badge)
}

func (s *Service) AwardIfMissing(ctx context.Context, userID snowflake.ID, code, name, description string) (bool, error) {
	code = strings.TrimSpace(code)
	var badge badgedomain.Badge
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&badge).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		badge = badgedomain.Badge{
			ID:          s.genID.Generate(),
			Code:        code,
			Name:        name,
			Description: description,
			CreatedAt:   s.clock.Now(),
		}
		if err := s.db.WithContext(ctx).Create(&badge).Error; err != nil {
			if !db.IsDuplicateKeyErr(err) {
				return false, err
			}
			// lost the catalog race, re-read the winner
			if err := s.db.WithContext(ctx).Where("code = ?", code).First(&badge).Error; err != nil {
				return false, err
			}
		}
	}
	return s.grant(ctx, userID, badge)
}

// EvaluateForUser checks every configured rule against the user's current
// totals. Evaluation runs after an award has committed, so any failure here
// is logged and swallowed.
func (s *Service) EvaluateForUser(ctx context.Context, userID snowflake.ID) []string {
	var user userdomain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		s.log.Warn("badge evaluation skipped", zap.String("user_id", userID.String()), zap.Error(err))
		return nil
	}

	var streak streakdomain.Streak
	streakDays := int64(0)
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error
	if err == nil {
		streakDays = int64(streak.CurrentStreak)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("streak lookup failed during badge evaluation", zap.Error(err))
	}

	awarded := make([]string, 0, 2)
	for _, rule := range s.rules.Get().Rules {
		var metric int64
		switch rule.Kind {
		case config.BadgeRuleKindTotalXP:
			metric = user.XPTotal
		case config.BadgeRuleKindStreak:
			metric = streakDays
		default:
			continue
		}
		if metric < rule.Threshold {
			continue
		}

		granted, err := s.AwardIfMissing(ctx, userID, rule.Code, rule.Name, rule.Description)
		if err != nil {
			s.log.Warn("badge grant failed",
				zap.String("code", rule.Code),
				zap.String("user_id", userID.String()),
				zap.Error(err))
			continue
		}
		if granted {
			awarded = append(awarded, rule.Code)
			if s.metrics != nil {
				s.metrics.BadgesAwarded.WithLabelValues(rule.Code).Inc()
			}
		}
	}
	return awarded
}

func (s *Service) grant(ctx context.Context, userID snowflake.ID, badge badgedomain.Badge) (bool, error) {
	var existing badgedomain.UserBadge
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND badge_id = ?", userID, badge.ID).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	record := badgedomain.UserBadge{
		ID:       s.genID.Generate(),
		UserID:   userID,
		BadgeID:  badge.ID,
		EarnedAt: s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
