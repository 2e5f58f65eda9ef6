package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/codequest-labs/codequest/internal/clock"
	streakdomain "github.com/codequest-labs/codequest/internal/streak/domain"
	userdomain "github.com/codequest-labs/codequest/internal/user/domain"
	xpdomain "github.com/codequest-labs/codequest/internal/xp/domain"
	"github.com/codequest-labs/codequest/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const checkinXPBonus = 10

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	UserSvc userdomain.Service
	XPSvc   xpdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	usersvc userdomain.Service
	xpsvc   xpdomain.Service
}

func NewService(p ServiceParam) streakdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("streak.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		usersvc: p.UserSvc,
		xpsvc:   p.XPSvc,
	}
}

func (s *Service) Checkin(ctx context.Context, userID snowflake.ID) (*streakdomain.CheckinResult, error) {
	user, err := s.usersvc.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := truncateToDay(s.clock.Now())

	streak, err := s.loadOrCreate(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if streak.LastCheckinDate != nil && sameDay(*streak.LastCheckinDate, today) {
		return &streakdomain.CheckinResult{
			Duplicate:     true,
			CurrentStreak: streak.CurrentStreak,
		}, nil
	}

	newStreak := streak.CurrentStreak + 1
	err = s.db.WithContext(ctx).Model(&streakdomain.Streak{}).
		Where("id = ?", streak.ID).
		Updates(map[string]any{
			"current_streak":    newStreak,
			"last_checkin_date": today,
		}).Error
	if err != nil {
		return nil, err
	}

	// The natural key (daily_checkin, date) makes the award idempotent even if
	// a crash re-runs the checkin after the streak update committed.
	award, err := s.xpsvc.Award(ctx, xpdomain.AwardRequest{
		UserID:   user.ID,
		Amount:   checkinXPBonus,
		Source:   "daily_checkin",
		SourceID: today.Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}

	return &streakdomain.CheckinResult{
		NewXP:         award.NewXP,
		NewLevel:      award.NewLevel,
		LeveledUp:     award.LeveledUp,
		CurrentStreak: newStreak,
		AwardedBadges: award.AwardedBadges,
	}, nil
}

func (s *Service) Get(ctx context.Context, userID snowflake.ID) (*streakdomain.Streak, error) {
	var streak streakdomain.Streak
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &streak, nil
}

func (s *Service) loadOrCreate(ctx context.Context, userID snowflake.ID) (*streakdomain.Streak, error) {
	var streak streakdomain.Streak
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error
	if err == nil {
		return &streak, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	streak = streakdomain.Streak{
		ID:            s.genID.Generate(),
		UserID:        userID,
		CurrentStreak: 0,
	}
	if err := s.db.WithContext(ctx).Create(&streak).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			var winner streakdomain.Streak
			if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&winner).Error; err != nil {
				return nil, err
			}
			return &winner, nil
		}
		return nil, err
	}
	return &streak, nil
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
