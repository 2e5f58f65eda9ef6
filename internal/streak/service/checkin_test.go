package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/codequest-labs/codequest/internal/badge/domain"
	badgeservice "github.com/codequest-labs/codequest/internal/badge/service"
	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/config"
	"github.com/codequest-labs/codequest/internal/counter"
	"github.com/codequest-labs/codequest/internal/ratelimit"
	streakdomain "github.com/codequest-labs/codequest/internal/streak/domain"
	userdomain "github.com/codequest-labs/codequest/internal/user/domain"
	userservice "github.com/codequest-labs/codequest/internal/user/service"
	xpdomain "github.com/codequest-labs/codequest/internal/xp/domain"
	xpservice "github.com/codequest-labs/codequest/internal/xp/service"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	clock   *clock.FakeClock
	usersvc userdomain.Service
	svc     streakdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&xpdomain.XPEvent{},
		&badgedomain.Badge{},
		&badgedomain.UserBadge{},
		&streakdomain.Streak{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	usersvc := userservice.NewService(userservice.ServiceParam{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
	})
	badgesvc := badgeservice.NewService(badgeservice.ServiceParam{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Rules: config.NewStaticBadgeRulesHolder(config.DefaultBadgeRulesConfig()),
	})
	cfg := config.Config{XPRateLimitMax: 1000, XPRateLimitWindow: time.Minute}
	xpsvc := xpservice.NewService(xpservice.ServiceParam{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   clk,
		Limiter: ratelimit.NewAwardLimiter(counter.NewMemoryStore(clk), clk, cfg),
		UserSvc: usersvc,
		Badges:  badgesvc,
	})

	svc := NewService(ServiceParam{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   clk,
		UserSvc: usersvc,
		XPSvc:   xpsvc,
	})

	return &fixture{clock: clk, usersvc: usersvc, svc: svc}
}

func (f *fixture) createUser(t *testing.T) *userdomain.User {
	t.Helper()
	user, err := f.usersvc.Create(context.Background(), userdomain.CreateUserRequest{DisplayName: "alice"})
	require.NoError(t, err)
	return user
}

func TestCheckin_AwardsDailyBonus(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t)

	res, err := f.svc.Checkin(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, int64(10), res.NewXP)

	stored, err := f.usersvc.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored.XPTotal)
}

func TestCheckin_SameDayIsDuplicate(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t)
	ctx := context.Background()

	_, err := f.svc.Checkin(ctx, user.ID)
	require.NoError(t, err)

	// later the same day
	f.clock.Advance(6 * time.Hour)
	res, err := f.svc.Checkin(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, 1, res.CurrentStreak)

	stored, err := f.usersvc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored.XPTotal)
}

func TestCheckin_ConsecutiveDaysGrowTheStreak(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t)
	ctx := context.Background()

	for day := 1; day <= 4; day++ {
		res, err := f.svc.Checkin(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, day, res.CurrentStreak)
		f.clock.Advance(24 * time.Hour)
	}

	stored, err := f.usersvc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), stored.XPTotal)
}

func TestCheckin_FiveDayStreakBadge(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t)
	ctx := context.Background()

	var last *streakdomain.CheckinResult
	for day := 1; day <= 5; day++ {
		res, err := f.svc.Checkin(ctx, user.ID)
		require.NoError(t, err)
		last = res
		f.clock.Advance(24 * time.Hour)
	}

	assert.Equal(t, 5, last.CurrentStreak)
	assert.Contains(t, last.AwardedBadges, "5_day_streak")
}

func TestGet_MissingStreakIsNil(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t)

	streak, err := f.svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, streak)
}
