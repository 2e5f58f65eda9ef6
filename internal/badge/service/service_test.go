package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	badgedomain "github.com/codequest-labs/codequest/internal/badge/domain"
	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/config"
	streakdomain "github.com/codequest-labs/codequest/internal/streak/domain"
	userdomain "github.com/codequest-labs/codequest/internal/user/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (badgedomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&badgedomain.Badge{},
		&badgedomain.UserBadge{},
		&streakdomain.Streak{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		Rules: config.NewStaticBadgeRulesHolder(config.DefaultBadgeRulesConfig()),
	})
	return svc, db, node
}

func TestCreate_SlugsCodeFromName(t *testing.T) {
	svc, _, _ := newService(t)

	badge, err := svc.Create(context.Background(), badgedomain.CreateBadgeRequest{Name: "Night Owl"})
	require.NoError(t, err)
	assert.Equal(t, "night-owl", badge.Code)
}

func TestCreate_RejectsEmptyName(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Create(context.Background(), badgedomain.CreateBadgeRequest{Name: "   "})
	assert.ErrorIs(t, err, badgedomain.ErrInvalidName)
}

func TestCreate_DuplicateCode(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, badgedomain.CreateBadgeRequest{Code: "veteran", Name: "Veteran"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, badgedomain.CreateBadgeRequest{Code: "veteran", Name: "Veteran II"})
	assert.ErrorIs(t, err, badgedomain.ErrBadgeExists)
}

func TestAwardByCode(t *testing.T) {
	svc, _, node := newService(t)
	ctx := context.Background()
	userID := node.Generate()

	_, err := svc.Create(ctx, badgedomain.CreateBadgeRequest{Code: "veteran", Name: "Veteran"})
	require.NoError(t, err)

	awarded, err := svc.AwardByCode(ctx, userID, "veteran")
	require.NoError(t, err)
	assert.True(t, awarded)

	// second grant is a no-op, not an error
	awarded, err = svc.AwardByCode(ctx, userID, "veteran")
	require.NoError(t, err)
	assert.False(t, awarded)

	_, err = svc.AwardByCode(ctx, userID, "missing")
	assert.ErrorIs(t, err, badgedomain.ErrNotFound)
}

func TestAwardIfMissing_CreatesCatalogEntry(t *testing.T) {
	svc, db, node := newService(t)
	ctx := context.Background()
	userID := node.Generate()

	awarded, err := svc.AwardIfMissing(ctx, userID, "first_100_xp", "Century", "Earn your first 100 XP")
	require.NoError(t, err)
	assert.True(t, awarded)

	var badge badgedomain.Badge
	require.NoError(t, db.Where("code = ?", "first_100_xp").First(&badge).Error)
	assert.Equal(t, "Century", badge.Name)
}

func TestEvaluateForUser_ThresholdRules(t *testing.T) {
	svc, db, node := newService(t)
	ctx := context.Background()

	user := userdomain.User{ID: node.Generate(), DisplayName: "alice", XPTotal: 150, Level: 1}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&streakdomain.Streak{
		ID:            node.Generate(),
		UserID:        user.ID,
		CurrentStreak: 6,
	}).Error)

	awarded := svc.EvaluateForUser(ctx, user.ID)
	assert.ElementsMatch(t, []string{"first_100_xp", "5_day_streak"}, awarded)

	// already granted, nothing new
	awarded = svc.EvaluateForUser(ctx, user.ID)
	assert.Empty(t, awarded)
}

func TestEvaluateForUser_BelowThresholds(t *testing.T) {
	svc, db, node := newService(t)

	user := userdomain.User{ID: node.Generate(), DisplayName: "bob", XPTotal: 20, Level: 1}
	require.NoError(t, db.Create(&user).Error)

	awarded := svc.EvaluateForUser(context.Background(), user.ID)
	assert.Empty(t, awarded)
}

func TestListForUser(t *testing.T) {
	svc, _, node := newService(t)
	ctx := context.Background()
	userID := node.Generate()

	_, err := svc.Create(ctx, badgedomain.CreateBadgeRequest{Code: "veteran", Name: "Veteran"})
	require.NoError(t, err)
	_, err = svc.AwardByCode(ctx, userID, "veteran")
	require.NoError(t, err)

	earned, err := svc.ListForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, "veteran", earned[0].Code)
	assert.Equal(t, "Veteran", earned[0].Name)
}
