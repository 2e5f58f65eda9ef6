package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/codequest-labs/codequest/internal/clock"
	userdomain "github.com/codequest-labs/codequest/internal/user/domain"
	"github.com/codequest-labs/codequest/pkg/db"
	"github.com/codequest-labs/codequest/pkg/db/pagination"
	"github.com/codequest-labs/codequest/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	users repository.Repository[userdomain.User]
}

func NewService(p ServiceParam) userdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("user.service"),
		genID: p.GenID,
		clock: p.Clock,
		users: repository.ProvideStore[userdomain.User](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req userdomain.CreateUserRequest) (*userdomain.User, error) {
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = strings.TrimSpace(req.Username)
	}
	if displayName == "" {
		return nil, userdomain.ErrInvalidDisplayName
	}

	now := s.clock.Now()
	record := &userdomain.User{
		ID:          s.genID.Generate(),
		DisplayName: displayName,
		XPTotal:     0,
		Level:       1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if username := strings.TrimSpace(req.Username); username != "" {
		record.Username = &username
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		record.Email = &email
	}

	if err := s.users.Create(ctx, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, userdomain.ErrUserExists
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*userdomain.User, error) {
	record, err := s.users.FindOne(ctx, &userdomain.User{ID: id})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, userdomain.ErrNotFound
	}
	return record, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*userdomain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, userdomain.ErrNotFound
	}
	var record userdomain.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]userdomain.LeaderboardRow, error) {
	page := pagination.Normalize(limit, 0)

	var users []userdomain.User
	err := s.db.WithContext(ctx).
		Order("xp_total DESC").
		Limit(page.Limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	rows := make([]userdomain.LeaderboardRow, 0, len(users))
	for i, u := range users {
		rows = append(rows, userdomain.LeaderboardRow{
			Rank:        i + 1,
			UserID:      u.ID,
			DisplayName: u.DisplayName,
			XP:          u.XPTotal,
			Level:       u.Level,
		})
	}
	return rows, nil
}
