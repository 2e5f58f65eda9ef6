package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/codequest-labs/codequest/internal/auth/domain"
	"github.com/codequest-labs/codequest/internal/auth/github"
	"github.com/codequest-labs/codequest/internal/auth/password"
	"github.com/codequest-labs/codequest/internal/auth/token"
	"github.com/codequest-labs/codequest/internal/clock"
	"github.com/codequest-labs/codequest/internal/config"
	userdomain "github.com/codequest-labs/codequest/internal/user/domain"
	"github.com/codequest-labs/codequest/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Cfg    config.Config
	GenID  *snowflake.Node
	Clock  clock.Clock
	Tokens *token.Manager
	GitHub *github.Client
	Users  userdomain.Service
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	cfg    config.Config
	genID  *snowflake.Node
	clock  clock.Clock
	tokens *token.Manager
	github *github.Client
	users  userdomain.Service
}

func NewService(p ServiceParam) authdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("auth.service"),
		cfg:    p.Cfg,
		genID:  p.GenID,
		clock:  p.Clock,
		tokens: p.Tokens,
		github: p.GitHub,
		users:  p.Users,
	}
}

func (s *Service) Signup(ctx context.Context, req authdomain.SignupRequest) (*authdomain.AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, authdomain.ErrInvalidRequest
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = username
	}

	now := s.clock.Now()
	record := &userdomain.User{
		ID:           s.genID.Generate(),
		Username:     &username,
		DisplayName:  displayName,
		PasswordHash: &hashed,
		XPTotal:      0,
		Level:        1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		record.Email = &email
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, authdomain.ErrUserExists
		}
		return nil, err
	}

	return s.issue(record)
}

func (s *Service) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, authdomain.ErrInvalidRequest
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userdomain.ErrNotFound) {
			return nil, authdomain.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash) {
		return nil, authdomain.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *Service) GitHubExchange(ctx context.Context, code string) (*authdomain.AuthResult, error) {
	if code = strings.TrimSpace(code); code == "" {
		return nil, authdomain.ErrInvalidRequest
	}
	if s.github == nil || !s.github.Configured() {
		return nil, authdomain.ErrOAuthUnavailable
	}

	account, err := s.github.Exchange(ctx, code)
	if err != nil {
		return nil, authdomain.ErrOAuthUnavailable
	}

	user, err := s.findOrCreateGitHubUser(ctx, account)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *Service) DevLogin(ctx context.Context, userID snowflake.ID) (*authdomain.AuthResult, error) {
	if s.cfg.IsProduction() || s.cfg.DevLoginSecret == "" {
		return nil, authdomain.ErrDevLoginDisabled
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *Service) findOrCreateGitHubUser(ctx context.Context, account *github.Account) (*userdomain.User, error) {
	var user userdomain.User
	err := s.db.WithContext(ctx).Where("github_id = ?", account.ID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	githubID := account.ID
	user = userdomain.User{
		ID:          s.genID.Generate(),
		DisplayName: account.DisplayName,
		GitHubID:    &githubID,
		XPTotal:     0,
		Level:       1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if email := strings.ToLower(strings.TrimSpace(account.Email)); email != "" {
		user.Email = &email
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			// concurrent first login for the same account
			var winner userdomain.User
			if err := s.db.WithContext(ctx).Where("github_id = ?", account.ID).First(&winner).Error; err != nil {
				return nil, err
			}
			return &winner, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) issue(user *userdomain.User) (*authdomain.AuthResult, error) {
	signed, err := s.tokens.Issue(user.ID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return &authdomain.AuthResult{Token: signed, User: user}, nil
}
