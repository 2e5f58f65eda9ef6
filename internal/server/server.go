// Package server wires the HTTP surface: routing, auth middleware and the
// error envelope.
package server

import (
	"context"
	"net/http"
	"time"

	authdomain "github.com/codequest-labs/codequest/internal/auth/domain"
	"github.com/codequest-labs/codequest/internal/auth/token"
	badgedomain "github.com/codequest-labs/codequest/internal/badge/domain"
	"github.com/codequest-labs/codequest/internal/config"
	jobdomain "github.com/codequest-labs/codequest/internal/job/domain"
	streakdomain "github.com/codequest-labs/codequest/internal/streak/domain"
	userdomain "github.com/codequest-labs/codequest/internal/user/domain"
	xpdomain "github.com/codequest-labs/codequest/internal/xp/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	log       *zap.Logger
	tokens    *token.Manager
	authsvc   authdomain.Service
	usersvc   userdomain.Service
	xpsvc     xpdomain.Service
	badgesvc  badgedomain.Service
	streaksvc streakdomain.Service
	jobsvc    jobdomain.Service
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	Log       *zap.Logger
	Tokens    *token.Manager
	Authsvc   authdomain.Service
	Usersvc   userdomain.Service
	XPsvc     xpdomain.Service
	Badgesvc  badgedomain.Service
	Streaksvc streakdomain.Service
	Jobsvc    jobdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		log:       p.Log.Named("http"),
		tokens:    p.Tokens,
		authsvc:   p.Authsvc,
		usersvc:   p.Usersvc,
		xpsvc:     p.XPsvc,
		badgesvc:  p.Badgesvc,
		streaksvc: p.Streaksvc,
		jobsvc:    p.Jobsvc,
	}

	svc.registerRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", s.Signup)
		auth.POST("/login", s.Login)
		auth.POST("/github", s.GitHubLogin)
		auth.POST("/dev-login", s.DevLogin)
	}

	api.POST("/users", s.CreateUser)
	api.GET("/users/:id/stats", s.UserStats)
	api.GET("/leaderboard", s.Leaderboard)

	api.POST("/xp/award", s.OptionalAuth(), s.AwardXP)

	api.GET("/badges", s.ListBadges)
	api.POST("/badges", s.AdminRequired(), s.CreateBadge)
	api.POST("/badges/:code/award", s.AuthRequired(), s.AwardBadge)

	me := api.Group("/me", s.AuthRequired())
	{
		me.GET("", s.Me)
		me.GET("/progress", s.Progress)
		me.GET("/badges", s.MyBadges)
		me.POST("/checkin", s.Checkin)
	}

	jobs := api.Group("/jobs", s.AuthRequired())
	{
		jobs.POST("", s.SubmitJob)
		jobs.GET("", s.ListJobs)
		jobs.GET("/:id", s.GetJob)
		jobs.POST("/:id/cancel", s.CancelJob)
	}
}
