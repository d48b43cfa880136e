package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/jdon/coffeechat/internal/app/controllers"
	appRepos "github.com/jdon/coffeechat/internal/app/repositories"
	appRoutes "github.com/jdon/coffeechat/internal/app/routes"
	appServices "github.com/jdon/coffeechat/internal/app/services"
	"github.com/jdon/coffeechat/internal/batch"
	"github.com/jdon/coffeechat/internal/config"
	"github.com/jdon/coffeechat/internal/db"
	appMiddleware "github.com/jdon/coffeechat/internal/middleware"
	pkgAuth "github.com/jdon/coffeechat/internal/pkg/auth"
	"github.com/jdon/coffeechat/internal/pkg/helpers"
	"github.com/jdon/coffeechat/internal/pkg/logger"
	"github.com/jdon/coffeechat/internal/pkg/websocket"
	"github.com/jdon/coffeechat/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos                 *appRepos.Repositories
	JWTService            *pkgAuth.JWTService
	Hub                   *websocket.Hub
	EventHandler          *websocket.Handler
	CoffeeChatService     appServices.CoffeeChatService
	JobCategoryService    appServices.JobCategoryService
	CoffeeChatController  *appControllers.CoffeeChatController
	JobCategoryController *appControllers.JobCategoryController
	AuthMiddleware        *appMiddleware.AuthMiddleware
	Scheduler             *batch.Scheduler
	Logger                zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = filepath.Join("configs", "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage opens the configured backend and seeds its reference data.
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.Store, error) {
	lgr.Info().Str("driver", cfg.Database.Driver).Msg("Opening storage backend...")
	store, err := db.Open(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to open storage backend")
		return nil, err
	}

	if err := seed.CreateDefaultData(ctx, store.Repos, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return store, nil
}

// BuildDependencies initializes services, controllers, the event hub and the batch scheduler.
func BuildDependencies(cfg *config.Config, repos *appRepos.Repositories, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr, Repos: repos}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Hub = websocket.NewHub(logger.WithComponent("hub"))
	deps.EventHandler = websocket.NewHandler(deps.Hub, logger.WithComponent("websocket"))

	limits := helpers.PageLimits{
		DefaultSize: cfg.CoffeeChat.DefaultPageSize,
		MaxSize:     cfg.CoffeeChat.MaxPageSize,
	}
	deps.CoffeeChatService = appServices.NewCoffeeChatService(repos, deps.Hub, limits, logger.WithComponent("coffeechat"))
	deps.JobCategoryService = appServices.NewJobCategoryService(repos.JobCategories, lgr)

	deps.CoffeeChatController = appControllers.NewCoffeeChatController(deps.CoffeeChatService, limits)
	deps.JobCategoryController = appControllers.NewJobCategoryController(deps.JobCategoryService)

	if cfg.Batch.Enabled {
		scraping := cfg.Batch.CourseScraping
		timeout := helpers.ParseDuration(scraping.Timeout, 30*time.Minute)
		batchLogger := logger.WithComponent("batch")

		deps.Scheduler = batch.NewScheduler(timeout, batchLogger)
		job := batch.NewCourseScrapingJob(
			batch.NewCatalogClient(scraping.CatalogURL, time.Minute),
			repos.Courses,
			scraping.MaxPages,
			batchLogger,
		)
		if err := deps.Scheduler.Register(scraping.Cron, job); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", job.Name(), err)
		}
	}

	return deps, nil
}

// SeedDemoMembers creates the demo members in development mode and logs a token for each.
func SeedDemoMembers(ctx context.Context, cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) {
	if strings.ToLower(cfg.Server.Mode) != "development" {
		return
	}

	ids, err := seed.CreateDemoMembers(ctx, deps.Repos.Members, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to create demo members, proceeding anyway...")
		return
	}

	for _, id := range ids {
		member, err := deps.Repos.Members.GetByID(ctx, id)
		if err != nil {
			continue
		}
		token, expiresAt, err := deps.JWTService.GenerateAccessToken(member.ID, member.Email)
		if err != nil {
			lgr.Warn().Err(err).Int64("memberID", member.ID).Msg("Failed to issue demo token")
			continue
		}
		lgr.Info().
			Int64("memberID", member.ID).
			Str("email", member.Email).
			Time("expiresAt", expiresAt).
			Str("token", token).
			Msg("Demo member token")
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger(lgr), appMiddleware.Recovery(lgr))

	appRoutes.SetupRouter(router,
		deps.CoffeeChatController,
		deps.JobCategoryController,
		deps.EventHandler,
		deps.AuthMiddleware,
	)

	return router
}
