package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/cache"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/config"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/controller"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/middleware"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/repository"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/service"
	"github.com/CalPolySEC/wrath-ctf-framework/pkg/configwatcher"
	"github.com/CalPolySEC/wrath-ctf-framework/pkg/database"
	"github.com/CalPolySEC/wrath-ctf-framework/pkg/logger"
	"github.com/CalPolySEC/wrath-ctf-framework/pkg/monitoring"
	"github.com/CalPolySEC/wrath-ctf-framework/pkg/security"
	"github.com/CalPolySEC/wrath-ctf-framework/pkg/tracing"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user      *repository.UserRepository
	team      *repository.TeamRepository
	challenge *repository.ChallengeRepository
	solve     *repository.SolveRepository
}

type services struct {
	session *service.SessionService
	auth    *service.AuthService
	team    *service.TeamService
	ctf     *service.CTFService
	storage *service.StorageService
	loader  *service.LoaderService
}

type controllers struct {
	auth      *controller.AuthController
	team      *controller.TeamController
	challenge *controller.ChallengeController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		team:      repository.NewTeamRepository(db),
		challenge: repository.NewChallengeRepository(db),
		solve:     repository.NewSolveRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	storage, err := service.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}

	s := &services{storage: storage}
	s.session = service.NewSessionService(cache.NewRedisStore(rdb), repos.user, cfg.Session.Secret, cfg.Session.ExpireTime)
	s.auth = service.NewAuthService(repos.user, s.session)
	s.team = service.NewTeamService(repos.team, repos.user)
	s.ctf = service.NewCTFService(repos.challenge, repos.solve, storage, cfg.CTF.EndsAt())
	s.loader = service.NewLoaderService(repos.challenge, storage, &cfg.CTF)
	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth, s.session),
		team:      controller.NewTeamController(s.team, s.ctf),
		challenge: controller.NewChallengeController(s.ctf),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config, s *services) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
	router.Use(middleware.SessionResolver(s.session))
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg, services)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("wrath-ctf", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers)

	if cfg.Storage.Type != "minio" && cfg.Storage.LocalPath != "" {
		router.Static("/files", cfg.Storage.LocalPath)
	}

	if cfg.ForceSeed || cfg.SeedOnly {
		if err := services.loader.LoadChallenges(context.Background()); err != nil {
			logger.Log.Fatal("Failed to load challenges", zap.Error(err))
		}
	}

	// Pick up competition end-time changes without a restart.
	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		services.ctf.SetEndsAt(newCfg.CTF.EndsAt())
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
