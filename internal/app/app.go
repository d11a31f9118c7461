package app

import (
	"context"
	"errors"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/controller"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/pkg/configwatcher"
	"learnhub_backend/pkg/database"
	"learnhub_backend/pkg/lock"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/mail"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/security"
	"learnhub_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config      *config.Config
	Router      *gin.Engine
	DB          *gorm.DB
	Redis       *redis.Client
	RateLimiter *security.RateLimiter

	configDir       string
	services        *services
	tracer          *sdktrace.TracerProvider
	stop            chan struct{}
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	course   *repository.CourseRepository
	module   *repository.ModuleRepository
	content  *repository.ContentRepository
	progress *repository.ProgressRepository
	test     *repository.TestRepository
}

type services struct {
	auth      *service.AuthService
	storage   *service.StorageService
	course    *service.CourseService
	module    *service.ModuleService
	content   *service.ContentService
	progress  *service.ProgressService
	test      *service.TestService
	integrity *service.IntegrityService
}

type controllers struct {
	auth     *controller.AuthController
	course   *controller.CourseController
	module   *controller.ModuleController
	content  *controller.ContentController
	progress *controller.ProgressController
	test     *controller.TestController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	// Redis 可用时顺序号锁跨实例生效
	assigner := repository.NewOrderAssigner(db, lock.New(rdb))
	return &repositories{
		user:     repository.NewUserRepository(db),
		course:   repository.NewCourseRepository(db),
		module:   repository.NewModuleRepository(db, assigner),
		content:  repository.NewContentRepository(db, assigner),
		progress: repository.NewProgressRepository(db),
		test:     repository.NewTestRepository(db),
	}
}

func initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	guard := service.NewGuard(repos.course, repos.module)
	mailer := mail.New(&cfg.Mail)

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, mailer, cfg)
	s.course = service.NewCourseService(repos.course, repos.module, repos.progress, repos.user, guard, s.storage, mailer)
	s.module = service.NewModuleService(repos.module, repos.course, guard, s.storage)
	s.content = service.NewContentService(repos.content, guard, s.storage)
	s.progress = service.NewProgressService(repos.progress, repos.module, repos.content, repos.course, guard)
	s.test = service.NewTestService(repos.test, repos.module, guard)
	s.integrity = service.NewIntegrityService(repos.content)

	return s
}

func initControllers(s *services, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *controllers {
	maxUpload := cfg.Storage.MaxUploadMB << 20
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		course:   controller.NewCourseController(s.course, maxUpload),
		module:   controller.NewModuleController(s.module),
		content:  controller.NewContentController(s.content, maxUpload),
		progress: controller.NewProgressController(s.progress),
		test:     controller.NewTestController(s.test),
		health:   controller.NewHealthController(db, rdb),
	}
}

// New 在已连接的数据库上组装仓储、服务与路由，不启动后台任务
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		stop:   make(chan struct{}),
	}

	repos := initRepositories(db, rdb)
	app.services = initServices(repos, cfg)
	ctrls := initControllers(app.services, cfg, db, rdb)

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	app.RateLimiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, window)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls, cfg)

	app.RegisterConfigCallback(func(c *config.Config) {
		app.RateLimiter.Update(c.RateLimit.MaxRequests, time.Duration(c.RateLimit.WindowMinutes)*time.Minute)
	})
	app.RegisterConfigCallback(func(c *config.Config) {
		logger.SetMode(c.Server.Mode)
	})

	return app
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(a.RateLimiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks() {
	go a.RateLimiter.Run(a.stop)

	if err := a.services.integrity.Start(a.Config.Jobs.IntegrityAuditSpec); err != nil {
		logger.Log.Error("Failed to schedule integrity audit", zap.Error(err))
	}

	if a.configDir == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-a.stop
		cancel()
	}()
	go func() {
		path := filepath.Join(a.configDir, "config.yaml")
		err := configwatcher.WatchConfig(ctx, path, func(c *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(c)
			}
		})
		if err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config, configDir string) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Error("Failed to initialize database", zap.Error(err))
		return nil, err
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db, stop: make(chan struct{})}, nil
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Error("Failed to initialize redis", zap.Error(err))
		return nil, err
	}

	// 监控初始化
	monitoring.Init()

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
			return nil, err
		}
	}

	app := New(cfg, db, rdb)
	app.configDir = configDir
	app.tracer = tp

	if cfg.Storage.Type == "local" {
		app.Router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks()
	return app, nil
}

// Close 停止后台任务并释放连接
func (a *App) Close() {
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}
	if a.services != nil {
		a.services.integrity.Stop()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close()

	logger.Log.Info("Server exiting")
}
