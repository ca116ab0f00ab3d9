package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"thai_learn_backend/internal/config"
	"thai_learn_backend/internal/controller"
	"thai_learn_backend/internal/repository"
	"thai_learn_backend/internal/service"
	"thai_learn_backend/internal/util"
	"thai_learn_backend/pkg/configwatcher"
	"thai_learn_backend/pkg/database"
	"thai_learn_backend/pkg/lock"
	"thai_learn_backend/pkg/logger"
	"thai_learn_backend/pkg/monitoring"
	"thai_learn_backend/pkg/security"
	"thai_learn_backend/pkg/tracing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
	shutdownHooks   []func(context.Context)
	cancel          context.CancelFunc
}

type repositories struct {
	user        *repository.UserRepository
	achievement *repository.AchievementRepository
	checkin     *repository.CheckinRepository
	progress    *repository.ProgressRepository
	challenge   *repository.ChallengeRepository
	reward      *repository.RewardRepository
}

type services struct {
	user        *service.UserService
	achievement *service.AchievementService
	progress    *service.ProgressService
	catalog     *service.CatalogService
	challenge   *service.ChallengeService
	days        *controller.DayResolver
}

type controllers struct {
	user        *controller.UserController
	achievement *controller.AchievementController
	challenge   *controller.ChallengeController
	progress    *controller.ProgressController
	admin       *controller.AdminController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		achievement: repository.NewAchievementRepository(db),
		checkin:     repository.NewCheckinRepository(db),
		progress:    repository.NewProgressRepository(db),
		challenge:   repository.NewChallengeRepository(db),
		reward:      repository.NewRewardRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	loc, err := util.LoadLocation(cfg.Challenges.Timezone)
	if err != nil {
		logger.Log.Fatal("Invalid challenge timezone", zap.Error(err))
	}

	// 多实例部署时用 Redis 锁串行化同一用户的评估
	var locker lock.Locker = lock.NewLocalLocker()
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, "thai_learn:lock:", cfg.Challenges.LockTTL())
	}

	progress := service.NewProgressService(db, repos.user, repos.progress, repos.checkin, repos.achievement, repos.reward)
	catalog := service.NewCatalogService(repos.challenge, cfg.Challenges.Catalog, cfg.Challenges.CacheSize)
	challenge := service.NewChallengeService(
		db,
		repos.challenge,
		catalog,
		progress,
		locker,
		cfg.Challenges.LockWait(),
		cfg.Challenges.ReevaluateConcurrency,
	)

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		if err := catalog.SetPolicy(newCfg.Challenges.Catalog); err != nil {
			logger.Log.Error("Rejected challenge catalog from reloaded config", zap.Error(err))
		}
	})

	return &services{
		user:        service.NewUserService(repos.user),
		achievement: service.NewAchievementService(repos.achievement, repos.user, repos.checkin),
		progress:    progress,
		catalog:     catalog,
		challenge:   challenge,
		days:        controller.NewDayResolver(loc),
	}
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		user:        controller.NewUserController(s.user),
		achievement: controller.NewAchievementController(s.achievement),
		challenge:   controller.NewChallengeController(s.challenge, s.days),
		progress:    controller.NewProgressController(s.progress, s.challenge, s.days),
		admin:       controller.NewAdminController(s.catalog, s.challenge, s.days),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(
		cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute,
		"/api/health", "/metrics",
	))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 每分钟确保当天目录已生成，跨零点后自动生成新一天的挑战
func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	ensureToday := func() {
		day := s.days.Today()
		if _, err := s.catalog.EnsureDailyCatalog(ctx, day); err != nil && ctx.Err() == nil {
			logger.Log.Error("scheduled catalog generation error", zap.String("day", day), zap.Error(err))
		}
	}

	go func() {
		ensureToday()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ensureToday()
			}
		}
	}()

	go func() {
		err := configwatcher.WatchConfig(ctx, a.Config.Path, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式默认不自动迁移，需显式指定 -migrate
	if cfg.Server.Mode != gin.ReleaseMode || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			log.Fatalf("Failed to initialize redis: %v", err)
		}
		app.Redis = rdb
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, app.Redis)
	app.services = services
	controllers := app.initControllers(services, db, app.Redis)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("thai-learn-challenges", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.shutdownHooks = append(app.shutdownHooks, func(ctx context.Context) {
			if err := tp.Shutdown(ctx); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		})
	}

	app.registerRoutes(router, controllers, services, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.startBackgroundTasks(ctx, services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 停止定时任务和配置监听
	if a.cancel != nil {
		a.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	for _, hook := range a.shutdownHooks {
		hook(ctx)
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
