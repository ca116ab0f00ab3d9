package app

import (
	"thai_learn_backend/docs"
	"thai_learn_backend/internal/config"
	"thai_learn_backend/internal/middleware"
	"thai_learn_backend/internal/model"
	"thai_learn_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 学习者接口
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.LearnerMiddleware(s.user))
	{
		a.registerLearnerRoutes(authGroup, c)
	}

	// 3. 管理员接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	challenges := rg.Group("/challenges")
	{
		challenges.GET("/daily", c.challenge.GetDailyBoard)
		challenges.POST("/evaluate", c.challenge.Evaluate)
	}

	progress := rg.Group("/progress")
	{
		progress.POST("/games", c.progress.RecordGame)
		progress.POST("/login", c.progress.RecordLogin)
		progress.GET("/snapshot", c.progress.GetSnapshot)
	}

	profile := rg.Group("/profile")
	{
		profile.GET("", c.user.GetProfile)
		profile.PUT("/level", c.user.UpdateLevel)
	}

	achievements := rg.Group("/achievements")
	{
		achievements.GET("", c.achievement.GetUserAchievements)
		achievements.GET("/leaderboard", c.achievement.GetLeaderboard)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/challenges/catalog", c.admin.EnsureCatalog)
		admin.PATCH("/challenges/:id/active", c.admin.SetActive)
		admin.POST("/challenges/reevaluate", c.admin.Reevaluate)
	}
}
