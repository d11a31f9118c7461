package app

import (
	"learnhub_backend/docs"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/middleware"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.NoRoute(util.NotFound)

	// 1. 公共路由(无需登录)
	registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.ActivityMiddleware(a.services.auth))
	{
		registerStudentRoutes(authGroup, c)

		// 3. 导师相关接口
		tutor := authGroup.Group("/tutor")
		tutor.Use(middleware.RoleMiddleware(model.Tutor))
		registerTutorRoutes(tutor, c)
	}
}

func registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		auth := public.Group("/auth")
		{
			auth.POST("/register", c.auth.Register)
			auth.POST("/login", c.auth.Login)
			auth.POST("/password-reset", c.auth.RequestPasswordReset)
			auth.POST("/password-reset/confirm", c.auth.ConfirmPasswordReset)
		}

		public.GET("/subjects", c.course.ListSubjects)
		public.GET("/courses", c.course.ListCourses)
		public.GET("/courses/:id", c.course.GetCourse)
		public.GET("/courses/:id/modules", c.module.ListModules)
		public.GET("/modules/:id", c.module.GetModule)
		public.GET("/content-types", c.content.ContentTypes)
	}
}

func registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/profile", c.auth.UpdateProfile)

	// 选课与完成标记
	rg.POST("/courses/:id/enroll", c.course.Enroll)
	rg.POST("/courses/:id/modules/:moduleId/complete", c.progress.CompleteModule)
	rg.POST("/courses/:id/contents/:contentId/complete", c.progress.CompleteContent)

	// 内容与测验
	rg.GET("/modules/:id/contents", c.content.ListModuleContents)
	rg.GET("/modules/:id/tests", c.test.ListModuleTests)
	rg.GET("/tests/:id", c.test.GetTest)
	rg.POST("/tests/:id/answers", c.test.SubmitAnswers)
	rg.GET("/tests/:id/results", c.test.TestResults)

	// 学习进度
	rg.GET("/student/progress", c.progress.MyProgress)
	rg.GET("/student/modules/:id/progress", c.progress.ModuleProgress)
	rg.GET("/student/dashboard", c.progress.Dashboard)
}

func registerTutorRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/courses", c.course.ListOwnedCourses)
	rg.POST("/courses", c.course.CreateCourse)
	rg.PUT("/courses/:id", c.course.UpdateCourse)
	rg.DELETE("/courses/:id", c.course.DeleteCourse)

	// 学生管理
	rg.GET("/courses/:id/students", c.course.ListStudents)
	rg.GET("/courses/:id/progress", c.progress.StudentsProgress)
	rg.POST("/courses/:id/students/:studentId/activate", c.progress.ActivateStudent)
	rg.POST("/courses/:id/students/:studentId/deactivate", c.progress.DeactivateStudent)
	rg.DELETE("/courses/:id/students/:studentId", c.course.RemoveStudent)

	// 章节
	rg.POST("/courses/:id/modules", c.module.CreateModule)
	rg.PUT("/modules/:id", c.module.UpdateModule)
	rg.DELETE("/modules/:id", c.module.DeleteModule)

	// 内容
	rg.POST("/modules/:id/contents", c.content.CreateContent)
	rg.PUT("/contents/:id", c.content.UpdateContent)
	rg.DELETE("/contents/:id", c.content.DeleteContent)

	// 测验
	rg.POST("/modules/:id/tests", c.test.CreateTest)
	rg.DELETE("/tests/:id", c.test.DeleteTest)
}
