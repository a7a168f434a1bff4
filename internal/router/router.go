package router

import (
	"time"

	"abroad/internal/handlers"
	"abroad/internal/middleware"
	"abroad/internal/models"
	"abroad/internal/ordering"
	"abroad/internal/services"
	"abroad/pkg/config"
	"abroad/pkg/jwt"
	"abroad/pkg/redisstore"
	"abroad/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies 路由依赖
type Dependencies struct {
	Config *config.Config
	DB     *gorm.DB
	JWT    *jwt.JWTManager
	Redis  *redisstore.RedisStore // 可以为空：不吊销令牌，排序不加锁
	Orders *ordering.Manager
}

// SetupRouter 设置路由
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS(deps.Config.CORS))

	// 注册路由
	registerRoutes(router, deps)
	return router
}

func perm(module, action string) string {
	return models.PermissionCode(module, action)
}

// 注册所有路由
func registerRoutes(router *gin.Engine, deps Dependencies) {
	orders := deps.Orders
	if orders == nil {
		orders = ordering.NewManager(nil)
	}

	var (
		revocation middleware.TokenRevocation
		revoker    handlers.TokenRevoker
	)
	if deps.Redis != nil {
		revocation, revoker = deps.Redis, deps.Redis
	}

	userService := services.NewUserService(deps.DB)
	statusService := services.NewRepCountryStatusService(deps.DB, orders)
	subStatusService := services.NewSubStatusService(deps.DB, orders)

	auth := middleware.NewAuthMiddleware(userService, deps.JWT, revocation, deps.Config.Tenancy.PlatformWrite)

	// API路由组
	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// 认证
		authHandler := handlers.NewAuthHandler(userService, deps.JWT, revoker)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", auth.RequireLogin(), authHandler.Logout)
			authGroup.POST("/refresh", auth.RequireLogin(), authHandler.RefreshToken)
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
			authGroup.POST("/change-password", auth.RequireLogin(), authHandler.ChangePassword)
		}

		// 机构（平台管理员）
		orgHandler := handlers.NewOrganizationHandler(services.NewOrganizationService(deps.DB))
		orgs := api.Group("/organizations", auth.RequireLogin(), auth.RequirePlatformAdmin())
		{
			orgs.POST("", orgHandler.Create)
			orgs.GET("", orgHandler.GetAll)
			orgs.GET("/stats", orgHandler.GetStats)
			orgs.GET("/:id", orgHandler.GetByID)
			orgs.PUT("/:id", orgHandler.Update)
			orgs.PUT("/:id/settings", orgHandler.UpdateSettings)
			orgs.DELETE("/:id", orgHandler.Delete)
			orgs.POST("/:id/activate", orgHandler.Activate)
			orgs.POST("/:id/deactivate", orgHandler.Deactivate)
		}

		// 用户
		userHandler := handlers.NewUserHandler(userService)
		users := api.Group("/users", auth.RequireLogin())
		{
			users.POST("", auth.RequirePermission(perm(models.ModuleUser, models.ActionCreate)), userHandler.Create)
			users.GET("", auth.RequirePermission(perm(models.ModuleUser, models.ActionList)), userHandler.GetAll)
			users.GET("/:id", auth.RequirePermission(perm(models.ModuleUser, models.ActionRead)), userHandler.GetByID)
			users.PUT("/:id", auth.RequirePermission(perm(models.ModuleUser, models.ActionUpdate)), userHandler.Update)
			users.DELETE("/:id", auth.RequirePermission(perm(models.ModuleUser, models.ActionDelete)), userHandler.Delete)

			users.POST("/:id/activate", auth.RequirePermission(perm(models.ModuleUser, models.ActionUpdate)), userHandler.Activate)
			users.POST("/:id/deactivate", auth.RequirePermission(perm(models.ModuleUser, models.ActionUpdate)), userHandler.Deactivate)
			users.POST("/:id/lock", auth.RequirePermission(perm(models.ModuleUser, models.ActionUpdate)), userHandler.Lock)
			users.POST("/:id/reset-password", auth.RequirePermission(perm(models.ModuleUser, models.ActionUpdate)), userHandler.ResetPassword)

			users.POST("/:id/roles", auth.RequirePermission(perm(models.ModuleUser, models.ActionUpdate)), userHandler.AssignRoles)
			users.GET("/:id/permissions", auth.RequirePermission(perm(models.ModuleUser, models.ActionRead)), userHandler.GetUserPermissions)
		}

		// 角色
		roleHandler := handlers.NewRoleHandler(services.NewRoleService(deps.DB))
		roles := api.Group("/roles", auth.RequireLogin())
		{
			roles.POST("", auth.RequirePermission(perm(models.ModuleRole, models.ActionCreate)), roleHandler.Create)
			roles.GET("", auth.RequirePermission(perm(models.ModuleRole, models.ActionList)), roleHandler.GetAll)
			roles.GET("/:id", auth.RequirePermission(perm(models.ModuleRole, models.ActionRead)), roleHandler.GetByID)
			roles.PUT("/:id", auth.RequirePermission(perm(models.ModuleRole, models.ActionUpdate)), roleHandler.Update)
			roles.DELETE("/:id", auth.RequirePermission(perm(models.ModuleRole, models.ActionDelete)), roleHandler.Delete)
			roles.POST("/:id/permissions", auth.RequirePermission(perm(models.ModuleRole, models.ActionUpdate)), roleHandler.AssignPermissions)
		}

		// 权限目录（只读）
		permissionHandler := handlers.NewPermissionHandler(services.NewPermissionService(deps.DB))
		permissions := api.Group("/permissions", auth.RequireLogin())
		{
			permissions.GET("", permissionHandler.GetAll)
			permissions.GET("/module/:module", permissionHandler.GetByModule)
			permissions.GET("/:id", permissionHandler.GetByID)
		}

		// 国家参考数据
		countryHandler := handlers.NewCountryHandler(services.NewCountryService(deps.DB))
		countries := api.Group("/countries", auth.RequireLogin())
		{
			countries.GET("", countryHandler.List)
			countries.GET("/:id", countryHandler.GetByID)
			countries.POST("", auth.RequirePlatformAdmin(), countryHandler.Create)
		}

		// 代理国家及其状态
		rcHandler := handlers.NewRepresentingCountryHandler(services.NewRepresentingCountryService(deps.DB, orders), statusService)
		rcList := perm(models.ModuleRepresentingCountry, models.ActionList)
		rcRead := perm(models.ModuleRepresentingCountry, models.ActionRead)
		rcCreate := perm(models.ModuleRepresentingCountry, models.ActionCreate)
		rcUpdate := perm(models.ModuleRepresentingCountry, models.ActionUpdate)
		rcDelete := perm(models.ModuleRepresentingCountry, models.ActionDelete)
		rcStatus := perm(models.ModuleRepresentingCountry, models.ActionManageStatus)
		representing := api.Group("/representing-countries", auth.RequireLogin())
		{
			representing.GET("", auth.RequirePermission(rcList), rcHandler.List)
			representing.POST("", auth.RequirePermission(rcCreate), rcHandler.Create)
			representing.GET("/trashed", auth.RequirePermission(rcDelete), rcHandler.ListTrashed)
			representing.GET("/:id", auth.RequirePermission(rcRead), rcHandler.GetByID)
			representing.PUT("/:id", auth.RequirePermission(rcUpdate), rcHandler.Update)
			representing.DELETE("/:id", auth.RequirePermission(rcDelete), rcHandler.Delete)
			representing.POST("/:id/restore", auth.RequirePermission(rcDelete), rcHandler.Restore)
			representing.POST("/:id/activate", auth.RequirePermission(rcUpdate), rcHandler.Activate)
			representing.POST("/:id/deactivate", auth.RequirePermission(rcUpdate), rcHandler.Deactivate)

			representing.GET("/:id/statuses", auth.RequirePermission(rcRead), rcHandler.ListStatuses)
			representing.POST("/:id/statuses", auth.RequirePermission(rcStatus), rcHandler.AddStatus)
			representing.POST("/:id/statuses/defaults", auth.RequirePermission(rcStatus), rcHandler.EnsureDefaultStatuses)
			representing.PUT("/:id/statuses/reorder", auth.RequirePermission(rcStatus), rcHandler.ReorderStatuses)
			representing.PUT("/:id/statuses/notes", auth.RequirePermission(rcStatus), rcHandler.UpdateStatusNotes)
		}

		statusHandler := handlers.NewStatusHandler(statusService, subStatusService)
		statuses := api.Group("/statuses", auth.RequireLogin())
		{
			statuses.GET("/:id", auth.RequirePermission(rcRead), statusHandler.GetByID)
			statuses.PUT("/:id", auth.RequirePermission(rcStatus), statusHandler.Update)
			statuses.PUT("/:id/name", auth.RequirePermission(rcStatus), statusHandler.Rename)
			statuses.POST("/:id/activate", auth.RequirePermission(rcStatus), statusHandler.Activate)
			statuses.POST("/:id/deactivate", auth.RequirePermission(rcStatus), statusHandler.Deactivate)
			statuses.DELETE("/:id", auth.RequirePermission(rcStatus), statusHandler.Delete)

			statuses.GET("/:id/sub-statuses", auth.RequirePermission(rcRead), statusHandler.ListSubStatuses)
			statuses.POST("/:id/sub-statuses", auth.RequirePermission(rcStatus), statusHandler.AddSubStatus)
			statuses.PUT("/:id/sub-statuses/reorder", auth.RequirePermission(rcStatus), statusHandler.ReorderSubStatuses)
		}

		subStatuses := api.Group("/sub-statuses", auth.RequireLogin())
		{
			subStatuses.GET("/:id", auth.RequirePermission(rcRead), statusHandler.GetSubStatus)
			subStatuses.PUT("/:id", auth.RequirePermission(rcStatus), statusHandler.UpdateSubStatus)
			subStatuses.POST("/:id/activate", auth.RequirePermission(rcStatus), statusHandler.ActivateSubStatus)
			subStatuses.POST("/:id/deactivate", auth.RequirePermission(rcStatus), statusHandler.DeactivateSubStatus)
			subStatuses.DELETE("/:id", auth.RequirePermission(rcStatus), statusHandler.DeleteSubStatus)
		}

		// 申请流程
		processHandler := handlers.NewApplicationProcessHandler(services.NewApplicationProcessService(deps.DB, orders))
		processes := api.Group("/application-processes", auth.RequireLogin())
		{
			processes.GET("", auth.RequirePermission(perm(models.ModuleApplicationProcess, models.ActionList)), processHandler.List)
			processes.GET("/tree", auth.RequirePermission(perm(models.ModuleApplicationProcess, models.ActionList)), processHandler.Tree)
			processes.POST("", auth.RequirePermission(perm(models.ModuleApplicationProcess, models.ActionCreate)), processHandler.Create)
			processes.PUT("/reorder", auth.RequirePermission(perm(models.ModuleApplicationProcess, models.ActionUpdate)), processHandler.Reorder)
			processes.GET("/:id", auth.RequirePermission(perm(models.ModuleApplicationProcess, models.ActionRead)), processHandler.GetByID)
			processes.PUT("/:id", auth.RequirePermission(perm(models.ModuleApplicationProcess, models.ActionUpdate)), processHandler.Update)
			processes.POST("/:id/activate", auth.RequirePermission(perm(models.ModuleApplicationProcess, models.ActionUpdate)), processHandler.Activate)
			processes.POST("/:id/deactivate", auth.RequirePermission(perm(models.ModuleApplicationProcess, models.ActionUpdate)), processHandler.Deactivate)
			processes.DELETE("/:id", auth.RequirePermission(perm(models.ModuleApplicationProcess, models.ActionDelete)), processHandler.Delete)
		}
	}
}

func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "abroad",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
