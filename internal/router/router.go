package router

import (
	"fmt"
	"strings"

	"github.com/savage-rise/internal/cache"
	"github.com/savage-rise/internal/config"
	adminhandlers "github.com/savage-rise/internal/http/handlers/admin"
	publichandlers "github.com/savage-rise/internal/http/handlers/public"
	"github.com/savage-rise/internal/logger"
	"github.com/savage-rise/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sr"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/categories", publicHandler.GetCategories)
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:slug", publicHandler.GetProduct)
		}

		// 优惠码试算（登录可选，未登录时按游客规则校验）
		apiV1.POST("/promotions/apply",
			OptionalUserJWTMiddleware(cfg.JWT.SecretKey, c.UserRepo),
			publicHandler.ApplyPromo,
		)

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetMe)
			user.PUT("/me/profile", publicHandler.UpdateProfile)
			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
		}

		// 管理员接口（管理员即带管理标记的用户账号）
		admin := apiV1.Group("/admin")
		admin.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), AdminRequiredMiddleware())
		{
			// 分类管理
			admin.GET("/categories", adminHandler.AdminListCategories)
			admin.GET("/categories/:id", adminHandler.AdminGetCategory)
			admin.POST("/categories", adminHandler.AdminCreateCategory)
			admin.PUT("/categories/:id", adminHandler.AdminUpdateCategory)
			admin.DELETE("/categories/:id", adminHandler.AdminDeleteCategory)

			// 商品管理
			admin.GET("/products", adminHandler.AdminListProducts)
			admin.GET("/products/:id", adminHandler.AdminGetProduct)
			admin.POST("/products", adminHandler.AdminCreateProduct)
			admin.PUT("/products/:id", adminHandler.AdminUpdateProduct)
			admin.DELETE("/products/:id", adminHandler.AdminDeleteProduct)
			admin.PUT("/products/:id/variants", adminHandler.AdminReplaceVariants)
			admin.PATCH("/products/:id/variants/stock", adminHandler.AdminSetVariantStock)

			// 促销码管理
			admin.POST("/promotions", adminHandler.CreatePromotion)
			admin.GET("/promotions", adminHandler.GetAdminPromotions)
			admin.GET("/promotions/:id", adminHandler.GetAdminPromotion)
			admin.PUT("/promotions/:id", adminHandler.UpdatePromotion)
			admin.PATCH("/promotions/:id/active", adminHandler.SetPromotionActive)
			admin.DELETE("/promotions/:id", adminHandler.DeletePromotion)

			// 订单管理
			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.GET("/orders/:id", adminHandler.AdminGetOrder)
			admin.PATCH("/orders/:id", adminHandler.AdminUpdateOrderStatus)
			admin.POST("/orders/:id/mark-paid", adminHandler.AdminMarkOrderPaid)
			admin.POST("/orders/:id/cancel", adminHandler.AdminCancelOrder)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
