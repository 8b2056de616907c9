package provider

import (
	"github.com/savage-rise/internal/cache"
	"github.com/savage-rise/internal/config"
	"github.com/savage-rise/internal/logger"
	"github.com/savage-rise/internal/models"
	"github.com/savage-rise/internal/queue"
	"github.com/savage-rise/internal/repository"
	"github.com/savage-rise/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo           repository.UserRepository
	CategoryRepo       repository.CategoryRepository
	ProductRepo        repository.ProductRepository
	VariantRepo        repository.VariantRepository
	PromotionRepo      repository.PromotionRepository
	PromotionUsageRepo repository.PromotionUsageRepository
	OrderRepo          repository.OrderRepository

	// Services
	UserAuthService       *service.UserAuthService
	EmailService          *service.EmailService
	CategoryService       *service.CategoryService
	ProductService        *service.ProductService
	PromotionService      *service.PromotionService
	PromotionAdminService *service.PromotionAdminService
	OrderService          *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariantRepo = repository.NewVariantRepository(db)
	c.PromotionRepo = repository.NewPromotionRepository(db)
	c.PromotionUsageRepo = repository.NewPromotionUsageRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices() {
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.VariantRepo, c.CategoryRepo)
	c.PromotionService = service.NewPromotionService(c.PromotionRepo, c.PromotionUsageRepo)
	c.PromotionAdminService = service.NewPromotionAdminService(c.PromotionRepo)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ProductRepo,
		c.VariantRepo,
		c.PromotionService,
		c.QueueClient,
		service.OrderPricingConfig{
			ShippingFlatFee:       c.Config.Shipping.FlatFee,
			ShippingFreeThreshold: c.Config.Shipping.FreeThreshold,
			OrderNoPrefix:         c.Config.Order.NoPrefix,
			Currency:              c.Config.Order.Currency,
		},
	)
}
