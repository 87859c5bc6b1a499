package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopvd/backoffice/internal/authz"
	"github.com/shopvd/backoffice/internal/cache"
	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/events"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/notify"
	"github.com/shopvd/backoffice/internal/queue"
	"github.com/shopvd/backoffice/internal/repository"
	"github.com/shopvd/backoffice/internal/service"
	"github.com/shopvd/backoffice/internal/storage"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client
	Redis       *cache.Redis
	Cache       cache.Store
	Publisher   events.Publisher

	// Repositories
	UserRepo      repository.UserRepository
	OrderRepo     repository.OrderRepository
	CTVRepo       repository.CTVRepository
	DiscountRepo  repository.DiscountRepository
	ProductRepo   repository.ProductRepository
	CategoryRepo  repository.CategoryRepository
	CostRepo      repository.CostRepository
	AnalyticsRepo repository.AnalyticsRepository
	AddressRepo   repository.AddressLearningRepository
	ExportRepo    repository.ExportRepository

	// Storage
	ImageBucket  storage.Bucket
	ExportBucket storage.Bucket

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	CostService         *service.CostService
	OrderService        *service.OrderService
	CTVService          *service.CTVService
	DiscountService     *service.DiscountService
	ProductService      *service.ProductService
	CategoryService     *service.CategoryService
	MaterialService     *service.MaterialService
	UploadService       *service.UploadService
	AnalyticsService    *service.AnalyticsService
	AddressService      *service.AddressLearningService
	ExportService       *service.ExportService
	NotificationService *service.NotificationService
	Dispatcher          service.TaskDispatcher
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config, db *gorm.DB) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("db is nil")
	}
	c := &Container{
		Config: cfg,
		DB:     db,
	}

	// 初始化缓存，Redis 不可用时退化为无缓存
	c.Cache = cache.Null{}
	if redisCache := cache.NewRedis(&cfg.Redis); redisCache != nil {
		if err := redisCache.Ping(context.Background()); err != nil {
			logger.Warnw("provider_init_redis_failed", "error", err)
			_ = redisCache.Close()
		} else {
			c.Redis = redisCache
			c.Cache = redisCache
		}
	}

	// 初始化队列客户端
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			c.QueueClient = qc
		}
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化存储
	if err := c.initStorage(); err != nil {
		return nil, err
	}

	// 3. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Container) initRepositories() {
	db := c.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CTVRepo = repository.NewCTVRepository(db)
	c.DiscountRepo = repository.NewDiscountRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.CostRepo = repository.NewCostRepository(db)
	c.AnalyticsRepo = repository.NewAnalyticsRepository(db)
	c.AddressRepo = repository.NewAddressLearningRepository(db)
	c.ExportRepo = repository.NewExportRepository(db)
}

func (c *Container) initStorage() error {
	cfg := c.Config.Storage
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "s3":
		images, err := storage.NewS3(storage.S3Options{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
			BaseURL:   cfg.PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("init image bucket failed: %w", err)
		}
		exportBucket := strings.TrimSpace(cfg.ExportBucket)
		if exportBucket == "" {
			exportBucket = cfg.Bucket
		}
		exports, err := storage.NewS3(storage.S3Options{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
			Bucket:    exportBucket,
		})
		if err != nil {
			return fmt.Errorf("init export bucket failed: %w", err)
		}
		c.ImageBucket = images
		c.ExportBucket = exports
	default:
		images, err := storage.NewLocal(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return fmt.Errorf("init image storage failed: %w", err)
		}
		exports, err := storage.NewLocal(cfg.ExportDir, "")
		if err != nil {
			return fmt.Errorf("init export storage failed: %w", err)
		}
		c.ImageBucket = images
		c.ExportBucket = exports
	}
	return nil
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}

	c.NotificationService = service.NewNotificationService(
		c.OrderRepo,
		c.CTVRepo,
		c.AnalyticsRepo,
		c.buildMessenger(),
		c.buildSheets(),
		c.buildPublisher(),
		c.Config.Shop.Name,
		c.Config.Telegram.DailyReportHour,
	)
	c.Dispatcher = service.NewTaskDispatcher(c.QueueClient, c.NotificationService)

	transactor := repository.NewTransactor(c.DB)
	c.AuthService = service.NewAuthService(c.UserRepo, c.Cache, c.Config.Auth.SessionTTLHours)
	c.CostService = service.NewCostService(c.CostRepo, c.Cache, c.Config.Costing)
	c.OrderService = service.NewOrderService(transactor, c.OrderRepo, c.CTVRepo, c.DiscountRepo, c.ProductRepo, c.CostService, c.Dispatcher)
	c.CTVService = service.NewCTVService(transactor, c.CTVRepo, c.OrderRepo, c.CostService, c.Dispatcher, c.Config.Shop.PublicURL)
	c.DiscountService = service.NewDiscountService(c.DiscountRepo)
	c.ProductService = service.NewProductService(transactor, c.ProductRepo, c.ImageBucket, c.Config.Storage.PublicBaseURL)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.MaterialService = service.NewMaterialService(transactor, c.CostRepo, c.ProductRepo, c.CostService)
	c.UploadService = service.NewUploadService(c.Config.Upload, c.ImageBucket)
	c.AnalyticsService = service.NewAnalyticsService(c.AnalyticsRepo)
	c.AddressService = service.NewAddressLearningService(c.AddressRepo)
	c.ExportService = service.NewExportService(c.ExportRepo, c.OrderRepo, c.ExportBucket)

	return c.bootstrapAdmin()
}

// buildMessenger Telegram 未配置时返回 nil 接口
func (c *Container) buildMessenger() notify.Messenger {
	bot, err := notify.NewTelegram(c.Config.Telegram)
	if err != nil {
		if !errors.Is(err, notify.ErrTelegramDisabled) {
			logger.Warnw("provider_init_telegram_failed", "error", err)
		}
		return nil
	}
	return bot
}

func (c *Container) buildSheets() notify.SheetsSyncer {
	sheets, err := notify.NewSheets(c.Config.Sheets)
	if err != nil {
		if !errors.Is(err, notify.ErrSheetsDisabled) {
			logger.Warnw("provider_init_sheets_failed", "error", err)
		}
		return nil
	}
	return sheets
}

func (c *Container) buildPublisher() events.Publisher {
	c.Publisher = events.Nop{}
	producer, err := events.NewKafka(c.Config.Kafka)
	if err != nil {
		logger.Warnw("provider_init_kafka_failed", "error", err)
		return c.Publisher
	}
	if producer != nil {
		c.Publisher = producer
	}
	return c.Publisher
}

// bootstrapAdmin 首次启动时按配置创建管理员账号
func (c *Container) bootstrapAdmin() error {
	username := strings.TrimSpace(c.Config.Auth.BootstrapUsername)
	password := c.Config.Auth.BootstrapPassword
	if username == "" || password == "" {
		return nil
	}
	created, err := c.AuthService.EnsureUser(context.Background(), username, password, "Quản trị viên", constants.RoleAdmin)
	if err != nil {
		logger.Errorw("provider_bootstrap_admin_failed", "username", username, "error", err)
		return err
	}
	if created {
		logger.Infow("provider_bootstrap_admin_created", "username", username)
	}
	return nil
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			logger.Warnw("provider_close_publisher_failed", "error", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Warnw("provider_close_redis_failed", "error", err)
		}
	}
}
