package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/constants"
	adminhandlers "github.com/shopvd/backoffice/internal/http/handlers/admin"
	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	publichandlers "github.com/shopvd/backoffice/internal/http/handlers/public"
	"github.com/shopvd/backoffice/internal/http/response"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const loginTooMany = "Quá nhiều lần đăng nhập. Vui lòng thử lại sau %d giây"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	handlershared.RegisterValidators()

	r := gin.New()
	r.HandleMethodNotAllowed = true

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	var redisClient *redis.Client
	if c != nil && c.Redis != nil {
		redisClient = c.Redis.Client()
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       loginTooMany,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 本地存储时直接托管上传的图片
	if strings.EqualFold(cfg.Storage.Driver, "local") && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(strings.TrimRight(cfg.Storage.PublicBaseURL, "/"), cfg.Storage.LocalDir)
	}

	var auth gin.HandlerFunc
	if c != nil {
		auth = SessionAuthMiddleware(c.AuthService, c.AuthzService)
	} else {
		auth = SessionAuthMiddleware(nil, nil)
	}
	loginLimit := ForAction("login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")))

	getActions := buildGetActions(publicHandler, adminHandler)
	postActions := buildPostActions(publicHandler, adminHandler)

	// action 分发入口
	for _, path := range []string{"/", "/api"} {
		entry := r.Group(path, ActionMiddleware(), loginLimit, auth)
		entry.GET("", dispatch(getActions))
		entry.POST("", dispatch(postActions))
	}

	// 路径式接口
	for _, route := range buildPathRoutes(publicHandler, adminHandler) {
		r.POST(route.Path, FixedAction(route.Action), auth, route.Handler)
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, unknownEndpoint)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	return r
}
