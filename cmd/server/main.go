package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/shopvd/backoffice/internal/app"
	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiDim       = "\033[2m"
	ansiGreen     = "\033[32m"
	ansiCyan      = "\033[36m"
	ansiBrightMag = "\033[95m"
)

func main() {
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	printStartupBanner(mode)

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if cfg.Server.Mode == "release" {
		if isWeakPassword(cfg.Auth.BootstrapPassword) {
			stdLog.Fatalf("bootstrap 管理员密码过弱，请在生产环境中配置强密码或留空")
		}
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Server.Mode == "debug")
	if err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}
	if err := models.EnsureCostDefaults(db, cfg.Costing.DefaultTaxRate, cfg.Costing.DefaultShippingFee); err != nil {
		stdLog.Fatalf("成本默认值初始化失败: %v", err)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		DB:      db,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner(mode string) {
	fmt.Println(ansiBrightMag + "╔══════════════════════════════════════════════════════╗" + ansiReset)
	fmt.Println(ansiBrightMag + "║            🛍  ShopVD Back-office API                ║" + ansiReset)
	fmt.Println(ansiBrightMag + "╚══════════════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiCyan + "orders · ctv · discounts · costing · analytics" + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "mode: " + mode + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------" + ansiReset)
}

// isWeakPassword 空密码表示不创建管理员，不视为弱密码
func isWeakPassword(password string) bool {
	if password == "" {
		return false
	}
	if len(password) < 12 {
		return true
	}
	normalized := strings.ToLower(password)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "password") ||
		strings.Contains(normalized, "admin123")
}
