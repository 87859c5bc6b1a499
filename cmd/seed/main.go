package main

import (
	"context"
	"errors"

	"github.com/shopvd/backoffice/internal/cache"
	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"
	"github.com/shopvd/backoffice/internal/service"

	"gorm.io/gorm"
)

type materialSeed struct {
	ItemName    string
	DisplayName string
	Cost        float64
	Category    string
	IsDefault   bool
}

type productSeed struct {
	Name      string
	Price     int64
	Category  string
	Materials map[string]float64
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	db, err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false)
	if err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 商品分类
	categoryNames := []string{"Vòng tay", "Vòng cổ", "Combo"}
	categoryIDs := map[string]uint{}
	for i, name := range categoryNames {
		cat := models.Category{Name: name, DisplayOrder: i + 1, IsActive: true}
		if err := db.Where("name = ?", name).FirstOrCreate(&cat).Error; err != nil {
			stdLog.Printf("Failed to create category %s: %v", name, err)
			continue
		}
		categoryIDs[name] = cat.ID
		stdLog.Printf("Category ready: %s (#%d)", name, cat.ID)
	}

	// 物料分类
	materialCategories := []models.MaterialCategory{
		{Name: "beads", DisplayName: "Hạt / dâu tằm", Icon: "📿", SortOrder: 1},
		{Name: "strings", DisplayName: "Dây", Icon: "🧵", SortOrder: 2},
		{Name: "charms", DisplayName: "Charm / phụ kiện", Icon: "✨", SortOrder: 3},
		{Name: "packaging", DisplayName: "Đóng gói", Icon: "📦", SortOrder: 4},
	}
	materialCategoryIDs := map[string]uint{}
	for _, mc := range materialCategories {
		item := mc
		if err := db.Where("name = ?", item.Name).FirstOrCreate(&item).Error; err != nil {
			stdLog.Printf("Failed to create material category %s: %v", item.Name, err)
			continue
		}
		materialCategoryIDs[item.Name] = item.ID
	}
	if packagingID := materialCategoryIDs["packaging"]; packagingID != 0 && packagingID != cfg.Costing.PackagingCategoryID {
		stdLog.Printf("注意: 包装分类 ID 为 %d，请设置 costing.packaging_category_id", packagingID)
	}

	// 物料与包装价目
	materials := []materialSeed{
		{ItemName: "dau_tam_6mm", DisplayName: "Dâu tằm 6mm", Cost: 1500, Category: "beads"},
		{ItemName: "dau_tam_8mm", DisplayName: "Dâu tằm 8mm", Cost: 2000, Category: "beads"},
		{ItemName: "day_do", DisplayName: "Dây đỏ", Cost: 1000, Category: "strings"},
		{ItemName: "day_ngu_sac", DisplayName: "Dây ngũ sắc", Cost: 1500, Category: "strings"},
		{ItemName: "charm_bac", DisplayName: "Charm bạc", Cost: 25000, Category: "charms"},
		{ItemName: "bag_zip", DisplayName: "Túi zip", Cost: 500, Category: "packaging", IsDefault: true},
		{ItemName: "hop_qua", DisplayName: "Hộp quà", Cost: 4000, Category: "packaging", IsDefault: true},
		{ItemName: "thiep_cam_on", DisplayName: "Thiệp cảm ơn", Cost: 700, Category: "packaging", IsDefault: true},
	}
	for _, m := range materials {
		row := models.CostConfig{
			ItemName:    m.ItemName,
			DisplayName: m.DisplayName,
			ItemCost:    models.NewDecimal(m.Cost),
			IsDefault:   m.IsDefault,
		}
		if id, ok := materialCategoryIDs[m.Category]; ok {
			row.CategoryID = &id
		}
		if err := upsertCostRow(db, row); err != nil {
			stdLog.Printf("Failed to seed material %s: %v", m.ItemName, err)
		}
	}

	// 税率与运费
	settings := []models.CostConfig{
		{ItemName: constants.CostKeyTaxRate, DisplayName: "Thuế suất", ItemCost: models.NewDecimal(cfg.Costing.DefaultTaxRate)},
		{ItemName: constants.CostKeyShippingFee, DisplayName: "Phí ship khách", ItemCost: models.NewDecimal(38000)},
		{ItemName: "default_shipping_cost", DisplayName: "Chi phí ship mặc định", ItemCost: models.NewDecimal(26000)},
	}
	for _, row := range settings {
		if err := upsertCostRow(db, row); err != nil {
			stdLog.Printf("Failed to seed setting %s: %v", row.ItemName, err)
		}
	}

	// 商品与物料用量
	products := []productSeed{
		{Name: "Vòng dâu tằm đỏ", Price: 89000, Category: "Vòng tay", Materials: map[string]float64{"dau_tam_6mm": 18, "day_do": 1}},
		{Name: "Vòng dâu tằm ngũ sắc", Price: 99000, Category: "Vòng tay", Materials: map[string]float64{"dau_tam_6mm": 18, "day_ngu_sac": 1}},
		{Name: "Vòng cổ dâu tằm charm bạc", Price: 259000, Category: "Vòng cổ", Materials: map[string]float64{"dau_tam_8mm": 30, "day_do": 2, "charm_bac": 1}},
	}
	for _, p := range products {
		if err := seedProduct(db, p, categoryIDs[p.Category]); err != nil {
			stdLog.Printf("Failed to seed product %s: %v", p.Name, err)
			continue
		}
		stdLog.Printf("Product ready: %s", p.Name)
	}

	// 示例 CTV 与优惠码
	ctv := models.CTV{
		FullName:       "Cộng tác viên mẫu",
		Phone:          "0912345678",
		City:           "Hà Nội",
		ReferralCode:   "CTV001",
		Status:         constants.CTVStatusActive,
		CommissionRate: models.NewDecimal(cfg.Costing.DefaultCommissionRate),
	}
	if err := db.Where("referral_code = ?", ctv.ReferralCode).FirstOrCreate(&ctv).Error; err != nil {
		stdLog.Printf("Failed to seed ctv: %v", err)
	}
	discount := models.Discount{
		Code:          "WELCOME10",
		Title:         "Giảm 10% cho khách mới",
		Type:          constants.DiscountTypePercentage,
		DiscountValue: 10,
		MaxTotalUses:  100,
		Active:        true,
	}
	if err := db.Where("code = ?", discount.Code).FirstOrCreate(&discount).Error; err != nil {
		stdLog.Printf("Failed to seed discount: %v", err)
	}

	// 管理员与只读账号
	auth := service.NewAuthService(repository.NewUserRepository(db), cache.Null{}, cfg.Auth.SessionTTLHours)
	accounts := []struct {
		Username string
		Password string
		FullName string
		Role     string
	}{
		{cfg.Auth.BootstrapUsername, cfg.Auth.BootstrapPassword, "Quản trị viên", constants.RoleAdmin},
		{"viewer", "viewer-demo-pass", "Xem báo cáo", constants.RoleViewer},
	}
	for _, acc := range accounts {
		if acc.Username == "" || acc.Password == "" {
			continue
		}
		created, err := auth.EnsureUser(context.Background(), acc.Username, acc.Password, acc.FullName, acc.Role)
		if err != nil {
			stdLog.Printf("Failed to seed user %s: %v", acc.Username, err)
			continue
		}
		if created {
			stdLog.Printf("User created: %s (%s)", acc.Username, acc.Role)
		}
	}

	stdLog.Printf("Seed completed")
}

func upsertCostRow(db *gorm.DB, row models.CostConfig) error {
	var existing models.CostConfig
	err := db.Where("item_name = ?", row.ItemName).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&row).Error
	}
	if err != nil {
		return err
	}
	return db.Model(&existing).Updates(map[string]interface{}{
		"display_name": row.DisplayName,
		"item_cost":    row.ItemCost,
		"category_id":  row.CategoryID,
		"is_default":   row.IsDefault,
	}).Error
}

// seedProduct 商品已存在时跳过，成本价按物料单价累加
func seedProduct(db *gorm.DB, seed productSeed, categoryID uint) error {
	var existing models.Product
	err := db.Where("name = ?", seed.Name).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		now := models.NowMillis()
		product := models.Product{
			Name:          seed.Name,
			Price:         seed.Price,
			OriginalPrice: seed.Price,
			StockQuantity: 100,
			IsActive:      true,
			CreatedAtUnix: now,
			UpdatedAtUnix: now,
		}
		if categoryID != 0 {
			product.CategoryID = &categoryID
		}
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		if categoryID != 0 {
			link := models.ProductCategory{ProductID: product.ID, CategoryID: categoryID, IsPrimary: true}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}

		var cost float64
		for name, qty := range seed.Materials {
			var price models.CostConfig
			if err := tx.Where("item_name = ?", name).First(&price).Error; err != nil {
				return err
			}
			cost += price.ItemCost.InexactFloat64() * qty
			usage := models.ProductMaterial{
				ProductID:    product.ID,
				MaterialName: name,
				Quantity:     models.NewDecimal(qty),
				Unit:         "cái",
			}
			if err := tx.Create(&usage).Error; err != nil {
				return err
			}
		}
		return tx.Model(&product).Update("cost_price", int64(cost+0.5)).Error
	})
}
