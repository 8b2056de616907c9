package main

import (
	"time"

	"github.com/savage-rise/internal/config"
	"github.com/savage-rise/internal/constants"
	"github.com/savage-rise/internal/logger"
	"github.com/savage-rise/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin(cfg.Admin.Email, cfg.Admin.Password); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	// 分类
	categories := []models.Category{
		{Slug: "tops", Name: "Tops", SortOrder: 1},
		{Slug: "bottoms", Name: "Bottoms", SortOrder: 2},
		{Slug: "accessories", Name: "Accessories", SortOrder: 3},
	}
	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
		}
	}

	// 分类ID映射
	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Where("slug IN ?", []string{"tops", "bottoms", "accessories"}).Find(&categoryList).Error; err != nil {
		stdLog.Fatalf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}

	// 商品与规格
	type seedProduct struct {
		product  models.Product
		variants []models.Variant
	}
	seedProducts := []seedProduct{
		{
			product: models.Product{
				CategoryID:  categoryIDs["tops"],
				Slug:        "classic-tee",
				Name:        "Classic Tee",
				Description: "Heavyweight cotton tee with a relaxed fit.",
				Price:       models.NewMoneyFromFloat(29.90),
				Images:      models.StringArray{"/uploads/classic-tee.jpg"},
				IsActive:    true,
				SortOrder:   1,
			},
			variants: []models.Variant{
				{Color: "black", Size: "S", Stock: 40},
				{Color: "black", Size: "M", Stock: 60},
				{Color: "black", Size: "L", Stock: 50},
				{Color: "white", Size: "M", Stock: 35},
			},
		},
		{
			product: models.Product{
				CategoryID:  categoryIDs["bottoms"],
				Slug:        "straight-jeans",
				Name:        "Straight Jeans",
				Description: "Rigid denim, straight cut, mid rise.",
				Price:       models.NewMoneyFromFloat(79.00),
				Images:      models.StringArray{"/uploads/straight-jeans.jpg"},
				IsActive:    true,
				SortOrder:   2,
			},
			variants: []models.Variant{
				{Color: "indigo", Size: "30", Stock: 25},
				{Color: "indigo", Size: "32", Stock: 30},
				{Color: "washed", Size: "32", Stock: 15},
			},
		},
		{
			product: models.Product{
				CategoryID:  categoryIDs["accessories"],
				Slug:        "canvas-cap",
				Name:        "Canvas Cap",
				Description: "Six-panel cap with adjustable strap.",
				Price:       models.NewMoneyFromFloat(19.50),
				Images:      models.StringArray{"/uploads/canvas-cap.jpg"},
				IsActive:    true,
				SortOrder:   3,
			},
			variants: []models.Variant{
				{Color: "olive", Size: "one-size", Stock: 80},
			},
		},
	}

	for _, sp := range seedProducts {
		var existing models.Product
		if err := models.DB.Where("slug = ?", sp.product.Slug).First(&existing).Error; err == nil {
			stdLog.Printf("Product already exists: %s", sp.product.Slug)
			continue
		}
		product := sp.product
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			continue
		}
		for i := range sp.variants {
			sp.variants[i].ProductID = product.ID
		}
		if err := models.DB.Create(&sp.variants).Error; err != nil {
			stdLog.Printf("Failed to create variants for %s: %v", product.Slug, err)
			continue
		}
		stdLog.Printf("Created product: %s (%d variants)", product.Slug, len(sp.variants))
	}

	// 促销码
	now := time.Now()
	endOfSeason := now.AddDate(0, 2, 0)
	promotions := []models.Promotion{
		{
			Code:         "WELCOME10",
			Description:  "10 off for new customers",
			DiscountType: constants.PromotionTypeFixed,
			Amount:       models.NewMoneyFromFloat(10),
			PerUserLimit: 1,
			MinOrderTotal: models.NewMoneyFromFloat(50),
			IsActive:     true,
		},
		{
			Code:         "SEASON20",
			Description:  "20% off seasonal picks",
			DiscountType: constants.PromotionTypePercent,
			Amount:       models.NewMoneyFromFloat(20),
			MaxUses:      200,
			StartsAt:     &now,
			EndsAt:       &endOfSeason,
			IsActive:     true,
		},
	}
	for _, promo := range promotions {
		var existing models.Promotion
		if err := models.DB.Where("code = ?", promo.Code).First(&existing).Error; err == nil {
			stdLog.Printf("Promotion already exists: %s", promo.Code)
			continue
		}
		if err := models.DB.Create(&promo).Error; err != nil {
			stdLog.Printf("Failed to create promotion %s: %v", promo.Code, err)
			continue
		}
		stdLog.Printf("Created promotion: %s", promo.Code)
	}

	stdLog.Printf("Seed finished")
}
