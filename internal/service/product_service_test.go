package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/savage-rise/internal/models"
	"github.com/savage-rise/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupProductServiceTest(t *testing.T) (*ProductService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:product_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.Variant{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewProductService(
		repository.NewProductRepository(db),
		repository.NewVariantRepository(db),
		repository.NewCategoryRepository(db),
	), db
}

func seedTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()
	category := &models.Category{Slug: "tops", Name: "Tops"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return category
}

func TestCreateProductWithVariants(t *testing.T) {
	service, db := setupProductServiceTest(t)
	category := seedTestCategory(t, db)

	product, err := service.Create(CreateProductInput{
		CategoryID: category.ID,
		Slug:       "classic-tee",
		Name:       "Classic Tee",
		Price:      models.NewMoneyFromDecimal(decimal.NewFromFloat(29.9)),
		Variants: []VariantInput{
			{Color: "black", Size: "M", Stock: 10},
			{Color: "black", Size: "L", Stock: 5},
		},
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if !product.IsActive {
		t.Fatalf("product should default to active")
	}

	var variants []models.Variant
	if err := db.Where("product_id = ?", product.ID).Find(&variants).Error; err != nil {
		t.Fatalf("load variants failed: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("variants want 2 got %d", len(variants))
	}
}

func TestCreateProductValidation(t *testing.T) {
	service, db := setupProductServiceTest(t)
	category := seedTestCategory(t, db)

	_, err := service.Create(CreateProductInput{
		CategoryID: category.ID,
		Slug:       "",
		Name:       "No Slug",
		Price:      models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
	})
	if !errors.Is(err, ErrProductInvalid) {
		t.Fatalf("blank slug want ErrProductInvalid, got: %v", err)
	}

	_, err = service.Create(CreateProductInput{
		CategoryID: category.ID,
		Slug:       "free-tee",
		Name:       "Free Tee",
		Price:      models.NewMoneyFromDecimal(decimal.Zero),
	})
	if !errors.Is(err, ErrProductInvalid) {
		t.Fatalf("non-positive price want ErrProductInvalid, got: %v", err)
	}

	_, err = service.Create(CreateProductInput{
		CategoryID: 9999,
		Slug:       "orphan-tee",
		Name:       "Orphan Tee",
		Price:      models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
	})
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("unknown category want ErrCategoryNotFound, got: %v", err)
	}

	_, err = service.Create(CreateProductInput{
		CategoryID: category.ID,
		Slug:       "dup-tee",
		Name:       "Dup Tee",
		Price:      models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		Variants: []VariantInput{
			{Color: "black", Size: "M", Stock: 1},
			{Color: "black", Size: "M", Stock: 2},
		},
	})
	if !errors.Is(err, ErrProductInvalid) {
		t.Fatalf("duplicate variant key want ErrProductInvalid, got: %v", err)
	}

	if _, err := service.Create(CreateProductInput{
		CategoryID: category.ID,
		Slug:       "classic-tee",
		Name:       "Classic Tee",
		Price:      models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
	}); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	_, err = service.Create(CreateProductInput{
		CategoryID: category.ID,
		Slug:       "classic-tee",
		Name:       "Other Tee",
		Price:      models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
	})
	if !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("duplicate slug want ErrSlugTaken, got: %v", err)
	}
}

func TestReplaceVariants(t *testing.T) {
	service, db := setupProductServiceTest(t)
	category := seedTestCategory(t, db)

	product, err := service.Create(CreateProductInput{
		CategoryID: category.ID,
		Slug:       "classic-tee",
		Name:       "Classic Tee",
		Price:      models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
		Variants:   []VariantInput{{Color: "black", Size: "M", Stock: 10}},
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	variants, err := service.ReplaceVariants(product.ID, []VariantInput{
		{Color: "white", Size: "S", Stock: 3},
		{Color: "white", Size: "M", Stock: 4},
	})
	if err != nil {
		t.Fatalf("replace variants failed: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("variants want 2 got %d", len(variants))
	}

	var remaining []models.Variant
	if err := db.Where("product_id = ?", product.ID).Find(&remaining).Error; err != nil {
		t.Fatalf("load variants failed: %v", err)
	}
	for _, v := range remaining {
		if v.Color == "black" {
			t.Fatalf("old variant should be gone, found %+v", v)
		}
	}
}

func TestSetVariantStock(t *testing.T) {
	service, db := setupProductServiceTest(t)
	category := seedTestCategory(t, db)

	product, err := service.Create(CreateProductInput{
		CategoryID: category.ID,
		Slug:       "classic-tee",
		Name:       "Classic Tee",
		Price:      models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
		Variants:   []VariantInput{{Color: "black", Size: "M", Stock: 10}},
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	variant, err := service.SetVariantStock(product.ID, "black", "M", 25)
	if err != nil {
		t.Fatalf("set variant stock failed: %v", err)
	}
	if variant.Stock != 25 {
		t.Fatalf("stock want 25 got %d", variant.Stock)
	}

	if _, err := service.SetVariantStock(product.ID, "white", "M", 5); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("unknown variant want ErrVariantNotFound, got: %v", err)
	}
	if _, err := service.SetVariantStock(product.ID, "black", "M", -1); !errors.Is(err, ErrProductInvalid) {
		t.Fatalf("negative stock want ErrProductInvalid, got: %v", err)
	}
	var fresh models.Variant
	if err := db.Where("product_id = ? AND color = ? AND size = ?", product.ID, "black", "M").First(&fresh).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if fresh.Stock != 25 {
		t.Fatalf("failed set must not change stock, got %d", fresh.Stock)
	}
}
