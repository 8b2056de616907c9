package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/savage-rise/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupVariantRepositoryTest(t *testing.T) (*GormVariantRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:variant_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Variant{}); err != nil {
		t.Fatalf("migrate variant failed: %v", err)
	}
	return NewVariantRepository(db), db
}

func createTestVariant(t *testing.T, db *gorm.DB, productID uint, color, size string, stock int) *models.Variant {
	t.Helper()
	variant := &models.Variant{ProductID: productID, Color: color, Size: size, Stock: stock}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func reloadStock(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var variant models.Variant
	if err := db.First(&variant, id).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	return variant.Stock
}

func TestDecrementStockGuardsAgainstOverdraw(t *testing.T) {
	repo, db := setupVariantRepositoryTest(t)
	variant := createTestVariant(t, db, 1, "black", "M", 3)

	affected, err := repo.DecrementStock(1, "black", "M", 2)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected want 1 got %d", affected)
	}
	if got := reloadStock(t, db, variant.ID); got != 1 {
		t.Fatalf("stock want 1 got %d", got)
	}

	// 超过剩余库存：0 行命中，库存不变
	affected, err = repo.DecrementStock(1, "black", "M", 2)
	if err != nil {
		t.Fatalf("guarded decrement returned error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("overdraw affected want 0 got %d", affected)
	}
	if got := reloadStock(t, db, variant.ID); got != 1 {
		t.Fatalf("stock must be unchanged after overdraw, got %d", got)
	}

	// 扣到 0 合法
	affected, err = repo.DecrementStock(1, "black", "M", 1)
	if err != nil || affected != 1 {
		t.Fatalf("decrement to zero failed: affected=%d err=%v", affected, err)
	}
	if got := reloadStock(t, db, variant.ID); got != 0 {
		t.Fatalf("stock want 0 got %d", got)
	}
}

func TestDecrementStockUnknownVariant(t *testing.T) {
	repo, _ := setupVariantRepositoryTest(t)

	affected, err := repo.DecrementStock(1, "black", "XL", 1)
	if err != nil {
		t.Fatalf("unknown variant decrement returned error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("unknown variant affected want 0 got %d", affected)
	}

	if _, err := repo.DecrementStock(0, "black", "M", 1); err == nil {
		t.Fatalf("zero product id should be rejected")
	}
	if _, err := repo.DecrementStock(1, "black", "M", 0); err == nil {
		t.Fatalf("zero quantity should be rejected")
	}
}

func TestIncrementStockRestores(t *testing.T) {
	repo, db := setupVariantRepositoryTest(t)
	variant := createTestVariant(t, db, 1, "black", "M", 1)

	affected, err := repo.IncrementStock(1, "black", "M", 4)
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected want 1 got %d", affected)
	}
	if got := reloadStock(t, db, variant.ID); got != 5 {
		t.Fatalf("stock want 5 got %d", got)
	}

	affected, err = repo.IncrementStock(1, "white", "M", 1)
	if err != nil {
		t.Fatalf("unknown variant increment returned error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("unknown variant affected want 0 got %d", affected)
	}
}

func TestSetStockValidatesInput(t *testing.T) {
	repo, db := setupVariantRepositoryTest(t)
	variant := createTestVariant(t, db, 1, "black", "M", 2)

	if err := repo.SetStock(variant.ID, 9); err != nil {
		t.Fatalf("set stock failed: %v", err)
	}
	if got := reloadStock(t, db, variant.ID); got != 9 {
		t.Fatalf("stock want 9 got %d", got)
	}

	if err := repo.SetStock(variant.ID, -1); err == nil {
		t.Fatalf("negative stock should be rejected")
	}
	if err := repo.SetStock(0, 1); err == nil {
		t.Fatalf("zero id should be rejected")
	}
}

func TestGetByKeyTrimsInput(t *testing.T) {
	repo, db := setupVariantRepositoryTest(t)
	createTestVariant(t, db, 1, "black", "M", 2)

	variant, err := repo.GetByKey(1, " black ", " M ")
	if err != nil {
		t.Fatalf("get by key failed: %v", err)
	}
	if variant == nil || variant.Stock != 2 {
		t.Fatalf("unexpected variant: %+v", variant)
	}

	missing, err := repo.GetByKey(1, "white", "M")
	if err != nil {
		t.Fatalf("lookup of missing variant returned error: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing variant should be nil, got %+v", missing)
	}
}
