package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/savage-rise/internal/constants"
	"github.com/savage-rise/internal/models"
	"github.com/savage-rise/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Variant{},
		&models.Promotion{},
		&models.PromotionUsage{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	promotionRepo := repository.NewPromotionRepository(db)
	usageRepo := repository.NewPromotionUsageRepository(db)
	promotionService := NewPromotionService(promotionRepo, usageRepo)

	service := NewOrderService(orderRepo, productRepo, variantRepo, promotionService, nil, OrderPricingConfig{
		ShippingFlatFee:       4.9,
		ShippingFreeThreshold: 60,
		OrderNoPrefix:         "SR",
		Currency:              "EUR",
	})
	return service, db
}

func seedCatalog(t *testing.T, db *gorm.DB, price float64, stock int) *models.Product {
	t.Helper()
	category := models.Category{Slug: fmt.Sprintf("cat-%d", time.Now().UnixNano()), Name: "Tops"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	product := models.Product{
		CategoryID: category.ID,
		Slug:       fmt.Sprintf("tee-%d", time.Now().UnixNano()),
		Name:       "Classic Tee",
		Price:      models.NewMoneyFromFloat(price),
		IsActive:   true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := models.Variant{ProductID: product.ID, Color: "black", Size: "M", Stock: stock}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return &product
}

func variantStock(t *testing.T, db *gorm.DB, productID uint, color, size string) int {
	t.Helper()
	var variant models.Variant
	if err := db.Where("product_id = ? AND color = ? AND size = ?", productID, color, size).First(&variant).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	return variant.Stock
}

func TestCreateOrderComputesTotals(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	product := seedCatalog(t, db, 50, 5)
	if err := db.Create(&models.Promotion{
		Code:         "TENOFF",
		DiscountType: constants.PromotionTypeFixed,
		Amount:       models.NewMoneyFromFloat(10),
		IsActive:     true,
	}).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}

	order, err := service.CreateOrder(CreateOrderInput{
		UserID:    7,
		PromoCode: "TENOFF",
		Items: []CreateOrderItem{
			{ProductID: product.ID, Color: "black", Size: "M", Quantity: 2},
		},
		Shipping: ShippingAddress{Name: "Ana", Line: "1 rue de Test", City: "Paris", Zip: "75001"},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if order.Status != constants.OrderStatusPending {
		t.Fatalf("status want pending got %s", order.Status)
	}
	if order.PaymentStatus != constants.PaymentStatusUnpaid {
		t.Fatalf("payment status want unpaid got %s", order.PaymentStatus)
	}
	if order.Currency != "EUR" {
		t.Fatalf("currency want EUR got %s", order.Currency)
	}
	if !order.Subtotal.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("subtotal want 100 got %s", order.Subtotal.Decimal.String())
	}
	if !order.DiscountValue.Decimal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("discount want 10 got %s", order.DiscountValue.Decimal.String())
	}
	// 小计达到免邮门槛
	if !order.ShippingAmount.Decimal.Equal(decimal.Zero) {
		t.Fatalf("shipping want 0 got %s", order.ShippingAmount.Decimal.String())
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("total want 90 got %s", order.TotalAmount.Decimal.String())
	}
	if !order.PromoReserved || order.PromoCode != "TENOFF" {
		t.Fatalf("expected reserved promo TENOFF, got %+v", order)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}

	if got := variantStock(t, db, product.ID, "black", "M"); got != 3 {
		t.Fatalf("stock want 3 after order got %d", got)
	}
	var promo models.Promotion
	if err := db.Where("code = ?", "TENOFF").First(&promo).Error; err != nil {
		t.Fatalf("reload promotion failed: %v", err)
	}
	if promo.UsesCount != 1 {
		t.Fatalf("promo uses_count want 1 got %d", promo.UsesCount)
	}
}

func TestCreateOrderChargesFlatShippingBelowThreshold(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	product := seedCatalog(t, db, 50, 5)

	order, err := service.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items: []CreateOrderItem{
			{ProductID: product.ID, Color: "black", Size: "M", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if !order.ShippingAmount.Decimal.Equal(decimal.NewFromFloat(4.9)) {
		t.Fatalf("shipping want 4.9 got %s", order.ShippingAmount.Decimal.String())
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromFloat(54.9)) {
		t.Fatalf("total want 54.9 got %s", order.TotalAmount.Decimal.String())
	}
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	product := seedCatalog(t, db, 50, 5)
	scarce := seedCatalog(t, db, 30, 1)
	if err := db.Create(&models.Promotion{
		Code:         "TENOFF",
		DiscountType: constants.PromotionTypeFixed,
		Amount:       models.NewMoneyFromFloat(10),
		IsActive:     true,
	}).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}

	_, err := service.CreateOrder(CreateOrderInput{
		UserID:    7,
		PromoCode: "TENOFF",
		Items: []CreateOrderItem{
			{ProductID: product.ID, Color: "black", Size: "M", Quantity: 2},
			{ProductID: scarce.ID, Color: "black", Size: "M", Quantity: 3},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got: %v", err)
	}

	// 已扣减的行回补，促销名额释放
	if got := variantStock(t, db, product.ID, "black", "M"); got != 5 {
		t.Fatalf("first line stock want 5 after rollback got %d", got)
	}
	if got := variantStock(t, db, scarce.ID, "black", "M"); got != 1 {
		t.Fatalf("second line stock want 1 got %d", got)
	}
	var promo models.Promotion
	if err := db.Where("code = ?", "TENOFF").First(&promo).Error; err != nil {
		t.Fatalf("reload promotion failed: %v", err)
	}
	if promo.UsesCount != 0 {
		t.Fatalf("promo uses_count want 0 after rollback got %d", promo.UsesCount)
	}
	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("no order should persist after rollback, got %d", orderCount)
	}
}

func TestCreateOrderRejectsInvalidInput(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	product := seedCatalog(t, db, 50, 5)

	_, err := service.CreateOrder(CreateOrderInput{
		UserID: 0,
		Items:  []CreateOrderItem{{ProductID: product.ID, Color: "black", Size: "M", Quantity: 1}},
	})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("anonymous order want ErrInvalidReference, got: %v", err)
	}

	_, err = service.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []CreateOrderItem{{ProductID: product.ID, Color: "black", Size: "M", Quantity: 0}},
	})
	if !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("zero quantity want ErrInvalidOrderItem, got: %v", err)
	}

	_, err = service.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []CreateOrderItem{{ProductID: 9999, Color: "black", Size: "M", Quantity: 1}},
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("unknown product want ErrProductNotFound, got: %v", err)
	}

	_, err = service.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []CreateOrderItem{{ProductID: product.ID, Color: "black", Size: "XL", Quantity: 1}},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("unknown variant want ErrInsufficientStock, got: %v", err)
	}
}

func TestCancelOrderRestoresStockAndPromo(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	product := seedCatalog(t, db, 50, 5)
	if err := db.Create(&models.Promotion{
		Code:         "TENOFF",
		DiscountType: constants.PromotionTypeFixed,
		Amount:       models.NewMoneyFromFloat(10),
		IsActive:     true,
	}).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}

	order, err := service.CreateOrder(CreateOrderInput{
		UserID:    7,
		PromoCode: "TENOFF",
		Items: []CreateOrderItem{
			{ProductID: product.ID, Color: "black", Size: "M", Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	cancelled, err := service.CancelOrder(order.ID, 7)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want cancelled got %s", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Fatalf("cancelled_at should be set")
	}
	if cancelled.PromoReserved {
		t.Fatalf("promo_reserved should be cleared after cancel")
	}
	if got := variantStock(t, db, product.ID, "black", "M"); got != 5 {
		t.Fatalf("stock want 5 after cancel got %d", got)
	}
	var promo models.Promotion
	if err := db.Where("code = ?", "TENOFF").First(&promo).Error; err != nil {
		t.Fatalf("reload promotion failed: %v", err)
	}
	if promo.UsesCount != 0 {
		t.Fatalf("promo uses_count want 0 after cancel got %d", promo.UsesCount)
	}

	// 重复取消：已非 pending
	if _, err := service.CancelOrder(order.ID, 7); !errors.Is(err, ErrOrderStateInvalid) {
		t.Fatalf("second cancel want ErrOrderStateInvalid, got: %v", err)
	}
}

func TestCancelOrderOwnershipAndState(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	product := seedCatalog(t, db, 50, 5)

	order, err := service.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []CreateOrderItem{{ProductID: product.ID, Color: "black", Size: "M", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := service.CancelOrder(order.ID, 8); !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("non-owner cancel want ErrOrderForbidden, got: %v", err)
	}
	if _, err := service.CancelOrder(9999, 7); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order want ErrOrderNotFound, got: %v", err)
	}

	if _, err := service.UpdateStatus(order.ID, constants.OrderStatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := service.CancelOrder(order.ID, 7); !errors.Is(err, ErrOrderStateInvalid) {
		t.Fatalf("cancel of confirmed order want ErrOrderStateInvalid, got: %v", err)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	product := seedCatalog(t, db, 50, 5)

	order, err := service.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []CreateOrderItem{{ProductID: product.ID, Color: "black", Size: "M", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// pending 不能直接发货
	if _, err := service.UpdateStatus(order.ID, constants.OrderStatusShipped); !errors.Is(err, ErrOrderStateInvalid) {
		t.Fatalf("pending->shipped want ErrOrderStateInvalid, got: %v", err)
	}

	for _, target := range []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	} {
		updated, err := service.UpdateStatus(order.ID, target)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", target, err)
		}
		if updated.Status != target {
			t.Fatalf("status want %s got %s", target, updated.Status)
		}
	}

	// delivered 为终态
	if _, err := service.UpdateStatus(order.ID, constants.OrderStatusConfirmed); !errors.Is(err, ErrOrderStateInvalid) {
		t.Fatalf("delivered->confirmed want ErrOrderStateInvalid, got: %v", err)
	}
}

func TestMarkPaid(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	product := seedCatalog(t, db, 50, 5)

	order, err := service.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []CreateOrderItem{{ProductID: product.ID, Color: "black", Size: "M", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	paid, err := service.MarkPaid(order.ID)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.PaymentStatus != constants.PaymentStatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid order with paid_at, got %+v", paid)
	}

	if _, err := service.MarkPaid(order.ID); !errors.Is(err, ErrOrderStateInvalid) {
		t.Fatalf("double mark paid want ErrOrderStateInvalid, got: %v", err)
	}
}

func TestGetOrderForUser(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	product := seedCatalog(t, db, 50, 5)

	order, err := service.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []CreateOrderItem{{ProductID: product.ID, Color: "black", Size: "M", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	got, err := service.GetOrderForUser(order.ID, 7)
	if err != nil {
		t.Fatalf("get own order failed: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("order id want %d got %d", order.ID, got.ID)
	}

	if _, err := service.GetOrderForUser(order.ID, 8); !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("non-owner read want ErrOrderForbidden, got: %v", err)
	}
	if _, err := service.GetOrderForUser(9999, 7); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order want ErrOrderNotFound, got: %v", err)
	}
}

func TestMergeCreateOrderItems(t *testing.T) {
	items := []CreateOrderItem{
		{ProductID: 1, Color: "black", Size: "M", Quantity: 1},
		{ProductID: 1, Color: " black ", Size: "M", Quantity: 2},
		{ProductID: 1, Color: "black", Size: "L", Quantity: 1},
		{ProductID: 2, Color: "white", Size: "M", Quantity: 1},
	}
	merged, err := mergeCreateOrderItems(items)
	if err != nil {
		t.Fatalf("mergeCreateOrderItems error: %v", err)
	}
	if len(merged) != 3 {
		t.Fatalf("expected 3 items, got %d", len(merged))
	}
	if merged[0].ProductID != 1 || merged[0].Color != "black" || merged[0].Size != "M" || merged[0].Quantity != 3 {
		t.Fatalf("unexpected merged item: %+v", merged[0])
	}

	if _, err := mergeCreateOrderItems([]CreateOrderItem{{ProductID: 1, Color: "", Size: "M", Quantity: 1}}); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("blank color want ErrInvalidOrderItem, got: %v", err)
	}
	if _, err := mergeCreateOrderItems([]CreateOrderItem{{ProductID: 0, Color: "black", Size: "M", Quantity: 1}}); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("zero product want ErrInvalidOrderItem, got: %v", err)
	}
}
