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

func setupPromotionServiceTest(t *testing.T) (*PromotionService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:promotion_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Promotion{},
		&models.PromotionUsage{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	promotionRepo := repository.NewPromotionRepository(db)
	usageRepo := repository.NewPromotionUsageRepository(db)
	return NewPromotionService(promotionRepo, usageRepo), db
}

func mustCreatePromotion(t *testing.T, db *gorm.DB, promo *models.Promotion) *models.Promotion {
	t.Helper()
	if err := db.Create(promo).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	return promo
}

func rejectionReason(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatalf("expected rejection error, got nil")
	}
	if !errors.Is(err, ErrPromotionRejected) {
		t.Fatalf("expected ErrPromotionRejected, got: %v", err)
	}
	return PromotionRejectionReason(err)
}

func TestComputeDiscountClampsToOrderTotal(t *testing.T) {
	service, _ := setupPromotionServiceTest(t)

	promo := &models.Promotion{
		DiscountType: constants.PromotionTypePercent,
		Amount:       models.NewMoneyFromFloat(150),
	}
	discount := service.ComputeDiscount(promo, models.NewMoneyFromFloat(100))
	if !discount.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("percent 150 on 100 should clamp to 100, got %s", discount.Decimal.String())
	}

	promo = &models.Promotion{
		DiscountType: constants.PromotionTypeFixed,
		Amount:       models.NewMoneyFromFloat(10),
	}
	discount = service.ComputeDiscount(promo, models.NewMoneyFromFloat(6))
	if !discount.Decimal.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("fixed 10 on 6 should clamp to 6, got %s", discount.Decimal.String())
	}

	promo = &models.Promotion{
		DiscountType: constants.PromotionTypeFixed,
		Amount:       models.NewMoneyFromFloat(-5),
	}
	discount = service.ComputeDiscount(promo, models.NewMoneyFromFloat(50))
	if !discount.Decimal.Equal(decimal.Zero) {
		t.Fatalf("negative amount should clamp to 0, got %s", discount.Decimal.String())
	}
}

func TestApplyPercentDiscount(t *testing.T) {
	service, db := setupPromotionServiceTest(t)
	mustCreatePromotion(t, db, &models.Promotion{
		Code:         "SEASON20",
		DiscountType: constants.PromotionTypePercent,
		Amount:       models.NewMoneyFromFloat(20),
		IsActive:     true,
	})

	lines := []PromotionOrderLine{
		{ProductID: 1, CategoryID: 1, Quantity: 2, UnitPrice: models.NewMoneyFromFloat(50)},
	}
	result, err := service.Apply("SEASON20", 7, lines)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result, got %+v", result)
	}
	if !result.DiscountValue.Decimal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("discount want 20 got %s", result.DiscountValue.Decimal.String())
	}
	if !result.DiscountedTotal.Decimal.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("discounted total want 80 got %s", result.DiscountedTotal.Decimal.String())
	}
}

func TestApplyRejectionReasons(t *testing.T) {
	service, db := setupPromotionServiceTest(t)
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	mustCreatePromotion(t, db, &models.Promotion{
		Code: "OFFLINE", DiscountType: constants.PromotionTypeFixed,
		Amount: models.NewMoneyFromFloat(5), IsActive: false,
	})
	mustCreatePromotion(t, db, &models.Promotion{
		Code: "SOON", DiscountType: constants.PromotionTypeFixed,
		Amount: models.NewMoneyFromFloat(5), IsActive: true, StartsAt: &future,
	})
	mustCreatePromotion(t, db, &models.Promotion{
		Code: "GONE", DiscountType: constants.PromotionTypeFixed,
		Amount: models.NewMoneyFromFloat(5), IsActive: true, EndsAt: &past,
	})
	mustCreatePromotion(t, db, &models.Promotion{
		Code: "BIGCART", DiscountType: constants.PromotionTypeFixed,
		Amount: models.NewMoneyFromFloat(5), IsActive: true,
		MinOrderTotal: models.NewMoneyFromFloat(50),
	})
	mustCreatePromotion(t, db, &models.Promotion{
		Code: "MEMBERS", DiscountType: constants.PromotionTypeFixed,
		Amount: models.NewMoneyFromFloat(5), IsActive: true, PerUserLimit: 1,
	})
	mustCreatePromotion(t, db, &models.Promotion{
		Code: "TOPSONLY", DiscountType: constants.PromotionTypeFixed,
		Amount: models.NewMoneyFromFloat(5), IsActive: true,
		ApplicableProductIDs: models.UintArray{99},
	})
	mustCreatePromotion(t, db, &models.Promotion{
		Code: "CATONLY", DiscountType: constants.PromotionTypeFixed,
		Amount: models.NewMoneyFromFloat(5), IsActive: true,
		ApplicableCategoryIDs: models.UintArray{42},
	})

	lines := []PromotionOrderLine{
		{ProductID: 1, CategoryID: 1, Quantity: 1, UnitPrice: models.NewMoneyFromFloat(30)},
	}
	cases := []struct {
		code   string
		userID uint
		want   string
	}{
		{code: "MISSING", userID: 7, want: constants.PromoReasonNotFound},
		{code: "OFFLINE", userID: 7, want: constants.PromoReasonInactive},
		{code: "SOON", userID: 7, want: constants.PromoReasonNotStartedYet},
		{code: "GONE", userID: 7, want: constants.PromoReasonExpired},
		{code: "BIGCART", userID: 7, want: constants.PromoReasonOrderTotalTooLow},
		{code: "MEMBERS", userID: 0, want: constants.PromoReasonLoginRequired},
		{code: "TOPSONLY", userID: 7, want: constants.PromoReasonNotApplicableProducts},
		{code: "CATONLY", userID: 7, want: constants.PromoReasonNotApplicableCategories},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			_, err := service.Apply(tc.code, tc.userID, lines)
			if got := rejectionReason(t, err); got != tc.want {
				t.Fatalf("reason want %s got %s", tc.want, got)
			}
		})
	}
}

func TestReserveMaxUses(t *testing.T) {
	service, db := setupPromotionServiceTest(t)
	promo := mustCreatePromotion(t, db, &models.Promotion{
		Code:         "ONESHOT",
		DiscountType: constants.PromotionTypeFixed,
		Amount:       models.NewMoneyFromFloat(5),
		MaxUses:      1,
		IsActive:     true,
	})

	reserved, err := service.Reserve("ONESHOT", 7)
	if err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}
	if reserved.UsesCount != 1 {
		t.Fatalf("uses_count want 1 got %d", reserved.UsesCount)
	}

	_, err = service.Reserve("ONESHOT", 8)
	if got := rejectionReason(t, err); got != constants.PromoReasonMaxUsesReached {
		t.Fatalf("reason want max_uses_reached got %s", got)
	}

	var check models.Promotion
	if err := db.First(&check, promo.ID).Error; err != nil {
		t.Fatalf("reload promotion failed: %v", err)
	}
	if check.UsesCount != 1 {
		t.Fatalf("failed reserve must not change uses_count, got %d", check.UsesCount)
	}
}

func TestReservePerUserLimit(t *testing.T) {
	service, db := setupPromotionServiceTest(t)
	promo := mustCreatePromotion(t, db, &models.Promotion{
		Code:         "MEMBERS",
		DiscountType: constants.PromotionTypeFixed,
		Amount:       models.NewMoneyFromFloat(5),
		PerUserLimit: 1,
		IsActive:     true,
	})

	if _, err := service.Reserve("MEMBERS", 7); err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}
	_, err := service.Reserve("MEMBERS", 7)
	if got := rejectionReason(t, err); got != constants.PromoReasonPerUserLimitReached {
		t.Fatalf("reason want per_user_limit_reached got %s", got)
	}

	// 用户计数失败时全局计数一并回滚
	var check models.Promotion
	if err := db.First(&check, promo.ID).Error; err != nil {
		t.Fatalf("reload promotion failed: %v", err)
	}
	if check.UsesCount != 1 {
		t.Fatalf("uses_count want 1 after rejected second reserve, got %d", check.UsesCount)
	}

	// 其他用户不受影响
	if _, err := service.Reserve("MEMBERS", 8); err != nil {
		t.Fatalf("reserve for another user failed: %v", err)
	}
}

func TestReserveAnonymousRequiresLogin(t *testing.T) {
	service, db := setupPromotionServiceTest(t)
	mustCreatePromotion(t, db, &models.Promotion{
		Code:         "MEMBERS",
		DiscountType: constants.PromotionTypeFixed,
		Amount:       models.NewMoneyFromFloat(5),
		PerUserLimit: 1,
		IsActive:     true,
	})

	_, err := service.Reserve("MEMBERS", 0)
	if got := rejectionReason(t, err); got != constants.PromoReasonLoginRequired {
		t.Fatalf("reason want login_required got %s", got)
	}
}

func TestReleaseRestoresSlot(t *testing.T) {
	service, db := setupPromotionServiceTest(t)
	promo := mustCreatePromotion(t, db, &models.Promotion{
		Code:         "ONESHOT",
		DiscountType: constants.PromotionTypeFixed,
		Amount:       models.NewMoneyFromFloat(5),
		MaxUses:      1,
		PerUserLimit: 1,
		IsActive:     true,
	})

	if _, err := service.Reserve("ONESHOT", 7); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := service.Release("ONESHOT", 7); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	var check models.Promotion
	if err := db.First(&check, promo.ID).Error; err != nil {
		t.Fatalf("reload promotion failed: %v", err)
	}
	if check.UsesCount != 0 {
		t.Fatalf("uses_count want 0 after release got %d", check.UsesCount)
	}
	var usage models.PromotionUsage
	if err := db.Where("promotion_id = ? AND user_id = ?", promo.ID, 7).First(&usage).Error; err != nil {
		t.Fatalf("reload usage failed: %v", err)
	}
	if usage.Uses != 0 {
		t.Fatalf("user uses want 0 after release got %d", usage.Uses)
	}

	// 释放后名额可再次预留
	if _, err := service.Reserve("ONESHOT", 7); err != nil {
		t.Fatalf("reserve after release failed: %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	service, db := setupPromotionServiceTest(t)
	promo := mustCreatePromotion(t, db, &models.Promotion{
		Code:         "ONESHOT",
		DiscountType: constants.PromotionTypeFixed,
		Amount:       models.NewMoneyFromFloat(5),
		IsActive:     true,
	})

	// 未预留过：空操作
	if err := service.Release("ONESHOT", 7); err != nil {
		t.Fatalf("release without reserve should be noop, got: %v", err)
	}
	// 不存在的码：空操作
	if err := service.Release("MISSING", 7); err != nil {
		t.Fatalf("release of unknown code should be noop, got: %v", err)
	}

	if _, err := service.Reserve("ONESHOT", 7); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := service.Release("ONESHOT", 7); err != nil {
		t.Fatalf("first release failed: %v", err)
	}
	if err := service.Release("ONESHOT", 7); err != nil {
		t.Fatalf("double release should be noop, got: %v", err)
	}

	var check models.Promotion
	if err := db.First(&check, promo.ID).Error; err != nil {
		t.Fatalf("reload promotion failed: %v", err)
	}
	if check.UsesCount != 0 {
		t.Fatalf("uses_count must never go negative, got %d", check.UsesCount)
	}
}
