package service

import (
	"errors"
	"strings"
	"time"

	"github.com/savage-rise/internal/constants"
	"github.com/savage-rise/internal/models"
	"github.com/savage-rise/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PromotionService 促销码服务：只读校验、折扣计算与名额预留/释放
type PromotionService struct {
	promotionRepo repository.PromotionRepository
	usageRepo     repository.PromotionUsageRepository
}

// NewPromotionService 创建促销码服务
func NewPromotionService(promotionRepo repository.PromotionRepository, usageRepo repository.PromotionUsageRepository) *PromotionService {
	return &PromotionService{
		promotionRepo: promotionRepo,
		usageRepo:     usageRepo,
	}
}

// PromotionOrderLine 促销校验用的订单行视图
type PromotionOrderLine struct {
	ProductID  uint
	CategoryID uint
	Quantity   int
	UnitPrice  models.Money
}

// ApplyResult 促销码试算结果
type ApplyResult struct {
	Valid           bool         `json:"valid"`
	Reason          string       `json:"reason,omitempty"`
	Code            string       `json:"code"`
	DiscountValue   models.Money `json:"discount_value"`
	DiscountedTotal models.Money `json:"discounted_total"`
}

// errNothingToRelease 释放路径内部信号：无名额可释放，对外为空操作
var errNothingToRelease = errors.New("nothing to release")

// Apply 试算促销码折扣（只读，不预留名额）。拒绝时返回
// PromotionRejectedError，调用方据原因构造响应。
func (s *PromotionService) Apply(code string, userID uint, lines []PromotionOrderLine) (*ApplyResult, error) {
	promotion, err := s.promotionRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	orderTotal := sumOrderLines(lines)
	if err := s.Validate(promotion, userID, lines, orderTotal); err != nil {
		return nil, err
	}
	discount := s.ComputeDiscount(promotion, orderTotal)
	return &ApplyResult{
		Valid:           true,
		Code:            promotion.Code,
		DiscountValue:   discount,
		DiscountedTotal: models.NewMoneyFromDecimal(orderTotal.Decimal.Sub(discount.Decimal)),
	}, nil
}

// Validate 只读校验所有使用门槛。通过校验不代表预留必然成功：
// 权威判定是 Reserve 的原子更新，这里仅用于快速失败。
func (s *PromotionService) Validate(promotion *models.Promotion, userID uint, lines []PromotionOrderLine, orderTotal models.Money) error {
	if promotion == nil {
		return NewPromotionRejected(constants.PromoReasonNotFound)
	}
	if !promotion.IsActive {
		return NewPromotionRejected(constants.PromoReasonInactive)
	}

	now := time.Now()
	if promotion.StartsAt != nil && now.Before(*promotion.StartsAt) {
		return NewPromotionRejected(constants.PromoReasonNotStartedYet)
	}
	if promotion.EndsAt != nil && now.After(*promotion.EndsAt) {
		return NewPromotionRejected(constants.PromoReasonExpired)
	}

	if promotion.MaxUses > 0 && promotion.UsesCount >= promotion.MaxUses {
		return NewPromotionRejected(constants.PromoReasonMaxUsesReached)
	}

	if promotion.PerUserLimit > 0 {
		if userID == 0 {
			return NewPromotionRejected(constants.PromoReasonLoginRequired)
		}
		usage, err := s.usageRepo.GetByPromotionAndUser(promotion.ID, userID)
		if err != nil {
			return err
		}
		if usage != nil && usage.Uses >= promotion.PerUserLimit {
			return NewPromotionRejected(constants.PromoReasonPerUserLimitReached)
		}
	}

	if promotion.MinOrderTotal.Decimal.GreaterThan(decimal.Zero) && orderTotal.Decimal.LessThan(promotion.MinOrderTotal.Decimal) {
		return NewPromotionRejected(constants.PromoReasonOrderTotalTooLow)
	}

	if len(promotion.ApplicableProductIDs) > 0 {
		if !anyLineMatches(lines, func(line PromotionOrderLine) bool {
			return promotion.ApplicableProductIDs.Contains(line.ProductID)
		}) {
			return NewPromotionRejected(constants.PromoReasonNotApplicableProducts)
		}
	}
	if len(promotion.ApplicableCategoryIDs) > 0 {
		if !anyLineMatches(lines, func(line PromotionOrderLine) bool {
			return promotion.ApplicableCategoryIDs.Contains(line.CategoryID)
		}) {
			return NewPromotionRejected(constants.PromoReasonNotApplicableCategories)
		}
	}

	return nil
}

// ComputeDiscount 计算折扣金额。percent 取订单金额的百分比，
// fixed 直接取面值；结果钳制在 [0, orderTotal] 区间内。
func (s *PromotionService) ComputeDiscount(promotion *models.Promotion, orderTotal models.Money) models.Money {
	var discount decimal.Decimal
	switch strings.ToLower(strings.TrimSpace(promotion.DiscountType)) {
	case constants.PromotionTypePercent:
		percent := promotion.Amount.Decimal.Div(decimal.NewFromInt(100))
		discount = orderTotal.Decimal.Mul(percent)
	case constants.PromotionTypeFixed:
		discount = promotion.Amount.Decimal
	default:
		discount = decimal.Zero
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(orderTotal.Decimal) {
		discount = orderTotal.Decimal
	}
	return models.NewMoneyFromDecimal(discount)
}

// Reserve 原子预留一个使用名额。全局计数与用户计数在同一事务内
// 各自通过条件更新递增；任一门槛未过即整体回滚并返回带原因的
// 拒绝错误。并发场景下先落地的更新获胜，落败方在这里拿到拒绝。
func (s *PromotionService) Reserve(code string, userID uint) (*models.Promotion, error) {
	promotion, err := s.promotionRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if promotion == nil {
		return nil, NewPromotionRejected(constants.PromoReasonNotFound)
	}
	if promotion.PerUserLimit > 0 && userID == 0 {
		return nil, NewPromotionRejected(constants.PromoReasonLoginRequired)
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		promotionRepo := s.promotionRepo.WithTx(tx)
		usageRepo := s.usageRepo.WithTx(tx)

		affected, err := promotionRepo.ReserveUse(promotion.ID, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return s.classifyReserveFailure(promotionRepo, promotion.ID, now)
		}

		if userID != 0 {
			if err := s.reserveUserSlot(usageRepo, promotion, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reserved, err := s.promotionRepo.GetByID(promotion.ID)
	if err != nil {
		return nil, err
	}
	if reserved == nil {
		return nil, NewPromotionRejected(constants.PromoReasonNotFound)
	}
	return reserved, nil
}

// reserveUserSlot 递增用户计数。首次使用时先插入记录；并发插入
// 撞唯一索引后回退到条件更新重试一次。
func (s *PromotionService) reserveUserSlot(usageRepo repository.PromotionUsageRepository, promotion *models.Promotion, userID uint) error {
	affected, err := usageRepo.IncrementUses(promotion.ID, userID, promotion.PerUserLimit)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	existing, err := usageRepo.GetByPromotionAndUser(promotion.ID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return NewPromotionRejected(constants.PromoReasonPerUserLimitReached)
	}

	if err := usageRepo.Create(&models.PromotionUsage{
		PromotionID: promotion.ID,
		UserID:      userID,
		Uses:        1,
	}); err != nil {
		// 唯一索引冲突说明并发请求已插入，改走条件更新
		affected, retryErr := usageRepo.IncrementUses(promotion.ID, userID, promotion.PerUserLimit)
		if retryErr != nil {
			return retryErr
		}
		if affected == 0 {
			return NewPromotionRejected(constants.PromoReasonPerUserLimitReached)
		}
	}
	return nil
}

// classifyReserveFailure 通过只读重读为失败的原子更新命名原因。
// 重读仅用于命名：权威判定仍是原子更新本身，重读快照与失败瞬间
// 可能不同，此时归因到最可能竞争丢失的上限门槛。
func (s *PromotionService) classifyReserveFailure(promotionRepo repository.PromotionRepository, promotionID uint, now time.Time) error {
	promotion, err := promotionRepo.GetByID(promotionID)
	if err != nil {
		return err
	}
	switch {
	case promotion == nil:
		return NewPromotionRejected(constants.PromoReasonNotFound)
	case !promotion.IsActive:
		return NewPromotionRejected(constants.PromoReasonInactive)
	case promotion.StartsAt != nil && now.Before(*promotion.StartsAt):
		return NewPromotionRejected(constants.PromoReasonNotStartedYet)
	case promotion.EndsAt != nil && now.After(*promotion.EndsAt):
		return NewPromotionRejected(constants.PromoReasonExpired)
	default:
		return NewPromotionRejected(constants.PromoReasonMaxUsesReached)
	}
}

// Release 释放一个已预留的名额。全局计数与用户计数在同一事务内
// 条件递减，任何一侧无可释放名额时整体回滚为空操作；重复释放
// 安全，不返回错误。
func (s *PromotionService) Release(code string, userID uint) error {
	promotion, err := s.promotionRepo.GetByCode(code)
	if err != nil {
		return err
	}
	if promotion == nil {
		return nil
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		promotionRepo := s.promotionRepo.WithTx(tx)
		usageRepo := s.usageRepo.WithTx(tx)

		affected, err := promotionRepo.ReleaseUse(promotion.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errNothingToRelease
		}
		if userID != 0 {
			affected, err := usageRepo.DecrementUses(promotion.ID, userID)
			if err != nil {
				return err
			}
			if affected == 0 {
				return errNothingToRelease
			}
		}
		return nil
	})
	if errors.Is(err, errNothingToRelease) {
		return nil
	}
	return err
}

func sumOrderLines(lines []PromotionOrderLine) models.Money {
	total := decimal.Zero
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		total = total.Add(line.UnitPrice.Decimal.Mul(qty))
	}
	return models.NewMoneyFromDecimal(total)
}

func anyLineMatches(lines []PromotionOrderLine, match func(PromotionOrderLine) bool) bool {
	for _, line := range lines {
		if match(line) {
			return true
		}
	}
	return false
}
