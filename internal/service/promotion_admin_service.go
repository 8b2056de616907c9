package service

import (
	"strings"
	"time"

	"github.com/savage-rise/internal/constants"
	"github.com/savage-rise/internal/models"
	"github.com/savage-rise/internal/repository"

	"github.com/shopspring/decimal"
)

// PromotionAdminService 促销码管理服务
type PromotionAdminService struct {
	repo repository.PromotionRepository
}

// NewPromotionAdminService 创建促销码管理服务
func NewPromotionAdminService(repo repository.PromotionRepository) *PromotionAdminService {
	return &PromotionAdminService{repo: repo}
}

// CreatePromotionInput 创建促销码输入
type CreatePromotionInput struct {
	Code                  string
	Description           string
	DiscountType          string
	Amount                models.Money
	MaxUses               int
	PerUserLimit          int
	MinOrderTotal         models.Money
	ApplicableProductIDs  []uint
	ApplicableCategoryIDs []uint
	StartsAt              *time.Time
	EndsAt                *time.Time
	IsActive              *bool
}

// UpdatePromotionInput 更新促销码输入
type UpdatePromotionInput struct {
	Description           *string
	DiscountType          *string
	Amount                *models.Money
	MaxUses               *int
	PerUserLimit          *int
	MinOrderTotal         *models.Money
	ApplicableProductIDs  []uint
	ApplicableCategoryIDs []uint
	StartsAt              *time.Time
	EndsAt                *time.Time
	IsActive              *bool
}

// Create 创建促销码。促销码做大写归一化，重复码拒绝。
func (s *PromotionAdminService) Create(input CreatePromotionInput) (*models.Promotion, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, ErrPromotionInvalid
	}
	discountType, err := normalizeDiscountType(input.DiscountType, input.Amount)
	if err != nil {
		return nil, err
	}
	if input.MaxUses < 0 || input.PerUserLimit < 0 {
		return nil, ErrPromotionInvalid
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, ErrPromotionInvalid
	}

	exist, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrPromotionCodeTaken
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	promotion := &models.Promotion{
		Code:                  code,
		Description:           strings.TrimSpace(input.Description),
		DiscountType:          discountType,
		Amount:                input.Amount,
		MaxUses:               input.MaxUses,
		UsesCount:             0,
		PerUserLimit:          input.PerUserLimit,
		MinOrderTotal:         input.MinOrderTotal,
		ApplicableProductIDs:  models.UintArray(input.ApplicableProductIDs),
		ApplicableCategoryIDs: models.UintArray(input.ApplicableCategoryIDs),
		StartsAt:              input.StartsAt,
		EndsAt:                input.EndsAt,
		IsActive:              isActive,
	}

	if err := s.repo.Create(promotion); err != nil {
		return nil, err
	}
	return promotion, nil
}

// Update 更新促销码。码本身与使用计数不可改。
func (s *PromotionAdminService) Update(id uint, input UpdatePromotionInput) (*models.Promotion, error) {
	if id == 0 {
		return nil, ErrPromotionInvalid
	}
	promotion, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if promotion == nil {
		return nil, ErrPromotionNotFound
	}

	if input.DiscountType != nil || input.Amount != nil {
		amount := promotion.Amount
		if input.Amount != nil {
			amount = *input.Amount
		}
		discountType := promotion.DiscountType
		if input.DiscountType != nil {
			discountType = *input.DiscountType
		}
		normalized, err := normalizeDiscountType(discountType, amount)
		if err != nil {
			return nil, err
		}
		promotion.DiscountType = normalized
		promotion.Amount = amount
	}
	if input.Description != nil {
		promotion.Description = strings.TrimSpace(*input.Description)
	}
	if input.MaxUses != nil {
		if *input.MaxUses < 0 {
			return nil, ErrPromotionInvalid
		}
		promotion.MaxUses = *input.MaxUses
	}
	if input.PerUserLimit != nil {
		if *input.PerUserLimit < 0 {
			return nil, ErrPromotionInvalid
		}
		promotion.PerUserLimit = *input.PerUserLimit
	}
	if input.MinOrderTotal != nil {
		promotion.MinOrderTotal = *input.MinOrderTotal
	}
	if input.ApplicableProductIDs != nil {
		promotion.ApplicableProductIDs = models.UintArray(input.ApplicableProductIDs)
	}
	if input.ApplicableCategoryIDs != nil {
		promotion.ApplicableCategoryIDs = models.UintArray(input.ApplicableCategoryIDs)
	}
	if input.StartsAt != nil {
		promotion.StartsAt = input.StartsAt
	}
	if input.EndsAt != nil {
		promotion.EndsAt = input.EndsAt
	}
	if promotion.StartsAt != nil && promotion.EndsAt != nil && promotion.EndsAt.Before(*promotion.StartsAt) {
		return nil, ErrPromotionInvalid
	}
	if input.IsActive != nil {
		promotion.IsActive = *input.IsActive
	}

	if err := s.repo.Update(promotion); err != nil {
		return nil, err
	}
	return promotion, nil
}

// SetActive 启用/停用促销码
func (s *PromotionAdminService) SetActive(id uint, active bool) (*models.Promotion, error) {
	if id == 0 {
		return nil, ErrPromotionInvalid
	}
	promotion, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if promotion == nil {
		return nil, ErrPromotionNotFound
	}
	if err := s.repo.UpdateActive(id, active); err != nil {
		return nil, err
	}
	promotion.IsActive = active
	return promotion, nil
}

// Get 获取促销码
func (s *PromotionAdminService) Get(id uint) (*models.Promotion, error) {
	promotion, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if promotion == nil {
		return nil, ErrPromotionNotFound
	}
	return promotion, nil
}

// List 促销码列表
func (s *PromotionAdminService) List(filter repository.PromotionListFilter) ([]models.Promotion, int64, error) {
	return s.repo.List(filter)
}

// Delete 删除促销码
func (s *PromotionAdminService) Delete(id uint) error {
	if id == 0 {
		return ErrPromotionInvalid
	}
	promotion, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if promotion == nil {
		return ErrPromotionNotFound
	}
	return s.repo.Delete(id)
}

func normalizeDiscountType(discountType string, amount models.Money) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(discountType))
	if normalized != constants.PromotionTypeFixed && normalized != constants.PromotionTypePercent {
		return "", ErrPromotionInvalid
	}
	// percent 超过 100 不拦截：折扣计算会钳制到订单金额
	if amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return "", ErrPromotionInvalid
	}
	return normalized, nil
}
