package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/savage-rise/internal/models"

	"gorm.io/gorm"
)

// PromotionRepository 促销码数据访问接口
type PromotionRepository interface {
	GetByID(id uint) (*models.Promotion, error)
	GetByCode(code string) (*models.Promotion, error)
	Create(promotion *models.Promotion) error
	Update(promotion *models.Promotion) error
	UpdateActive(id uint, active bool) error
	Delete(id uint) error
	List(filter PromotionListFilter) ([]models.Promotion, int64, error)
	ReserveUse(id uint, now time.Time) (int64, error)
	ReleaseUse(id uint) (int64, error)
	WithTx(tx *gorm.DB) PromotionRepository
}

// GormPromotionRepository GORM 实现
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository 创建促销码仓库
func NewPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionRepository) WithTx(tx *gorm.DB) PromotionRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionRepository{db: tx}
}

// GetByID 根据ID获取促销码
func (r *GormPromotionRepository) GetByID(id uint) (*models.Promotion, error) {
	var promotion models.Promotion
	if err := r.db.First(&promotion, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promotion, nil
}

// GetByCode 根据促销码获取记录（入参做大写归一化）
func (r *GormPromotionRepository) GetByCode(code string) (*models.Promotion, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var promotion models.Promotion
	if err := r.db.Where("code = ?", normalized).First(&promotion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promotion, nil
}

// Create 创建促销码
func (r *GormPromotionRepository) Create(promotion *models.Promotion) error {
	return r.db.Create(promotion).Error
}

// Update 更新促销码
func (r *GormPromotionRepository) Update(promotion *models.Promotion) error {
	return r.db.Save(promotion).Error
}

// UpdateActive 启用/停用促销码
func (r *GormPromotionRepository) UpdateActive(id uint, active bool) error {
	return r.db.Model(&models.Promotion{}).
		Where("id = ?", id).
		UpdateColumn("is_active", active).Error
}

// Delete 删除促销码
func (r *GormPromotionRepository) Delete(id uint) error {
	return r.db.Delete(&models.Promotion{}, id).Error
}

// List 获取促销码列表
func (r *GormPromotionRepository) List(filter PromotionListFilter) ([]models.Promotion, int64, error) {
	var promotions []models.Promotion
	query := r.db.Model(&models.Promotion{})

	if filter.Code != "" {
		query = query.Where("code = ?", strings.ToUpper(strings.TrimSpace(filter.Code)))
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&promotions).Error; err != nil {
		return nil, 0, err
	}
	return promotions, total, nil
}

// ReserveUse 预留一个全局使用名额。启用、时间窗口与上限三类门槛
// 全部置于同一条条件更新的 WHERE 中，返回受影响行数；0 行表示
// 任一门槛未通过，计数未发生变更。
func (r *GormPromotionRepository) ReserveUse(id uint, now time.Time) (int64, error) {
	if id == 0 {
		return 0, errors.New("invalid promotion id")
	}
	result := r.db.Model(&models.Promotion{}).
		Where("id = ?", id).
		Where("is_active = ?", true).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Where("max_uses = 0 OR uses_count < max_uses").
		UpdateColumn("uses_count", gorm.Expr("uses_count + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReleaseUse 释放一个全局使用名额。仅在计数大于 0 时扣减，
// 不会把计数打成负数；无可释放名额时 0 行受影响，调用方视为空操作。
func (r *GormPromotionRepository) ReleaseUse(id uint) (int64, error) {
	if id == 0 {
		return 0, errors.New("invalid promotion id")
	}
	result := r.db.Model(&models.Promotion{}).
		Where("id = ?", id).
		Where("uses_count > 0").
		UpdateColumn("uses_count", gorm.Expr("uses_count - 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
