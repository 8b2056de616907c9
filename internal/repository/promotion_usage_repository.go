package repository

import (
	"errors"

	"github.com/savage-rise/internal/models"

	"gorm.io/gorm"
)

// PromotionUsageRepository 促销码用户计数数据访问接口
type PromotionUsageRepository interface {
	GetByPromotionAndUser(promotionID, userID uint) (*models.PromotionUsage, error)
	Create(usage *models.PromotionUsage) error
	IncrementUses(promotionID, userID uint, limit int) (int64, error)
	DecrementUses(promotionID, userID uint) (int64, error)
	WithTx(tx *gorm.DB) PromotionUsageRepository
}

// GormPromotionUsageRepository GORM 实现
type GormPromotionUsageRepository struct {
	db *gorm.DB
}

// NewPromotionUsageRepository 创建促销码用户计数仓库
func NewPromotionUsageRepository(db *gorm.DB) *GormPromotionUsageRepository {
	return &GormPromotionUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionUsageRepository) WithTx(tx *gorm.DB) PromotionUsageRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionUsageRepository{db: tx}
}

// GetByPromotionAndUser 获取用户计数记录
func (r *GormPromotionUsageRepository) GetByPromotionAndUser(promotionID, userID uint) (*models.PromotionUsage, error) {
	if promotionID == 0 || userID == 0 {
		return nil, errors.New("invalid promotion usage params")
	}
	var usage models.PromotionUsage
	if err := r.db.Where("promotion_id = ? AND user_id = ?", promotionID, userID).First(&usage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

// Create 创建用户计数记录（唯一索引兜底并发重复插入）
func (r *GormPromotionUsageRepository) Create(usage *models.PromotionUsage) error {
	if usage == nil {
		return errors.New("promotion usage is nil")
	}
	return r.db.Create(usage).Error
}

// IncrementUses 增加用户使用次数。limit 大于 0 时上限门槛置于
// 条件更新的 WHERE 中；0 行受影响表示记录不存在或已达上限。
func (r *GormPromotionUsageRepository) IncrementUses(promotionID, userID uint, limit int) (int64, error) {
	if promotionID == 0 || userID == 0 {
		return 0, errors.New("invalid promotion usage params")
	}
	query := r.db.Model(&models.PromotionUsage{}).
		Where("promotion_id = ? AND user_id = ?", promotionID, userID)
	if limit > 0 {
		query = query.Where("uses < ?", limit)
	}
	result := query.UpdateColumn("uses", gorm.Expr("uses + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DecrementUses 减少用户使用次数。仅在计数大于 0 时扣减；
// 0 行受影响时调用方视为空操作。
func (r *GormPromotionUsageRepository) DecrementUses(promotionID, userID uint) (int64, error) {
	if promotionID == 0 || userID == 0 {
		return 0, errors.New("invalid promotion usage params")
	}
	result := r.db.Model(&models.PromotionUsage{}).
		Where("promotion_id = ? AND user_id = ?", promotionID, userID).
		Where("uses > 0").
		UpdateColumn("uses", gorm.Expr("uses - 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
