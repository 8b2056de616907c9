package repository

import (
	"errors"
	"strings"

	"github.com/savage-rise/internal/models"

	"gorm.io/gorm"
)

// VariantRepository 商品规格数据访问接口
type VariantRepository interface {
	ListByProduct(productID uint) ([]models.Variant, error)
	GetByKey(productID uint, color, size string) (*models.Variant, error)
	Create(item *models.Variant) error
	CreateBatch(items []models.Variant) error
	SetStock(id uint, stock int) error
	DeleteByProduct(productID uint) error
	DecrementStock(productID uint, color, size string, quantity int) (int64, error)
	IncrementStock(productID uint, color, size string, quantity int) (int64, error)
	WithTx(tx *gorm.DB) VariantRepository
}

// GormVariantRepository GORM 实现
type GormVariantRepository struct {
	db *gorm.DB
}

// NewVariantRepository 创建规格仓库
func NewVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVariantRepository) WithTx(tx *gorm.DB) VariantRepository {
	if tx == nil {
		return r
	}
	return &GormVariantRepository{db: tx}
}

// ListByProduct 根据商品获取规格列表
func (r *GormVariantRepository) ListByProduct(productID uint) ([]models.Variant, error) {
	if productID == 0 {
		return nil, errors.New("invalid product id")
	}
	var items []models.Variant
	if err := r.db.Where("product_id = ?", productID).Order("color ASC, size ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByKey 按商品、颜色、尺码获取规格
func (r *GormVariantRepository) GetByKey(productID uint, color, size string) (*models.Variant, error) {
	if productID == 0 {
		return nil, errors.New("invalid product id")
	}
	color = strings.TrimSpace(color)
	size = strings.TrimSpace(size)
	var item models.Variant
	if err := r.db.Where("product_id = ? AND color = ? AND size = ?", productID, color, size).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create 创建规格
func (r *GormVariantRepository) Create(item *models.Variant) error {
	if item == nil {
		return errors.New("variant is nil")
	}
	return r.db.Create(item).Error
}

// CreateBatch 批量创建规格
func (r *GormVariantRepository) CreateBatch(items []models.Variant) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// SetStock 直接设置库存（管理端盘点用，不走预占路径）
func (r *GormVariantRepository) SetStock(id uint, stock int) error {
	if id == 0 || stock < 0 {
		return errors.New("invalid variant stock params")
	}
	return r.db.Model(&models.Variant{}).
		Where("id = ?", id).
		UpdateColumn("stock", stock).Error
}

// DeleteByProduct 删除指定商品下的规格
func (r *GormVariantRepository) DeleteByProduct(productID uint) error {
	if productID == 0 {
		return errors.New("invalid product id")
	}
	return r.db.Where("product_id = ?", productID).Delete(&models.Variant{}).Error
}

// DecrementStock 扣减库存。匹配与扣减在同一条条件更新内完成，
// 返回受影响行数；0 行表示规格不存在或库存不足，未发生任何变更。
func (r *GormVariantRepository) DecrementStock(productID uint, color, size string, quantity int) (int64, error) {
	if productID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock decrement params")
	}
	result := r.db.Model(&models.Variant{}).
		Where("product_id = ? AND color = ? AND size = ? AND stock >= ?", productID, color, size, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// IncrementStock 回补库存（回滚/取消订单用），无上限约束。
func (r *GormVariantRepository) IncrementStock(productID uint, color, size string, quantity int) (int64, error) {
	if productID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock increment params")
	}
	result := r.db.Model(&models.Variant{}).
		Where("product_id = ? AND color = ? AND size = ?", productID, color, size).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
