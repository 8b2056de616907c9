package models

import (
	"time"

	"gorm.io/gorm"
)

// Promotion 促销码表
type Promotion struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                         // 主键
	Code                  string         `gorm:"uniqueIndex;not null" json:"code"`                             // 促销码（大写归一化）
	Description           string         `gorm:"type:text" json:"description"`                                 // 描述
	DiscountType          string         `gorm:"not null" json:"discount_type"`                                // 类型（fixed/percent）
	Amount                Money          `gorm:"type:decimal(20,2);not null" json:"amount"`                    // 数值（固定金额或百分比）
	MaxUses               int            `gorm:"not null;default:0" json:"max_uses"`                           // 全局使用上限（0 表示不限制）
	UsesCount             int            `gorm:"not null;default:0" json:"uses_count"`                         // 已预留次数（仅通过条件原子更新变更，恒 >= 0）
	PerUserLimit          int            `gorm:"not null;default:0" json:"per_user_limit"`                     // 每人使用上限（0 表示不限制）
	MinOrderTotal         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_total"` // 订单金额门槛（0 表示无门槛）
	ApplicableProductIDs  UintArray      `gorm:"type:json" json:"applicable_product_ids"`                      // 适用商品ID集合（空表示不限制）
	ApplicableCategoryIDs UintArray      `gorm:"type:json" json:"applicable_category_ids"`                     // 适用分类ID集合（空表示不限制）
	StartsAt              *time.Time     `gorm:"index" json:"starts_at"`                                       // 生效时间
	EndsAt                *time.Time     `gorm:"index" json:"ends_at"`                                         // 失效时间
	IsActive              bool           `gorm:"not null;default:true" json:"is_active"`                       // 是否启用
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt             time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间
}

// TableName 指定表名
func (Promotion) TableName() string {
	return "promotions"
}
