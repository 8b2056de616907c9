package models

import (
	"time"
)

// PromotionUsage 促销码按用户的使用计数（user_uses 映射的行式存储）
type PromotionUsage struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                            // 主键
	PromotionID uint      `gorm:"not null;uniqueIndex:idx_promotion_usages_key" json:"promotion_id"` // 促销码ID
	UserID      uint      `gorm:"not null;uniqueIndex:idx_promotion_usages_key" json:"user_id"`      // 用户ID
	Uses        int       `gorm:"not null;default:0" json:"uses"`                                  // 使用次数（仅通过条件原子更新变更，恒 >= 0）
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                                      // 更新时间
}

// TableName 指定表名
func (PromotionUsage) TableName() string {
	return "promotion_usages"
}
