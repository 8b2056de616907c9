package models

import (
	"time"
)

// Variant 商品规格表（颜色×尺码，各自独立库存）
type Variant struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                    // 主键
	ProductID uint      `gorm:"not null;uniqueIndex:idx_variants_key" json:"product_id"` // 商品ID
	Color     string    `gorm:"not null;uniqueIndex:idx_variants_key" json:"color"`      // 颜色
	Size      string    `gorm:"not null;uniqueIndex:idx_variants_key" json:"size"`       // 尺码
	Stock     int       `gorm:"not null;default:0" json:"stock"`                         // 库存（仅通过条件原子更新变更，恒 >= 0）
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                              // 更新时间
}

// TableName 指定表名
func (Variant) TableName() string {
	return "variants"
}
