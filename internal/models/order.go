package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                          // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                          // 订单编号
	UserID         uint           `gorm:"index;not null" json:"user_id"`                                 // 用户ID
	Status         string         `gorm:"index;not null" json:"status"`                                  // 订单状态
	PaymentStatus  string         `gorm:"index;not null" json:"payment_status"`                          // 支付状态
	Currency       string         `gorm:"not null" json:"currency"`                                      // 币种
	Subtotal       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 商品小计
	DiscountValue  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_value"`  // 促销优惠金额
	ShippingAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"` // 运费
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 实付金额
	PromoCode      string         `gorm:"index" json:"promo_code,omitempty"`                             // 使用的促销码
	PromoReserved  bool           `gorm:"not null;default:false" json:"promo_reserved"`                  // 促销名额是否已预留（取消时据此释放）
	ShippingName   string         `gorm:"type:varchar(200)" json:"shipping_name"`                        // 收件人姓名
	ShippingPhone  string         `gorm:"type:varchar(50)" json:"shipping_phone"`                        // 收件人电话
	ShippingLine   string         `gorm:"type:varchar(500)" json:"shipping_line"`                        // 收件地址
	ShippingCity   string         `gorm:"type:varchar(100)" json:"shipping_city"`                        // 城市
	ShippingZip    string         `gorm:"type:varchar(20)" json:"shipping_zip"`                          // 邮编
	PaidAt         *time.Time     `gorm:"index" json:"paid_at"`                                          // 支付时间
	CancelledAt    *time.Time     `gorm:"index" json:"cancelled_at"`                                     // 取消时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
