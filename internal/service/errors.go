package service

import "errors"

// 业务哨兵错误。处理层通过 errors.Is 映射为响应码与 i18n 文案。
var (
	ErrInvalidReference  = errors.New("invalid reference")
	ErrInvalidOrderItem  = errors.New("invalid order item")
	ErrProductNotFound   = errors.New("product not found")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryInUse     = errors.New("category in use")
	ErrOrderNotFound     = errors.New("order not found")
	ErrPromotionNotFound = errors.New("promotion not found")
	ErrUserNotFound      = errors.New("user not found")

	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPromotionRejected = errors.New("promotion rejected")

	ErrOrderForbidden    = errors.New("order forbidden")
	ErrOrderStateInvalid = errors.New("order state invalid")

	ErrPromotionInvalid   = errors.New("promotion invalid")
	ErrProductInvalid     = errors.New("product invalid")
	ErrSlugTaken          = errors.New("slug already taken")
	ErrPromotionCodeTaken = errors.New("promotion code already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")

	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
)

// PromotionRejectedError 促销拒绝错误，携带闭合的原因枚举
// （constants.PromoReason*）。errors.Is(err, ErrPromotionRejected)
// 命中所有拒绝原因。
type PromotionRejectedError struct {
	Reason string
}

// Error 实现 error 接口
func (e *PromotionRejectedError) Error() string {
	return "promotion rejected: " + e.Reason
}

// Unwrap 归并到 ErrPromotionRejected
func (e *PromotionRejectedError) Unwrap() error {
	return ErrPromotionRejected
}

// NewPromotionRejected 按原因创建促销拒绝错误
func NewPromotionRejected(reason string) error {
	return &PromotionRejectedError{Reason: reason}
}

// PromotionRejectionReason 提取拒绝原因；非拒绝错误返回空串
func PromotionRejectionReason(err error) string {
	var rejected *PromotionRejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason
	}
	return ""
}
