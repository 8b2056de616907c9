package constants

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// 支付状态常量
const (
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// 促销类型常量
const (
	PromotionTypeFixed   = "fixed"
	PromotionTypePercent = "percent"
)

// 促销校验拒绝原因常量（闭合枚举，新增原因须同步处理层映射）
const (
	PromoReasonInactive                = "inactive"
	PromoReasonNotStartedYet           = "not_started_yet"
	PromoReasonExpired                 = "expired"
	PromoReasonMaxUsesReached          = "max_uses_reached"
	PromoReasonPerUserLimitReached     = "per_user_limit_reached"
	PromoReasonLoginRequired           = "login_required"
	PromoReasonOrderTotalTooLow        = "order_total_too_low"
	PromoReasonNotApplicableProducts   = "not_applicable_products"
	PromoReasonNotApplicableCategories = "not_applicable_categories"
	PromoReasonNotFound                = "not_found"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 队列常量
const (
	QueueDefault               = "default"
	TaskOrderConfirmationEmail = "order:confirmation_email"
	TaskOrderStatusEmail       = "order:status_email"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "sr"
)

// 站点语言常量
const (
	LocaleEnUS = "en-US"
	LocaleFrFR = "fr-FR"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleEnUS, LocaleFrFR}

// IsLocaleSupported 判断语言是否受支持
func IsLocaleSupported(locale string) bool {
	for _, l := range SupportedLocales {
		if l == locale {
			return true
		}
	}
	return false
}

// 币种常量
const (
	SiteCurrencyDefault = "EUR"
)
