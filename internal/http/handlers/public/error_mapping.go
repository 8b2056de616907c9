package public

import (
	"errors"

	"github.com/savage-rise/internal/http/response"
	"github.com/savage-rise/internal/i18n"
	"github.com/savage-rise/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	if respondPromotionRejected(c, err) {
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

// respondPromotionRejected 促销拒绝响应带上具体原因，前端据此提示。
func respondPromotionRejected(c *gin.Context, err error) bool {
	if !errors.Is(err, service.ErrPromotionRejected) {
		return false
	}
	locale := i18n.ResolveLocale(c)
	msg := i18n.T(locale, "error.promotion_rejected")
	response.ErrorWithData(c, response.CodeBadRequest, msg, gin.H{
		"reason": service.PromotionRejectionReason(err),
	})
	return true
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, key: "error.order_item_invalid"},
	{target: service.ErrInvalidReference, code: response.CodeBadRequest, key: "error.invalid_reference"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrVariantNotFound, code: response.CodeNotFound, key: "error.variant_not_found"},
	{target: service.ErrInsufficientStock, code: response.CodeConflict, key: "error.insufficient_stock"},
}

var orderCancelErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderForbidden, code: response.CodeForbidden, key: "error.order_forbidden"},
	{target: service.ErrOrderStateInvalid, code: response.CodeConflict, key: "error.order_state_invalid"},
}

var promoApplyErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, key: "error.order_item_invalid"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "error.order_create_failed")
}

func respondOrderCancelError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCancelErrorRules, response.CodeInternal, "error.order_update_failed")
}

func respondPromoApplyError(c *gin.Context, err error) {
	respondWithMappedError(c, err, promoApplyErrorRules, response.CodeInternal, "error.promo_fetch_failed")
}
