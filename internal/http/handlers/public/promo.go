package public

import (
	"errors"

	"github.com/savage-rise/internal/http/response"
	"github.com/savage-rise/internal/service"

	"github.com/gin-gonic/gin"
)

// ApplyPromoRequest 促销码试算请求
type ApplyPromoRequest struct {
	Code  string             `json:"code" binding:"required"`
	Items []OrderItemRequest `json:"items" binding:"required"`
}

// ApplyPromo 试算促销码折扣，不预留名额。
// 拒绝不是错误：返回 valid=false 与具体原因。
func (h *Handler) ApplyPromo(c *gin.Context) {
	var req ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	uid := optionalUserID(c)
	lines, err := h.buildPromoLines(req.Items)
	if err != nil {
		respondPromoApplyError(c, err)
		return
	}

	result, err := h.PromotionService.Apply(req.Code, uid, lines)
	if err != nil {
		if errors.Is(err, service.ErrPromotionRejected) {
			response.Success(c, &service.ApplyResult{
				Valid:  false,
				Reason: service.PromotionRejectionReason(err),
				Code:   req.Code,
			})
			return
		}
		respondPromoApplyError(c, err)
		return
	}

	response.Success(c, result)
}

// buildPromoLines 把请求订单项换算为促销校验行（单价与类目取自商品当前状态）
func (h *Handler) buildPromoLines(items []OrderItemRequest) ([]service.PromotionOrderLine, error) {
	lines := make([]service.PromotionOrderLine, 0, len(items))
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return nil, service.ErrInvalidOrderItem
		}
		product, err := h.ProductRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, service.ErrProductNotFound
		}
		lines = append(lines, service.PromotionOrderLine{
			ProductID:  product.ID,
			CategoryID: product.CategoryID,
			Quantity:   item.Quantity,
			UnitPrice:  product.Price,
		})
	}
	return lines, nil
}
