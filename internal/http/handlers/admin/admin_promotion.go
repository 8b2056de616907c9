package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/savage-rise/internal/http/response"
	"github.com/savage-rise/internal/models"
	"github.com/savage-rise/internal/repository"
	"github.com/savage-rise/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreatePromotionRequest 创建促销码请求
type CreatePromotionRequest struct {
	Code                  string   `json:"code" binding:"required"`
	Description           string   `json:"description"`
	DiscountType          string   `json:"discount_type" binding:"required"`
	Amount                float64  `json:"amount" binding:"required"`
	MaxUses               int      `json:"max_uses"`
	PerUserLimit          int      `json:"per_user_limit"`
	MinOrderTotal         float64  `json:"min_order_total"`
	ApplicableProductIDs  []uint   `json:"applicable_product_ids"`
	ApplicableCategoryIDs []uint   `json:"applicable_category_ids"`
	StartsAt              string   `json:"starts_at"`
	EndsAt                string   `json:"ends_at"`
	IsActive              *bool    `json:"is_active"`
}

// UpdatePromotionRequest 更新促销码请求（码本身与已用次数不可改）
type UpdatePromotionRequest struct {
	Description           *string  `json:"description"`
	DiscountType          *string  `json:"discount_type"`
	Amount                *float64 `json:"amount"`
	MaxUses               *int     `json:"max_uses"`
	PerUserLimit          *int     `json:"per_user_limit"`
	MinOrderTotal         *float64 `json:"min_order_total"`
	ApplicableProductIDs  []uint   `json:"applicable_product_ids"`
	ApplicableCategoryIDs []uint   `json:"applicable_category_ids"`
	StartsAt              string   `json:"starts_at"`
	EndsAt                string   `json:"ends_at"`
	IsActive              *bool    `json:"is_active"`
}

// CreatePromotion 创建促销码
func (h *Handler) CreatePromotion(c *gin.Context) {
	var req CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	startsAt, err := parseTimeNullable(req.StartsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	endsAt, err := parseTimeNullable(req.EndsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	promotion, err := h.PromotionAdminService.Create(service.CreatePromotionInput{
		Code:                  req.Code,
		Description:           req.Description,
		DiscountType:          req.DiscountType,
		Amount:                models.NewMoneyFromDecimal(decimal.NewFromFloat(req.Amount)),
		MaxUses:               req.MaxUses,
		PerUserLimit:          req.PerUserLimit,
		MinOrderTotal:         models.NewMoneyFromDecimal(decimal.NewFromFloat(req.MinOrderTotal)),
		ApplicableProductIDs:  req.ApplicableProductIDs,
		ApplicableCategoryIDs: req.ApplicableCategoryIDs,
		StartsAt:              startsAt,
		EndsAt:                endsAt,
		IsActive:              req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionCodeTaken):
			respondError(c, response.CodeConflict, "error.promotion_code_taken", nil)
		case errors.Is(err, service.ErrPromotionInvalid):
			respondError(c, response.CodeBadRequest, "error.promotion_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	response.Success(c, promotion)
}

// UpdatePromotion 更新促销码
func (h *Handler) UpdatePromotion(c *gin.Context) {
	promotionID, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req UpdatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	startsAt, err := parseTimeNullable(req.StartsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	endsAt, err := parseTimeNullable(req.EndsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	input := service.UpdatePromotionInput{
		Description:           req.Description,
		DiscountType:          req.DiscountType,
		MaxUses:               req.MaxUses,
		PerUserLimit:          req.PerUserLimit,
		ApplicableProductIDs:  req.ApplicableProductIDs,
		ApplicableCategoryIDs: req.ApplicableCategoryIDs,
		StartsAt:              startsAt,
		EndsAt:                endsAt,
		IsActive:              req.IsActive,
	}
	if req.Amount != nil {
		amount := models.NewMoneyFromDecimal(decimal.NewFromFloat(*req.Amount))
		input.Amount = &amount
	}
	if req.MinOrderTotal != nil {
		minTotal := models.NewMoneyFromDecimal(decimal.NewFromFloat(*req.MinOrderTotal))
		input.MinOrderTotal = &minTotal
	}

	promotion, err := h.PromotionAdminService.Update(promotionID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionNotFound):
			respondError(c, response.CodeNotFound, "error.promotion_not_found", nil)
		case errors.Is(err, service.ErrPromotionInvalid):
			respondError(c, response.CodeBadRequest, "error.promotion_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	response.Success(c, promotion)
}

// SetPromotionActive 启用/停用促销码
func (h *Handler) SetPromotionActive(c *gin.Context) {
	promotionID, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	promotion, err := h.PromotionAdminService.SetActive(promotionID, *req.IsActive)
	if err != nil {
		if errors.Is(err, service.ErrPromotionNotFound) {
			respondError(c, response.CodeNotFound, "error.promotion_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, promotion)
}

// GetAdminPromotion 获取促销码详情
func (h *Handler) GetAdminPromotion(c *gin.Context) {
	promotionID, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	promotion, err := h.PromotionAdminService.Get(promotionID)
	if err != nil {
		if errors.Is(err, service.ErrPromotionNotFound) {
			respondError(c, response.CodeNotFound, "error.promotion_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.promo_fetch_failed", err)
		return
	}

	response.Success(c, promotion)
}

// GetAdminPromotions 获取促销码列表
func (h *Handler) GetAdminPromotions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	code := strings.TrimSpace(c.Query("code"))

	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		isActive = &parsed
	}

	promotions, total, err := h.PromotionAdminService.List(repository.PromotionListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     code,
		IsActive: isActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.promo_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, promotions, pagination)
}

// DeletePromotion 删除促销码
func (h *Handler) DeletePromotion(c *gin.Context) {
	promotionID, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.PromotionAdminService.Delete(promotionID); err != nil {
		if errors.Is(err, service.ErrPromotionNotFound) {
			respondError(c, response.CodeNotFound, "error.promotion_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}
