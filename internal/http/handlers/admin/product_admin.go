package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/savage-rise/internal/http/response"
	"github.com/savage-rise/internal/models"
	"github.com/savage-rise/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// VariantRequest 规格请求
type VariantRequest struct {
	Color string `json:"color" binding:"required"`
	Size  string `json:"size" binding:"required"`
	Stock int    `json:"stock"`
}

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	CategoryID  uint             `json:"category_id" binding:"required"`
	Slug        string           `json:"slug" binding:"required"`
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       float64          `json:"price" binding:"required"`
	Images      []string         `json:"images"`
	IsActive    *bool            `json:"is_active"`
	SortOrder   int              `json:"sort_order"`
	Variants    []VariantRequest `json:"variants"`
}

// UpdateProductRequest 更新商品请求
type UpdateProductRequest struct {
	CategoryID  *uint    `json:"category_id"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Images      []string `json:"images"`
	IsActive    *bool    `json:"is_active"`
	SortOrder   *int     `json:"sort_order"`
}

func respondProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "error.product_not_found", nil)
	case errors.Is(err, service.ErrVariantNotFound):
		respondError(c, response.CodeNotFound, "error.variant_not_found", nil)
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, response.CodeNotFound, "error.category_not_found", nil)
	case errors.Is(err, service.ErrSlugTaken):
		respondError(c, response.CodeConflict, "error.slug_taken", nil)
	case errors.Is(err, service.ErrProductInvalid):
		respondError(c, response.CodeBadRequest, "error.product_invalid", nil)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

// AdminListProducts 管理端商品列表
func (h *Handler) AdminListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)
	search := strings.TrimSpace(c.Query("search"))

	products, total, err := h.ProductService.ListAdmin(uint(categoryID), search, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, products, pagination)
}

// AdminGetProduct 管理端商品详情
func (h *Handler) AdminGetProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	product, err := h.ProductService.GetAdminByID(productID)
	if err != nil {
		respondProductError(c, err)
		return
	}

	response.Success(c, product)
}

// AdminCreateProduct 管理端创建商品
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	variants := make([]service.VariantInput, 0, len(req.Variants))
	for _, v := range req.Variants {
		variants = append(variants, service.VariantInput{
			Color: v.Color,
			Size:  v.Size,
			Stock: v.Stock,
		})
	}

	product, err := h.ProductService.Create(service.CreateProductInput{
		CategoryID:  req.CategoryID,
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(req.Price)),
		Images:      req.Images,
		IsActive:    req.IsActive,
		SortOrder:   req.SortOrder,
		Variants:    variants,
	})
	if err != nil {
		respondProductError(c, err)
		return
	}

	response.Success(c, product)
}

// AdminUpdateProduct 管理端更新商品
func (h *Handler) AdminUpdateProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	input := service.UpdateProductInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Images:      req.Images,
		IsActive:    req.IsActive,
		SortOrder:   req.SortOrder,
	}
	if req.Price != nil {
		price := models.NewMoneyFromDecimal(decimal.NewFromFloat(*req.Price))
		input.Price = &price
	}

	product, err := h.ProductService.Update(productID, input)
	if err != nil {
		respondProductError(c, err)
		return
	}

	response.Success(c, product)
}

// AdminReplaceVariants 管理端整体替换商品规格
func (h *Handler) AdminReplaceVariants(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req struct {
		Variants []VariantRequest `json:"variants" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	inputs := make([]service.VariantInput, 0, len(req.Variants))
	for _, v := range req.Variants {
		inputs = append(inputs, service.VariantInput{
			Color: v.Color,
			Size:  v.Size,
			Stock: v.Stock,
		})
	}

	variants, err := h.ProductService.ReplaceVariants(productID, inputs)
	if err != nil {
		respondProductError(c, err)
		return
	}

	response.Success(c, variants)
}

// AdminSetVariantStock 管理端设置规格库存
func (h *Handler) AdminSetVariantStock(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req struct {
		Color string `json:"color" binding:"required"`
		Size  string `json:"size" binding:"required"`
		Stock *int   `json:"stock" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	variant, err := h.ProductService.SetVariantStock(productID, req.Color, req.Size, *req.Stock)
	if err != nil {
		respondProductError(c, err)
		return
	}

	response.Success(c, variant)
}

// AdminDeleteProduct 管理端删除商品
func (h *Handler) AdminDeleteProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.ProductService.Delete(productID); err != nil {
		respondProductError(c, err)
		return
	}

	response.Success(c, gin.H{
		"deleted": true,
	})
}
