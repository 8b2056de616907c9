package admin

import (
	"errors"

	"github.com/savage-rise/internal/http/response"
	"github.com/savage-rise/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCategoryRequest 创建分类请求
type CreateCategoryRequest struct {
	Slug      string `json:"slug" binding:"required"`
	Name      string `json:"name" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

// UpdateCategoryRequest 更新分类请求
type UpdateCategoryRequest struct {
	Name      *string `json:"name"`
	SortOrder *int    `json:"sort_order"`
}

func respondCategoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, response.CodeNotFound, "error.category_not_found", nil)
	case errors.Is(err, service.ErrCategoryInUse):
		respondError(c, response.CodeConflict, "error.category_in_use", nil)
	case errors.Is(err, service.ErrSlugTaken):
		respondError(c, response.CodeConflict, "error.slug_taken", nil)
	case errors.Is(err, service.ErrProductInvalid):
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

// AdminListCategories 管理端分类列表
func (h *Handler) AdminListCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, categories)
}

// AdminGetCategory 管理端分类详情
func (h *Handler) AdminGetCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	category, err := h.CategoryService.Get(categoryID)
	if err != nil {
		respondCategoryError(c, err)
		return
	}

	response.Success(c, category)
}

// AdminCreateCategory 管理端创建分类
func (h *Handler) AdminCreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	category, err := h.CategoryService.Create(req.Slug, req.Name, req.SortOrder)
	if err != nil {
		respondCategoryError(c, err)
		return
	}

	response.Success(c, category)
}

// AdminUpdateCategory 管理端更新分类
func (h *Handler) AdminUpdateCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	category, err := h.CategoryService.Update(categoryID, req.Name, req.SortOrder)
	if err != nil {
		respondCategoryError(c, err)
		return
	}

	response.Success(c, category)
}

// AdminDeleteCategory 管理端删除分类
func (h *Handler) AdminDeleteCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.CategoryService.Delete(categoryID); err != nil {
		respondCategoryError(c, err)
		return
	}

	response.Success(c, gin.H{
		"deleted": true,
	})
}
