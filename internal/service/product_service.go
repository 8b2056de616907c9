package service

import (
	"strings"

	"github.com/savage-rise/internal/models"
	"github.com/savage-rise/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品业务服务
type ProductService struct {
	repo         repository.ProductRepository
	variantRepo  repository.VariantRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, variantRepo repository.VariantRepository, categoryRepo repository.CategoryRepository) *ProductService {
	return &ProductService{
		repo:         repo,
		variantRepo:  variantRepo,
		categoryRepo: categoryRepo,
	}
}

// CreateProductInput 创建商品输入
type CreateProductInput struct {
	CategoryID  uint
	Slug        string
	Name        string
	Description string
	Price       models.Money
	Images      []string
	IsActive    *bool
	SortOrder   int
	Variants    []VariantInput
}

// UpdateProductInput 更新商品输入
type UpdateProductInput struct {
	CategoryID  *uint
	Name        *string
	Description *string
	Price       *models.Money
	Images      []string
	IsActive    *bool
	SortOrder   *int
}

// VariantInput 规格输入
type VariantInput struct {
	Color string
	Size  string
	Stock int
}

// ListPublic 获取公开商品列表
func (s *ProductService) ListPublic(categoryID uint, search string, page, pageSize int) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   categoryID,
		Search:       search,
		OnlyActive:   true,
		WithCategory: true,
		WithVariants: true,
	}
	return s.repo.List(filter)
}

// GetPublicBySlug 获取公开商品详情
func (s *ProductService) GetPublicBySlug(slug string) (*models.Product, error) {
	product, err := s.repo.GetBySlug(slug, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListAdmin 获取后台商品列表
func (s *ProductService) ListAdmin(categoryID uint, search string, page, pageSize int) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   categoryID,
		Search:       search,
		OnlyActive:   false,
		WithCategory: true,
		WithVariants: true,
	}
	return s.repo.List(filter)
}

// GetAdminByID 获取后台商品详情
func (s *ProductService) GetAdminByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品及其规格
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	slug := strings.TrimSpace(input.Slug)
	name := strings.TrimSpace(input.Name)
	if slug == "" || name == "" || input.CategoryID == 0 {
		return nil, ErrProductInvalid
	}
	if input.Price.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrProductInvalid
	}

	category, err := s.categoryRepo.GetByID(input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	count, err := s.repo.CountBySlug(slug, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	product := &models.Product{
		CategoryID:  input.CategoryID,
		Slug:        slug,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Images:      models.StringArray(input.Images),
		IsActive:    isActive,
		SortOrder:   input.SortOrder,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}

	variants, err := buildVariants(product.ID, input.Variants)
	if err != nil {
		return nil, err
	}
	if err := s.variantRepo.CreateBatch(variants); err != nil {
		return nil, err
	}
	product.Variants = variants
	return product, nil
}

// Update 更新商品基础信息（规格走 SetVariantStock/ReplaceVariants）
func (s *ProductService) Update(id uint, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if input.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(*input.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
		product.CategoryID = *input.CategoryID
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrProductInvalid
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.Decimal.LessThanOrEqual(decimal.Zero) {
			return nil, ErrProductInvalid
		}
		product.Price = *input.Price
	}
	if input.Images != nil {
		product.Images = models.StringArray(input.Images)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		product.SortOrder = *input.SortOrder
	}

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// ReplaceVariants 整体替换商品规格（管理端盘点用）
func (s *ProductService) ReplaceVariants(productID uint, inputs []VariantInput) ([]models.Variant, error) {
	product, err := s.repo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	variants, err := buildVariants(productID, inputs)
	if err != nil {
		return nil, err
	}
	if err := s.variantRepo.DeleteByProduct(productID); err != nil {
		return nil, err
	}
	if err := s.variantRepo.CreateBatch(variants); err != nil {
		return nil, err
	}
	return variants, nil
}

// SetVariantStock 直接设置某个规格的库存
func (s *ProductService) SetVariantStock(productID uint, color, size string, stock int) (*models.Variant, error) {
	if stock < 0 {
		return nil, ErrProductInvalid
	}
	variant, err := s.variantRepo.GetByKey(productID, color, size)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}
	if err := s.variantRepo.SetStock(variant.ID, stock); err != nil {
		return nil, err
	}
	variant.Stock = stock
	return variant, nil
}

// Delete 删除商品及其规格
func (s *ProductService) Delete(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if err := s.variantRepo.DeleteByProduct(id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

func buildVariants(productID uint, inputs []VariantInput) ([]models.Variant, error) {
	variants := make([]models.Variant, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		color := strings.TrimSpace(in.Color)
		size := strings.TrimSpace(in.Size)
		if color == "" || size == "" || in.Stock < 0 {
			return nil, ErrProductInvalid
		}
		key := color + "|" + size
		if _, ok := seen[key]; ok {
			return nil, ErrProductInvalid
		}
		seen[key] = struct{}{}
		variants = append(variants, models.Variant{
			ProductID: productID,
			Color:     color,
			Size:      size,
			Stock:     in.Stock,
		})
	}
	return variants, nil
}
