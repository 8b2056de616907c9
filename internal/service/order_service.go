package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/savage-rise/internal/constants"
	"github.com/savage-rise/internal/logger"
	"github.com/savage-rise/internal/models"
	"github.com/savage-rise/internal/queue"
	"github.com/savage-rise/internal/repository"

	"github.com/shopspring/decimal"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo        repository.OrderRepository
	productRepo      repository.ProductRepository
	variantRepo      repository.VariantRepository
	promotionService *PromotionService
	queueClient      *queue.Client
	shippingFlatFee  models.Money
	shippingFreeMin  models.Money
	orderNoPrefix    string
	currency         string
}

// OrderPricingConfig 订单定价配置（运费阶梯与单号前缀）
type OrderPricingConfig struct {
	ShippingFlatFee       float64
	ShippingFreeThreshold float64
	OrderNoPrefix         string
	Currency              string
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, variantRepo repository.VariantRepository, promotionService *PromotionService, queueClient *queue.Client, pricing OrderPricingConfig) *OrderService {
	prefix := strings.TrimSpace(pricing.OrderNoPrefix)
	if prefix == "" {
		prefix = "SR"
	}
	currency := strings.TrimSpace(pricing.Currency)
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}
	return &OrderService{
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		variantRepo:      variantRepo,
		promotionService: promotionService,
		queueClient:      queueClient,
		shippingFlatFee:  models.NewMoneyFromFloat(pricing.ShippingFlatFee),
		shippingFreeMin:  models.NewMoneyFromFloat(pricing.ShippingFreeThreshold),
		orderNoPrefix:    prefix,
		currency:         currency,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID    uint
	Items     []CreateOrderItem
	PromoCode string
	Shipping  ShippingAddress
}

// CreateOrderItem 创建订单项输入
type CreateOrderItem struct {
	ProductID uint
	Color     string
	Size      string
	Quantity  int
}

// ShippingAddress 收件信息
type ShippingAddress struct {
	Name  string
	Phone string
	Line  string
	City  string
	Zip   string
}

// orderLinePlan 订单行计划：已解析的商品与定价快照
type orderLinePlan struct {
	Product   *models.Product
	Item      CreateOrderItem
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// appliedAction 已落库的副作用及其逆操作，按压栈顺序记录
type appliedAction struct {
	name    string
	reverse func() error
}

// 订单状态机：库存与促销名额仅在从 pending 取消时回补，
// 因此 cancelled 只能从 pending 进入。
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusShipped: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
	},
}

// CreateOrder 创建订单。库存扣减逐行提交，失败时按逆序执行补偿
// 动作（回补库存、释放促销名额），补偿失败仅记录日志，调用方
// 始终收到原始错误。
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidReference
	}
	items, err := mergeCreateOrderItems(input.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrInvalidOrderItem
	}

	plans, err := s.buildLinePlans(items)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, plan := range plans {
		subtotal = subtotal.Add(plan.LineTotal)
	}
	subtotalMoney := models.NewMoneyFromDecimal(subtotal)

	applied := make([]appliedAction, 0, len(plans)+1)

	// 促销码：先只读校验快速失败，再原子预留；预留失败即拒单。
	discount := models.NewMoneyFromDecimal(decimal.Zero)
	promoCode := ""
	promoReserved := false
	if strings.TrimSpace(input.PromoCode) != "" {
		promotion, reserveErr := s.reservePromotion(input, plans, subtotalMoney)
		if reserveErr != nil {
			return nil, reserveErr
		}
		promoCode = promotion.Code
		promoReserved = true
		discount = s.promotionService.ComputeDiscount(promotion, subtotalMoney)
		applied = append(applied, appliedAction{
			name: "promotion_reserve",
			reverse: func() error {
				return s.promotionService.Release(promoCode, input.UserID)
			},
		})
	}

	shipping := s.shippingFor(subtotalMoney)
	total := subtotal.Sub(discount.Decimal).Add(shipping.Decimal)

	// 逐行扣减库存；每次成功压栈一个回补动作。
	for _, plan := range plans {
		plan := plan
		affected, decErr := s.variantRepo.DecrementStock(plan.Item.ProductID, plan.Item.Color, plan.Item.Size, plan.Item.Quantity)
		if decErr != nil {
			s.rollback(applied)
			return nil, decErr
		}
		if affected == 0 {
			s.rollback(applied)
			return nil, ErrInsufficientStock
		}
		applied = append(applied, appliedAction{
			name: "stock_decrement",
			reverse: func() error {
				_, incErr := s.variantRepo.IncrementStock(plan.Item.ProductID, plan.Item.Color, plan.Item.Size, plan.Item.Quantity)
				return incErr
			},
		})
	}

	now := time.Now()
	order := &models.Order{
		OrderNo:        s.generateOrderNo(),
		UserID:         input.UserID,
		Status:         constants.OrderStatusPending,
		PaymentStatus:  constants.PaymentStatusUnpaid,
		Currency:       s.currency,
		Subtotal:       subtotalMoney,
		DiscountValue:  discount,
		ShippingAmount: shipping,
		TotalAmount:    models.NewMoneyFromDecimal(total),
		PromoCode:      promoCode,
		PromoReserved:  promoReserved,
		ShippingName:   strings.TrimSpace(input.Shipping.Name),
		ShippingPhone:  strings.TrimSpace(input.Shipping.Phone),
		ShippingLine:   strings.TrimSpace(input.Shipping.Line),
		ShippingCity:   strings.TrimSpace(input.Shipping.City),
		ShippingZip:    strings.TrimSpace(input.Shipping.Zip),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	orderItems := make([]models.OrderItem, 0, len(plans))
	for _, plan := range plans {
		orderItems = append(orderItems, models.OrderItem{
			ProductID:   plan.Item.ProductID,
			ProductName: plan.Product.Name,
			Color:       plan.Item.Color,
			Size:        plan.Item.Size,
			Quantity:    plan.Item.Quantity,
			UnitPrice:   models.NewMoneyFromDecimal(plan.UnitPrice),
			LineTotal:   models.NewMoneyFromDecimal(plan.LineTotal),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err := s.orderRepo.Create(order, orderItems); err != nil {
		s.rollback(applied)
		return nil, err
	}
	order.Items = orderItems

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueOrderConfirmationEmail(queue.OrderConfirmationEmailPayload{OrderID: order.ID}); err != nil {
			logger.Warnw("order_enqueue_confirmation_email_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
		}
	}

	return order, nil
}

// reservePromotion 只读校验后原子预留。校验命中的拒绝原因直接
// 返回；校验通过但预留落败时以预留返回的原因为准。
func (s *OrderService) reservePromotion(input CreateOrderInput, plans []orderLinePlan, subtotal models.Money) (*models.Promotion, error) {
	lines := make([]PromotionOrderLine, 0, len(plans))
	for _, plan := range plans {
		lines = append(lines, PromotionOrderLine{
			ProductID:  plan.Item.ProductID,
			CategoryID: plan.Product.CategoryID,
			Quantity:   plan.Item.Quantity,
			UnitPrice:  models.NewMoneyFromDecimal(plan.UnitPrice),
		})
	}

	promotion, err := s.promotionService.promotionRepo.GetByCode(input.PromoCode)
	if err != nil {
		return nil, err
	}
	if err := s.promotionService.Validate(promotion, input.UserID, lines, subtotal); err != nil {
		return nil, err
	}
	return s.promotionService.Reserve(input.PromoCode, input.UserID)
}

// buildLinePlans 解析订单行：读取商品定价快照，规格存在性交由
// 扣减门槛判定。
func (s *OrderService) buildLinePlans(items []CreateOrderItem) ([]orderLinePlan, error) {
	plans := make([]orderLinePlan, 0, len(items))
	for _, item := range items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, ErrProductNotFound
		}
		unitPrice := product.Price.Decimal
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		plans = append(plans, orderLinePlan{
			Product:   product,
			Item:      item,
			UnitPrice: unitPrice,
			LineTotal: lineTotal,
		})
	}
	return plans, nil
}

// rollback 逆序执行补偿动作。补偿失败不向上传播，仅记录日志，
// 避免掩盖主错误。
func (s *OrderService) rollback(applied []appliedAction) {
	for i := len(applied) - 1; i >= 0; i-- {
		if err := applied[i].reverse(); err != nil {
			logger.Warnw("order_rollback_step_failed",
				"action", applied[i].name,
				"error", err,
			)
		}
	}
}

// shippingFor 运费阶梯：小计达到免邮门槛则免运费，否则收固定运费。
func (s *OrderService) shippingFor(subtotal models.Money) models.Money {
	if s.shippingFreeMin.Decimal.GreaterThan(decimal.Zero) && subtotal.Decimal.GreaterThanOrEqual(s.shippingFreeMin.Decimal) {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	return s.shippingFlatFee
}

// CancelOrder 用户取消订单。仅 pending 可取消且必须是订单归属人；
// 回补库存与释放促销名额是尽力而为的补偿，单步失败不阻断取消。
func (s *OrderService) CancelOrder(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderForbidden
	}
	return s.cancelPending(order)
}

// CancelOrderAdmin 管理端取消订单（不校验归属人）
func (s *OrderService) CancelOrderAdmin(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.cancelPending(order)
}

func (s *OrderService) cancelPending(order *models.Order) (*models.Order, error) {
	if order.Status != constants.OrderStatusPending {
		return nil, ErrOrderStateInvalid
	}

	for _, item := range order.Items {
		if _, err := s.variantRepo.IncrementStock(item.ProductID, item.Color, item.Size, item.Quantity); err != nil {
			logger.Warnw("order_cancel_stock_restore_failed",
				"order_id", order.ID,
				"product_id", item.ProductID,
				"color", item.Color,
				"size", item.Size,
				"error", err,
			)
		}
	}

	if order.PromoReserved && order.PromoCode != "" {
		if err := s.promotionService.Release(order.PromoCode, order.UserID); err != nil {
			logger.Warnw("order_cancel_promo_release_failed",
				"order_id", order.ID,
				"promo_code", order.PromoCode,
				"error", err,
			)
		}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"cancelled_at":   now,
		"promo_reserved": false,
		"updated_at":     now,
	}
	if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusCancelled, updates); err != nil {
		return nil, err
	}
	order.Status = constants.OrderStatusCancelled
	order.PromoReserved = false
	order.CancelledAt = &now

	s.enqueueStatusEmail(order.ID, constants.OrderStatusCancelled)
	return order, nil
}

// MarkPaid 支付侧信道：unpaid → paid，其余状态拒绝
func (s *OrderService) MarkPaid(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == constants.OrderStatusCancelled || order.PaymentStatus != constants.PaymentStatusUnpaid {
		return nil, ErrOrderStateInvalid
	}

	now := time.Now()
	if err := s.orderRepo.UpdateStatus(order.ID, order.Status, map[string]interface{}{
		"payment_status": constants.PaymentStatusPaid,
		"paid_at":        now,
		"updated_at":     now,
	}); err != nil {
		return nil, err
	}
	order.PaymentStatus = constants.PaymentStatusPaid
	order.PaidAt = &now

	s.enqueueStatusEmail(order.ID, order.Status)
	return order, nil
}

// UpdateStatus 管理端推进订单状态。目标为 cancelled 时走取消补偿
// 路径，其余按状态机推进。
func (s *OrderService) UpdateStatus(orderID uint, target string) (*models.Order, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == constants.OrderStatusCancelled {
		return s.CancelOrderAdmin(orderID)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !isTransitionAllowed(order.Status, target) {
		return nil, ErrOrderStateInvalid
	}
	if order.Status == target {
		return order, nil
	}

	now := time.Now()
	if err := s.orderRepo.UpdateStatus(order.ID, target, map[string]interface{}{"updated_at": now}); err != nil {
		return nil, err
	}
	order.Status = target

	s.enqueueStatusEmail(order.ID, target)
	return order, nil
}

// GetOrderForUser 获取用户自己的订单
func (s *OrderService) GetOrderForUser(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderForbidden
	}
	return order, nil
}

// ListOrdersForUser 用户订单列表
func (s *OrderService) ListOrdersForUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// ListOrdersAdmin 管理端订单列表
func (s *OrderService) ListOrdersAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// GetOrder 管理端订单详情
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// enqueueStatusEmail 推送状态邮件任务，失败仅记录日志
func (s *OrderService) enqueueStatusEmail(orderID uint, status string) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID: orderID,
		Status:  status,
	}); err != nil {
		logger.Warnw("order_enqueue_status_email_failed",
			"order_id", orderID,
			"status", status,
			"error", err,
		)
	}
}

func isTransitionAllowed(current, target string) bool {
	if current == target {
		return true
	}
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

func (s *OrderService) generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("%s%s%s", s.orderNoPrefix, now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}

// mergeCreateOrderItems 合并重复规格的下单项
func mergeCreateOrderItems(items []CreateOrderItem) ([]CreateOrderItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	merged := make([]CreateOrderItem, 0, len(items))
	indexMap := make(map[string]int)
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return nil, ErrInvalidOrderItem
		}
		color := strings.TrimSpace(item.Color)
		size := strings.TrimSpace(item.Size)
		if color == "" || size == "" {
			return nil, ErrInvalidOrderItem
		}
		key := fmt.Sprintf("%d|%s|%s", item.ProductID, color, size)
		if idx, ok := indexMap[key]; ok {
			merged[idx].Quantity += item.Quantity
			continue
		}
		indexMap[key] = len(merged)
		merged = append(merged, CreateOrderItem{
			ProductID: item.ProductID,
			Color:     color,
			Size:      size,
			Quantity:  item.Quantity,
		})
	}
	return merged, nil
}
