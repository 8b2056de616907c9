package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/savage-rise/internal/logger"
	"github.com/savage-rise/internal/models"
	"github.com/savage-rise/internal/provider"
	"github.com/savage-rise/internal/queue"
	"github.com/savage-rise/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderConfirmationEmail, c.handleOrderConfirmationEmail)
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
}

func (c *Consumer) handleOrderConfirmationEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_confirmation_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderConfirmationEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_confirmation_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_confirmation_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, receiverEmail, locale, err := c.resolveOrderReceiver(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil || receiverEmail == "" {
		return nil
	}
	input := service.OrderEmailInput{
		OrderNo:  order.OrderNo,
		Status:   order.Status,
		Total:    order.TotalAmount,
		Currency: order.Currency,
	}
	if err := c.EmailService.SendOrderConfirmationEmail(receiverEmail, input, locale); err != nil {
		if isEmailSkippable(err) {
			logger.Debugw("worker_order_confirmation_email_skip_disabled", "order_id", order.ID, "error", err)
			return nil
		}
		logger.Warnw("worker_order_confirmation_email_send_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"receiver_email", receiverEmail,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, receiverEmail, locale, err := c.resolveOrderReceiver(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil || receiverEmail == "" {
		return nil
	}
	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = order.Status
	}
	input := service.OrderEmailInput{
		OrderNo:  order.OrderNo,
		Status:   status,
		Total:    order.TotalAmount,
		Currency: order.Currency,
	}
	if err := c.EmailService.SendOrderStatusEmail(receiverEmail, input, locale); err != nil {
		if isEmailSkippable(err) {
			logger.Debugw("worker_order_status_email_skip_disabled", "order_id", order.ID, "error", err)
			return nil
		}
		logger.Warnw("worker_order_status_email_send_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"receiver_email", receiverEmail,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) resolveOrderReceiver(orderID uint) (*models.Order, string, string, error) {
	order, err := c.OrderRepo.GetByID(orderID)
	if err != nil {
		logger.Warnw("worker_email_fetch_order_failed", "order_id", orderID, "error", err)
		return nil, "", "", err
	}
	if order == nil {
		logger.Debugw("worker_email_skip_order_not_found", "order_id", orderID)
		return nil, "", "", nil
	}
	user, err := c.UserRepo.GetByID(order.UserID)
	if err != nil {
		logger.Warnw("worker_email_fetch_user_failed", "order_id", order.ID, "user_id", order.UserID, "error", err)
		return nil, "", "", err
	}
	if user == nil {
		logger.Debugw("worker_email_skip_user_not_found", "order_id", order.ID, "user_id", order.UserID)
		return order, "", "", nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_email_skip_email_service_nil", "order_id", order.ID, "order_no", order.OrderNo)
		return order, "", "", nil
	}
	return order, strings.TrimSpace(user.Email), strings.TrimSpace(user.Locale), nil
}

// 邮件服务未启用属于部署形态，不算任务失败，不触发重试
func isEmailSkippable(err error) bool {
	return errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured)
}
