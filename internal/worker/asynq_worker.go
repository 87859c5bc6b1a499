package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/provider"
	"github.com/shopvd/backoffice/internal/queue"

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
	mux.HandleFunc(queue.TaskOrderNotify, c.handleOrderNotify)
	mux.HandleFunc(queue.TaskSheetsSync, c.handleSheetsSync)
	mux.HandleFunc(queue.TaskOrderEvent, c.handleOrderEvent)
	mux.HandleFunc(queue.TaskDailyReport, c.handleDailyReport)
}

func (c *Consumer) handleOrderNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil || c.NotificationService == nil {
		logger.Debugw("worker_order_notify_skip_nil", "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_notify_unmarshal_failed", "error", err)
		return err
	}
	code := strings.TrimSpace(payload.OrderCode)
	if code == "" {
		logger.Debugw("worker_order_notify_skip_invalid_payload")
		return nil
	}
	ctx = logger.WithContext(ctx, "order_id", code)
	if err := c.NotificationService.NotifyNewOrder(ctx, code); err != nil {
		logger.Warnw("worker_order_notify_failed", "order_id", code, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleSheetsSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil || c.NotificationService == nil {
		logger.Debugw("worker_sheets_sync_skip_nil", "task_nil", task == nil)
		return nil
	}
	var payload queue.SheetsSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_sheets_sync_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.Action) == "" {
		logger.Debugw("worker_sheets_sync_skip_invalid_payload")
		return nil
	}
	return c.NotificationService.SyncSheets(ctx, payload.Action, payload.Data)
}

func (c *Consumer) handleOrderEvent(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil || c.NotificationService == nil {
		logger.Debugw("worker_order_event_skip_nil", "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderEventPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_event_unmarshal_failed", "error", err)
		return err
	}
	if payload.Event == "" || strings.TrimSpace(payload.OrderCode) == "" {
		logger.Debugw("worker_order_event_skip_invalid_payload", "event", payload.Event)
		return nil
	}
	return c.NotificationService.PublishOrderEvent(ctx, payload)
}

func (c *Consumer) handleDailyReport(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil || c.NotificationService == nil {
		logger.Debugw("worker_daily_report_skip_nil", "task_nil", task == nil)
		return nil
	}
	var payload queue.DailyReportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_daily_report_unmarshal_failed", "error", err)
		return err
	}
	if err := c.NotificationService.SendDailyReport(ctx, payload.Date); err != nil {
		logger.Warnw("worker_daily_report_failed", "date", payload.Date, "error", err)
		return err
	}
	return nil
}
