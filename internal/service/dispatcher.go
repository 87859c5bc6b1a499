package service

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/queue"
)

const detachedTaskTimeout = 30 * time.Second

// TaskDispatcher 下单等主流程之外的后台任务，调用方不等待结果
type TaskDispatcher interface {
	OrderCreated(ctx context.Context, orderCode string)
	OrderStatusChanged(ctx context.Context, orderCode, oldStatus, newStatus string)
	SheetsSync(ctx context.Context, action string, data interface{})
}

// NewTaskDispatcher 队列可用时走 asynq，否则在独立 goroutine 中执行
func NewTaskDispatcher(client *queue.Client, notifier *NotificationService) TaskDispatcher {
	if client != nil && client.Enabled() {
		return &QueueDispatcher{client: client}
	}
	return &GoroutineDispatcher{notifier: notifier, timeout: detachedTaskTimeout}
}

// QueueDispatcher 基于 asynq 的派发，任务不重试
type QueueDispatcher struct {
	client *queue.Client
}

// OrderCreated 新订单：Telegram 通知 + 事件
func (d *QueueDispatcher) OrderCreated(ctx context.Context, orderCode string) {
	log := logger.FromContext(ctx)
	if err := d.client.EnqueueOrderNotify(queue.OrderNotifyPayload{OrderCode: orderCode}); err != nil {
		log.Warnw("enqueue_order_notify_failed", "order_id", orderCode, "error", err)
	}
	if err := d.client.EnqueueOrderEvent(queue.OrderEventPayload{
		Event:      constants.EventOrderCreated,
		OrderCode:  orderCode,
		OccurredAt: time.Now().UnixMilli(),
	}); err != nil {
		log.Warnw("enqueue_order_event_failed", "order_id", orderCode, "error", err)
	}
}

// OrderStatusChanged 状态变更事件
func (d *QueueDispatcher) OrderStatusChanged(ctx context.Context, orderCode, oldStatus, newStatus string) {
	if err := d.client.EnqueueOrderEvent(queue.OrderEventPayload{
		Event:      constants.EventOrderStatusChanged,
		OrderCode:  orderCode,
		Status:     newStatus,
		OldStatus:  oldStatus,
		OccurredAt: time.Now().UnixMilli(),
	}); err != nil {
		logger.FromContext(ctx).Warnw("enqueue_order_event_failed", "order_id", orderCode, "error", err)
	}
}

// SheetsSync 表格同步
func (d *QueueDispatcher) SheetsSync(ctx context.Context, action string, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.FromContext(ctx).Warnw("sheets_payload_marshal_failed", "action", action, "error", err)
		return
	}
	if err := d.client.EnqueueSheetsSync(queue.SheetsSyncPayload{Action: action, Data: body}); err != nil {
		logger.FromContext(ctx).Warnw("enqueue_sheets_sync_failed", "action", action, "error", err)
	}
}

// GoroutineDispatcher 无队列时的派发：每个任务一个 goroutine，自带 recover 与超时
type GoroutineDispatcher struct {
	notifier *NotificationService
	timeout  time.Duration
}

// OrderCreated 新订单：Telegram 通知 + 事件
func (d *GoroutineDispatcher) OrderCreated(ctx context.Context, orderCode string) {
	d.spawn(ctx, "order_notify", func(taskCtx context.Context) error {
		return d.notifier.NotifyNewOrder(taskCtx, orderCode)
	})
	d.spawn(ctx, "order_event", func(taskCtx context.Context) error {
		return d.notifier.PublishOrderEvent(taskCtx, queue.OrderEventPayload{
			Event:      constants.EventOrderCreated,
			OrderCode:  orderCode,
			OccurredAt: time.Now().UnixMilli(),
		})
	})
}

// OrderStatusChanged 状态变更事件
func (d *GoroutineDispatcher) OrderStatusChanged(ctx context.Context, orderCode, oldStatus, newStatus string) {
	payload := queue.OrderEventPayload{
		Event:      constants.EventOrderStatusChanged,
		OrderCode:  orderCode,
		Status:     newStatus,
		OldStatus:  oldStatus,
		OccurredAt: time.Now().UnixMilli(),
	}
	d.spawn(ctx, "order_event", func(taskCtx context.Context) error {
		return d.notifier.PublishOrderEvent(taskCtx, payload)
	})
}

// SheetsSync 表格同步
func (d *GoroutineDispatcher) SheetsSync(ctx context.Context, action string, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.FromContext(ctx).Warnw("sheets_payload_marshal_failed", "action", action, "error", err)
		return
	}
	d.spawn(ctx, "sheets_sync", func(taskCtx context.Context) error {
		return d.notifier.SyncSheets(taskCtx, action, body)
	})
}

func (d *GoroutineDispatcher) spawn(ctx context.Context, name string, fn func(context.Context) error) {
	if d == nil || d.notifier == nil {
		return
	}
	// 请求结束后 ctx 会被取消，后台任务只沿用其中的日志字段
	base := context.WithoutCancel(ctx)
	go func() {
		taskCtx, cancel := context.WithTimeout(base, d.timeout)
		defer cancel()
		log := logger.FromContext(taskCtx)
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("detached_task_panic", "task", name, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			}
		}()
		if err := fn(taskCtx); err != nil {
			log.Warnw("detached_task_failed", "task", name, "error", err)
		}
	}()
}
