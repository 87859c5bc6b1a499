package queue

import (
	"encoding/json"

	"github.com/shopvd/backoffice/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderNotify 新订单 Telegram 通知任务
	TaskOrderNotify = constants.TaskOrderNotify
	// TaskSheetsSync Google Sheets 同步任务
	TaskSheetsSync = constants.TaskSheetsSync
	// TaskOrderEvent 订单事件发布任务
	TaskOrderEvent = constants.TaskOrderEvent
	// TaskDailyReport 每日报表任务
	TaskDailyReport = constants.TaskDailyReport
)

// OrderNotifyPayload 订单通知任务载荷
type OrderNotifyPayload struct {
	OrderCode string `json:"order_code"`
}

// SheetsSyncPayload Sheets 同步任务载荷
type SheetsSyncPayload struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// OrderEventPayload 订单事件任务载荷
type OrderEventPayload struct {
	Event      string `json:"event"`
	OrderCode  string `json:"order_code"`
	Status     string `json:"status,omitempty"`
	OldStatus  string `json:"old_status,omitempty"`
	OccurredAt int64  `json:"occurred_at"`
}

// DailyReportPayload 每日报表任务载荷
type DailyReportPayload struct {
	Date string `json:"date"` // YYYY-MM-DD，越南时间
}

// NewOrderNotifyTask 创建订单通知任务
func NewOrderNotifyTask(payload OrderNotifyPayload) (*asynq.Task, error) {
	return newTask(TaskOrderNotify, payload)
}

// NewSheetsSyncTask 创建 Sheets 同步任务
func NewSheetsSyncTask(payload SheetsSyncPayload) (*asynq.Task, error) {
	return newTask(TaskSheetsSync, payload)
}

// NewOrderEventTask 创建订单事件任务
func NewOrderEventTask(payload OrderEventPayload) (*asynq.Task, error) {
	return newTask(TaskOrderEvent, payload)
}

// NewDailyReportTask 创建每日报表任务
func NewDailyReportTask(payload DailyReportPayload) (*asynq.Task, error) {
	return newTask(TaskDailyReport, payload)
}

func newTask(taskType string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}
