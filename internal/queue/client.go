package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 通知类队列
	CriticalQueue = constants.QueueCritical
)

// Client 队列客户端封装
type Client struct {
	client       *asynq.Client
	enabled      bool
	defaultQueue string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue}, nil
	}
	opt := buildRedisOpt(cfg)
	client := asynq.NewClient(opt)
	return &Client{
		client:       client,
		enabled:      true,
		defaultQueue: DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueOrderNotify 推送订单通知任务，不重试
func (c *Client) EnqueueOrderNotify(payload OrderNotifyPayload) error {
	task, err := NewOrderNotifyTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, asynq.Queue(CriticalQueue))
}

// EnqueueSheetsSync 推送 Sheets 同步任务，不重试
func (c *Client) EnqueueSheetsSync(payload SheetsSyncPayload) error {
	task, err := NewSheetsSyncTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, asynq.Queue(c.defaultQueue))
}

// EnqueueOrderEvent 推送订单事件任务，不重试
func (c *Client) EnqueueOrderEvent(payload OrderEventPayload) error {
	task, err := NewOrderEventTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, asynq.Queue(c.defaultQueue))
}

// EnqueueDailyReport 推送每日报表任务，同一天只入队一次
func (c *Client) EnqueueDailyReport(payload DailyReportPayload) error {
	task, err := NewDailyReportTask(payload)
	if err != nil {
		return err
	}
	err = c.enqueue(task,
		asynq.Queue(c.defaultQueue),
		asynq.TaskID(fmt.Sprintf("%s:%s", TaskDailyReport, payload.Date)),
		asynq.Retention(26*time.Hour),
	)
	if err == asynq.ErrTaskIDConflict {
		return nil
	}
	return err
}

func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	options := append([]asynq.Option{asynq.MaxRetry(0)}, opts...)
	_, err := c.client.Enqueue(task, options...)
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
