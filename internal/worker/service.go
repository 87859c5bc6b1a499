package worker

import (
	"context"
	"errors"
	"time"

	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/queue"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/hibiken/asynq"
)

const (
	reportCheckInterval  = time.Minute
	sessionPurgeInterval = time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.Container != nil {
		if s.consumer.NotificationService != nil && s.consumer.NotificationService.ReportHour() >= 0 {
			go s.runDailyReportLoop(ctx)
		}
		if s.consumer.AuthService != nil {
			go s.runSessionPurgeLoop(ctx)
		}
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// dueReportDate 越南时间到达 hour 且当天未入队时返回日期
func dueReportDate(now time.Time, hour int, lastDate string) (string, bool) {
	if hour < 0 || hour > 23 {
		return "", false
	}
	local := now.In(service.VNLocation)
	date := local.Format("2006-01-02")
	if local.Hour() < hour || date == lastDate {
		return "", false
	}
	return date, true
}

func (s *Service) runDailyReportLoop(ctx context.Context) {
	hour := s.consumer.NotificationService.ReportHour()
	client := s.consumer.QueueClient
	lastDate := ""
	check := func() {
		date, due := dueReportDate(time.Now(), hour, lastDate)
		if !due {
			return
		}
		if err := client.EnqueueDailyReport(queue.DailyReportPayload{Date: date}); err != nil {
			logger.Warnw("worker_daily_report_enqueue_failed", "date", date, "error", err)
			return
		}
		lastDate = date
		logger.Infow("worker_daily_report_enqueued", "date", date)
	}
	check()

	ticker := time.NewTicker(reportCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

func (s *Service) runSessionPurgeLoop(ctx context.Context) {
	runOnce := func() {
		if _, err := s.consumer.AuthService.PurgeExpiredSessions(ctx); err != nil {
			logger.Warnw("worker_session_purge_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
