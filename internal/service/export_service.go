package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopvd/backoffice/internal/export"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"
	"github.com/shopvd/backoffice/internal/storage"
)

const exportHistoryLimit = 50

// ExportService SPX 导出文件管理
type ExportService struct {
	repo      repository.ExportRepository
	orderRepo repository.OrderRepository
	bucket    storage.Bucket
	now       func() time.Time
}

// NewExportService 创建导出服务
func NewExportService(repo repository.ExportRepository, orderRepo repository.OrderRepository, bucket storage.Bucket) *ExportService {
	return &ExportService{repo: repo, orderRepo: orderRepo, bucket: bucket, now: time.Now}
}

// ExportResult 保存结果
type ExportResult struct {
	ExportID   uint   `json:"exportId"`
	FileName   string `json:"fileName"`
	OrderCount int    `json:"orderCount"`
}

// ExportDownload 下载内容，调用方负责关闭 Body
type ExportDownload struct {
	FileName string
	OrderIDs []string
	Body     io.ReadCloser
}

// Save 生成 SPX 文件并上传到导出桶
func (s *ExportService) Save(ctx context.Context, orderCodes []string) (*ExportResult, error) {
	codes := normalizeCodes(orderCodes)
	if len(codes) == 0 {
		return nil, ErrExportOrdersEmpty
	}
	orders, err := s.orderRepo.ListByCodesWithItems(codes)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}

	buf, err := export.BuildSPXWorkbook(orders)
	if err != nil {
		return nil, fmt.Errorf("build spx workbook: %w", err)
	}
	now := s.now()
	fileName := export.FileName(now.In(VNLocation), len(orders))
	key := fmt.Sprintf("exports/%d_%s", now.UnixMilli(), fileName)
	if err := s.bucket.Put(ctx, key, buf, int64(buf.Len()), export.ContentType); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	exported := make([]string, 0, len(orders))
	for i := range orders {
		exported = append(exported, orders[i].OrderCode)
	}
	record := &models.ExportHistory{
		FileName:      fileName,
		FilePath:      key,
		OrderCount:    len(exported),
		OrderIDs:      exported,
		CreatedAtUnix: now.UnixMilli(),
	}
	if err := s.repo.Create(record); err != nil {
		if delErr := s.bucket.Delete(ctx, key); delErr != nil {
			logger.FromContext(ctx).Warnw("export_object_rollback_failed", "key", key, "error", delErr)
		}
		return nil, err
	}
	logger.FromContext(ctx).Infow("export_saved", "export_id", record.ID, "orders", len(exported), "key", key)
	return &ExportResult{ExportID: record.ID, FileName: fileName, OrderCount: len(exported)}, nil
}

// History 最近的导出记录
func (s *ExportService) History() ([]models.ExportHistory, error) {
	return s.repo.ListRecent(exportHistoryLimit)
}

func (s *ExportService) get(id uint) (*models.ExportHistory, error) {
	if id == 0 {
		return nil, ErrExportIDRequired
	}
	record, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrExportNotFound
	}
	return record, nil
}

// Download 打开导出文件
func (s *ExportService) Download(ctx context.Context, id uint) (*ExportDownload, error) {
	record, err := s.get(id)
	if err != nil {
		return nil, err
	}
	body, err := s.bucket.Get(ctx, record.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrExportFileMissing
		}
		return nil, err
	}
	return &ExportDownload{FileName: record.FileName, OrderIDs: record.OrderIDs, Body: body}, nil
}

// MarkDownloaded 标记已下载并把订单置为已发货，返回状态变更的订单数
func (s *ExportService) MarkDownloaded(ctx context.Context, id uint) (int64, error) {
	record, err := s.get(id)
	if err != nil {
		return 0, err
	}
	if err := s.repo.MarkDownloaded(record.ID); err != nil {
		return 0, err
	}
	updated, err := s.orderRepo.MarkExportedShipped(record.OrderIDs)
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Infow("export_marked_downloaded", "export_id", record.ID, "orders_shipped", updated)
	return updated, nil
}

// Delete 删除对象与记录
func (s *ExportService) Delete(ctx context.Context, id uint) error {
	record, err := s.get(id)
	if err != nil {
		return err
	}
	if err := s.bucket.Delete(ctx, record.FilePath); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return err
	}
	if err := s.repo.Delete(record.ID); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("export_deleted", "export_id", record.ID)
	return nil
}
