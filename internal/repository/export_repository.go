package repository

import (
	"errors"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/models"

	"gorm.io/gorm"
)

// ExportRepository 导出记录数据访问接口
type ExportRepository interface {
	Create(record *models.ExportHistory) error
	GetByID(id uint) (*models.ExportHistory, error)
	ListRecent(limit int) ([]models.ExportHistory, error)
	MarkDownloaded(id uint) error
	Delete(id uint) error
}

// GormExportRepository GORM 实现
type GormExportRepository struct {
	db *gorm.DB
}

// NewExportRepository 创建导出记录仓库
func NewExportRepository(db *gorm.DB) *GormExportRepository {
	return &GormExportRepository{db: db}
}

// Create 创建导出记录
func (r *GormExportRepository) Create(record *models.ExportHistory) error {
	if record.CreatedAtUnix == 0 {
		record.CreatedAtUnix = models.NowMillis()
	}
	if record.Status == "" {
		record.Status = constants.ExportStatusPending
	}
	return r.db.Create(record).Error
}

// GetByID 根据 ID 获取导出记录
func (r *GormExportRepository) GetByID(id uint) (*models.ExportHistory, error) {
	var record models.ExportHistory
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListRecent 最近的导出记录
func (r *GormExportRepository) ListRecent(limit int) ([]models.ExportHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []models.ExportHistory
	err := r.db.Order("created_at_unix desc").Limit(limit).Find(&records).Error
	return records, err
}

// MarkDownloaded 标记已下载
func (r *GormExportRepository) MarkDownloaded(id uint) error {
	return r.db.Model(&models.ExportHistory{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        constants.ExportStatusDownloaded,
		"downloaded_at": models.NowMillis(),
	}).Error
}

// Delete 删除导出记录
func (r *GormExportRepository) Delete(id uint) error {
	return r.db.Delete(&models.ExportHistory{}, id).Error
}
