package repository

import (
	"time"

	"github.com/shopvd/backoffice/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddressLearningRepository 地址学习数据访问接口
type AddressLearningRepository interface {
	FindExact(keyword, districtID string) (*models.AddressLearning, error)
	ListByDistrict(districtID string) ([]models.AddressLearning, error)
	Upsert(keyword, districtID, wardID, wardName string) error
	Stats() (AddressLearningStats, error)
}

// AddressLearningStats 学习统计
type AddressLearningStats struct {
	TotalMappings    int64 `json:"total_mappings"`
	DistrictsCovered int64 `json:"districts_covered"`
	TotalMatches     int64 `json:"total_matches"`
	MaxConfidence    int64 `json:"max_confidence"`
}

// GormAddressLearningRepository GORM 实现
type GormAddressLearningRepository struct {
	db *gorm.DB
}

// NewAddressLearningRepository 创建地址学习仓库
func NewAddressLearningRepository(db *gorm.DB) *GormAddressLearningRepository {
	return &GormAddressLearningRepository{db: db}
}

// FindExact 关键词精确匹配，命中次数多的优先
func (r *GormAddressLearningRepository) FindExact(keyword, districtID string) (*models.AddressLearning, error) {
	var rows []models.AddressLearning
	if err := r.db.Where("keywords = ? AND district_id = ?", keyword, districtID).
		Order("match_count desc, last_used_at desc").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListByDistrict 区内全部映射
func (r *GormAddressLearningRepository) ListByDistrict(districtID string) ([]models.AddressLearning, error) {
	var rows []models.AddressLearning
	err := r.db.Where("district_id = ?", districtID).Order("match_count desc").Find(&rows).Error
	return rows, err
}

// Upsert 写入映射，已存在则命中次数 +1 并更新坊
func (r *GormAddressLearningRepository) Upsert(keyword, districtID, wardID, wardName string) error {
	now := time.Now().Unix()
	row := models.AddressLearning{
		Keywords:   keyword,
		DistrictID: districtID,
		WardID:     wardID,
		WardName:   wardName,
		MatchCount: 1,
		LastUsedAt: now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "keywords"}, {Name: "district_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"match_count":  gorm.Expr("address_learning.match_count + 1"),
			"last_used_at": now,
			"ward_id":      wardID,
			"ward_name":    wardName,
		}),
	}).Create(&row).Error
}

// Stats 学习统计
func (r *GormAddressLearningRepository) Stats() (AddressLearningStats, error) {
	var stats AddressLearningStats
	err := r.db.Model(&models.AddressLearning{}).
		Select(`COUNT(*) AS total_mappings, COUNT(DISTINCT district_id) AS districts_covered,
			COALESCE(SUM(match_count), 0) AS total_matches, COALESCE(MAX(match_count), 0) AS max_confidence`).
		Scan(&stats).Error
	return stats, err
}
