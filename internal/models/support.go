package models

import "time"

// ExportHistory 订单导出记录
type ExportHistory struct {
	ID            uint        `gorm:"primarykey" json:"id"`                        // 主键
	FileName      string      `gorm:"size:255;not null" json:"file_name"`          // 文件名
	FilePath      string      `gorm:"size:1024;not null" json:"file_path"`         // 对象存储 key
	OrderCount    int         `gorm:"not null;default:0" json:"order_count"`       // 订单数
	OrderIDs      StringArray `gorm:"column:order_ids;type:text" json:"order_ids"` // 订单号列表
	Status        string      `gorm:"size:32;index" json:"status"`                 // pending / downloaded
	DownloadedAt  int64       `json:"downloaded_at"`                               // 下载时间（毫秒）
	CreatedAtUnix int64       `gorm:"index" json:"created_at_unix"`                // 创建时间（毫秒）
	CreatedAt     time.Time   `json:"created_at"`                                  // 创建时间
}

// TableName 指定表名
func (ExportHistory) TableName() string {
	return "export_history"
}

// AddressLearning 地址关键词与坊（ward）的学习映射
type AddressLearning struct {
	ID         uint   `gorm:"primarykey" json:"id"`                                                               // 主键
	Keywords   string `gorm:"size:255;not null;uniqueIndex:idx_address_keyword_district" json:"keywords"`         // 关键词
	DistrictID string `gorm:"size:32;not null;uniqueIndex:idx_address_keyword_district;index" json:"district_id"` // 区
	WardID     string `gorm:"size:32;not null" json:"ward_id"`                                                    // 坊
	WardName   string `gorm:"size:255;not null" json:"ward_name"`                                                 // 坊名称
	MatchCount int    `gorm:"not null;default:1" json:"match_count"`                                              // 命中次数
	LastUsedAt int64  `json:"last_used_at"`                                                                       // 最近使用（秒）
	CreatedAt  int64  `gorm:"autoCreateTime" json:"created_at"`                                                   // 创建时间（秒）
}

// TableName 指定表名
func (AddressLearning) TableName() string {
	return "address_learning"
}
