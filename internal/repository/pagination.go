package repository

import "gorm.io/gorm"

// applyPagination 应用分页参数，统一处理非法页码与偏移量。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}

// Transactor 事务入口，服务层通过它拿到事务句柄再绑定到各仓储的 WithTx
type Transactor struct {
	db *gorm.DB
}

// NewTransactor 创建事务入口
func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// Transaction 在事务中执行
func (t *Transactor) Transaction(fn func(tx *gorm.DB) error) error {
	return t.db.Transaction(fn)
}
