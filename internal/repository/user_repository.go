package repository

import (
	"errors"
	"time"

	"github.com/shopvd/backoffice/internal/models"

	"gorm.io/gorm"
)

// UserRepository 后台用户与会话数据访问接口
type UserRepository interface {
	GetByUsername(username string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	List() ([]models.User, error)
	Create(user *models.User) error
	UpdatePassword(id uint, hash string) error
	TouchLastLogin(id uint, at time.Time) error
	CreateSession(session *models.Session) error
	GetActiveSession(token string, nowUnix int64) (*models.Session, error)
	DeleteSession(token string) error
	DeleteOtherSessions(userID uint, keepToken string) error
	DeleteExpiredSessions(nowUnix int64) (int64, error)
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetByUsername 根据用户名获取启用中的用户
func (r *GormUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ? AND is_active = ?", username, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// List 用户列表
func (r *GormUserRepository) List() ([]models.User, error) {
	var users []models.User
	if err := r.db.Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// UpdatePassword 更新密码哈希
func (r *GormUserRepository) UpdatePassword(id uint, hash string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash).Error
}

// TouchLastLogin 更新最后登录时间
func (r *GormUserRepository) TouchLastLogin(id uint, at time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("last_login_at", at).Error
}

// CreateSession 创建会话
func (r *GormUserRepository) CreateSession(session *models.Session) error {
	return r.db.Create(session).Error
}

// GetActiveSession 查询未过期且用户启用的会话
func (r *GormUserRepository) GetActiveSession(token string, nowUnix int64) (*models.Session, error) {
	var session models.Session
	err := r.db.Preload("User").
		Joins("JOIN users ON users.id = sessions.user_id").
		Where("sessions.id = ? AND sessions.expires_at > ? AND users.is_active = ?", token, nowUnix, true).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// DeleteSession 删除会话
func (r *GormUserRepository) DeleteSession(token string) error {
	return r.db.Where("id = ?", token).Delete(&models.Session{}).Error
}

// DeleteOtherSessions 删除用户的其他会话
func (r *GormUserRepository) DeleteOtherSessions(userID uint, keepToken string) error {
	return r.db.Where("user_id = ? AND id <> ?", userID, keepToken).Delete(&models.Session{}).Error
}

// DeleteExpiredSessions 清理过期会话
func (r *GormUserRepository) DeleteExpiredSessions(nowUnix int64) (int64, error) {
	result := r.db.Where("expires_at <= ?", nowUnix).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
