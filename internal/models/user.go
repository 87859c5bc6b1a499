package models

import "time"

// User 后台用户
type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`                          // 主键
	Username     string     `gorm:"size:64;uniqueIndex;not null" json:"username"`  // 用户名
	PasswordHash string     `gorm:"size:255;not null" json:"-"`                    // 密码哈希
	FullName     string     `gorm:"size:255" json:"full_name"`                     // 姓名
	Role         string     `gorm:"size:32;not null;default:'staff'" json:"role"`  // admin / staff / viewer
	IsActive     bool       `gorm:"index;not null;default:false" json:"is_active"` // 启用
	LastLoginAt  *time.Time `json:"last_login_at"`                                 // 最后登录
	CreatedAt    time.Time  `json:"created_at"`                                    // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`                                    // 更新时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// Session 登录会话，ID 即 bearer token
type Session struct {
	ID        string `gorm:"primaryKey;size:64" json:"-"`      // token
	UserID    uint   `gorm:"index;not null" json:"user_id"`    // 用户ID
	ExpiresAt int64  `gorm:"index;not null" json:"expires_at"` // 过期时间（秒）
	CreatedAt int64  `gorm:"autoCreateTime" json:"created_at"` // 创建时间（秒）

	User User `gorm:"foreignKey:UserID" json:"user"`
}

// TableName 指定表名
func (Session) TableName() string {
	return "sessions"
}
