package models

import "time"

// CTV 推广合作者（Cộng tác viên）
type CTV struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                          // 主键
	FullName          string    `gorm:"size:255;not null" json:"full_name"`                            // 姓名
	Phone             string    `gorm:"size:32;index;not null" json:"phone"`                           // 手机号
	Email             string    `gorm:"size:255" json:"email"`                                         // 邮箱
	City              string    `gorm:"size:255" json:"city"`                                          // 城市
	Age               int       `json:"age"`                                                           // 年龄
	Experience        string    `gorm:"type:text" json:"experience"`                                   // 经验
	BankAccountNumber string    `gorm:"size:64" json:"bank_account_number"`                            // 银行账号
	BankName          string    `gorm:"size:255" json:"bank_name"`                                     // 银行名称
	ReferralCode      string    `gorm:"size:64;uniqueIndex;not null" json:"referral_code"`             // 推荐码
	Status            string    `gorm:"size:64" json:"status"`                                         // 状态
	CommissionRate    Decimal   `gorm:"type:decimal(8,4);not null;default:0.1" json:"commission_rate"` // 佣金比例 0-1
	CreatedAtUnix     int64     `gorm:"index" json:"created_at_unix"`                                  // 创建时间（毫秒）
	UpdatedAtUnix     int64     `json:"updated_at_unix"`                                               // 更新时间（毫秒）
	CreatedAt         time.Time `json:"created_at"`                                                    // 创建时间
	UpdatedAt         time.Time `json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (CTV) TableName() string {
	return "ctv"
}

// CommissionPayment 佣金结算单
type CommissionPayment struct {
	ID            uint      `gorm:"primarykey" json:"id"`                        // 主键
	ReferralCode  string    `gorm:"size:64;index;not null" json:"referral_code"` // 推荐码
	Month         string    `gorm:"size:7;index" json:"month"`                   // 结算月份 YYYY-MM
	Amount        int64     `gorm:"not null;default:0" json:"amount"`            // 结算金额
	OrderCount    int       `gorm:"not null;default:0" json:"order_count"`       // 订单数
	PaymentDate   int64     `json:"payment_date"`                                // 付款时间（毫秒）
	PaymentMethod string    `gorm:"size:64" json:"payment_method"`               // 付款方式
	Note          string    `gorm:"type:text" json:"note"`                       // 备注
	CreatedAtUnix int64     `json:"created_at_unix"`                             // 创建时间（毫秒）
	CreatedAt     time.Time `json:"created_at"`                                  // 创建时间
}

// TableName 指定表名
func (CommissionPayment) TableName() string {
	return "commission_payments"
}
