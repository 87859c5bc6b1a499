package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal 比例与单价类型（佣金率、税率、物料单价），JSON 输出为数字
type Decimal struct {
	decimal.Decimal
}

// NewDecimal 由 float 创建
func NewDecimal(f float64) Decimal {
	return Decimal{Decimal: decimal.NewFromFloat(f)}
}

// MarshalJSON 输出数字而不是字符串
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.Decimal.String()), nil
}

// UnmarshalJSON 解析数字或字符串
func (d *Decimal) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		d.Decimal = decimal.Zero
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if raw == "" {
		d.Decimal = decimal.Zero
		return nil
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", raw, err)
	}
	d.Decimal = parsed
	return nil
}

// Value 用于数据库写入
func (d Decimal) Value() (driver.Value, error) {
	return d.Decimal.InexactFloat64(), nil
}

// Scan 用于数据库读取
func (d *Decimal) Scan(value interface{}) error {
	if value == nil {
		d.Decimal = decimal.Zero
		return nil
	}
	return d.Decimal.Scan(value)
}

// ApplyRate 计算 round(amount × rate)，越南盾取整
func ApplyRate(amount int64, rate Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate.Decimal).Round(0).IntPart()
}

// StringArray 字符串数组类型，用于存储白名单手机号、订单号列表等
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	return scanJSON(value, s, func() { *s = StringArray{} })
}

// Contains 判断是否包含
func (s StringArray) Contains(v string) bool {
	for _, item := range s {
		if strings.TrimSpace(item) == v {
			return true
		}
	}
	return false
}

// PackagingLine 包装成本明细行
type PackagingLine struct {
	ItemName    string `json:"item_name"`
	DisplayName string `json:"display_name"`
	ItemCost    int64  `json:"item_cost"`
}

// PackagingSnapshot 下单时的包装成本快照
type PackagingSnapshot struct {
	Items     []PackagingLine `json:"items"`
	TotalCost int64           `json:"total_cost"`
}

// Value 实现 driver.Valuer 接口
func (p PackagingSnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (p *PackagingSnapshot) Scan(value interface{}) error {
	return scanJSON(value, p, func() { *p = PackagingSnapshot{} })
}

func scanJSON(value interface{}, dest interface{}, reset func()) error {
	switch v := value.(type) {
	case nil:
		reset()
		return nil
	case []byte:
		if len(v) == 0 {
			reset()
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			reset()
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}
