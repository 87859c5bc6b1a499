package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators 在 gin 的校验引擎上注册自定义规则
func RegisterValidators() {
	registerOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			logger.Warnw("binding_validator_engine_unsupported", "engine", fmt.Sprintf("%T", binding.Validator.Engine()))
			return
		}
		if err := engine.RegisterValidation("vnphone", func(fl validator.FieldLevel) bool {
			return service.IsValidVNPhone(strings.TrimSpace(fl.Field().String()))
		}); err != nil {
			panic(fmt.Sprintf("register vnphone validator failed: %v", err))
		}
	})
}

// BindJSON 解析 JSON 请求体，空请求体视为 {}
func BindJSON(c *gin.Context, dest interface{}) error {
	err := c.ShouldBindJSON(dest)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return binding.Validator.ValidateStruct(dest)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if verrs[0].Tag() == "vnphone" {
			return service.ErrInvalidPhone
		}
		return service.ValidationError(fmt.Sprintf("Invalid field: %s", verrs[0].Field()))
	}
	return service.ValidationError("Invalid JSON body: " + err.Error())
}

// FlexString 同时接受 JSON 字符串与数字
type FlexString string

// UnmarshalJSON 实现 json.Unmarshaler
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = FlexString(strings.TrimSpace(text))
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*s = FlexString(number.String())
	return nil
}

// String 去除首尾空白后的文本
func (s FlexString) String() string {
	return strings.TrimSpace(string(s))
}

// Uint 解析为正整数 ID
func (s FlexString) Uint() uint {
	value, err := strconv.ParseUint(s.String(), 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}

// UintPtr 解析为 *uint，空值或无效值为 nil
func (s FlexString) UintPtr() *uint {
	id := s.Uint()
	if id == 0 {
		return nil
	}
	return &id
}

// FlexNumber 同时接受数字与数字字符串
type FlexNumber float64

// UnmarshalJSON 实现 json.Unmarshaler
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			*n = 0
			return nil
		}
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", text)
		}
		*n = FlexNumber(value)
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*n = FlexNumber(value)
	return nil
}

// Float64 原始数值
func (n FlexNumber) Float64() float64 { return float64(n) }

// Int64 四舍五入为整数金额
func (n FlexNumber) Int64() int64 { return int64(math.Round(float64(n))) }

// Int 四舍五入为 int
func (n FlexNumber) Int() int { return int(math.Round(float64(n))) }

// FlexBool 同时接受 true/false、0/1 与对应字符串
type FlexBool bool

// UnmarshalJSON 实现 json.Unmarshaler
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(text) {
	case "true", "1", "yes":
		*b = true
	case "false", "0", "", "null", "no":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q", text)
	}
	return nil
}

// FlexList 接受 JSON 数组，或内容为 JSON 数组的字符串；Present 为 false 表示字段缺失或为 null
type FlexList[T any] struct {
	Items   []T
	Present bool
}

// UnmarshalJSON 实现 json.Unmarshaler
func (l *FlexList[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = FlexList[T]{}
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(text))
		if len(data) == 0 || data[0] != '[' {
			return fmt.Errorf("expected a JSON array, got %q", text)
		}
	}
	items := []T{}
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = FlexList[T]{Items: items, Present: true}
	return nil
}

// FirstNonZero 返回第一个非零数值，全部缺失或为 0 时返回 0
func FirstNonZero(values ...*FlexNumber) FlexNumber {
	for _, value := range values {
		if value != nil && *value != 0 {
			return *value
		}
	}
	return 0
}

// BoolPtr 转为 *bool，nil 表示未提供
func BoolPtr(b *FlexBool) *bool {
	if b == nil {
		return nil
	}
	value := bool(*b)
	return &value
}

// FloatPtr 转为 *float64，nil 表示未提供
func FloatPtr(n *FlexNumber) *float64 {
	if n == nil {
		return nil
	}
	value := float64(*n)
	return &value
}

// Int64Ptr 转为 *int64，nil 表示未提供
func Int64Ptr(n *FlexNumber) *int64 {
	if n == nil {
		return nil
	}
	value := n.Int64()
	return &value
}

// IntPtr 转为 *int，nil 表示未提供
func IntPtr(n *FlexNumber) *int {
	if n == nil {
		return nil
	}
	value := n.Int()
	return &value
}

// StringPtr 转为 *string，nil 表示未提供
func StringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	value := strings.TrimSpace(*s)
	return &value
}

// FirstString 返回第一个非空文本，兼容 camelCase/snake_case 两种字段
func FirstString(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// FirstFlex 返回第一个非空 FlexString
func FirstFlex(values ...FlexString) FlexString {
	for _, value := range values {
		if value.String() != "" {
			return FlexString(value.String())
		}
	}
	return ""
}

// FirstNumber 返回第一个非 nil 的数值
func FirstNumber(values ...*FlexNumber) *FlexNumber {
	for _, value := range values {
		if value != nil {
			return value
		}
	}
	return nil
}

// FirstBool 返回第一个非 nil 的布尔值
func FirstBool(values ...*FlexBool) *FlexBool {
	for _, value := range values {
		if value != nil {
			return value
		}
	}
	return nil
}

// FlexUints 将 ID 列表转为 []uint，忽略无效项
func FlexUints(values []FlexString) []uint {
	ids := make([]uint, 0, len(values))
	for _, value := range values {
		if id := value.Uint(); id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// FlexStrings 将列表转为去空白的 []string
func FlexStrings(values []FlexString) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if text := value.String(); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// QueryInt 读取整数查询参数
func QueryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// QueryUint 读取 ID 查询参数
func QueryUint(c *gin.Context, keys ...string) uint {
	for _, key := range keys {
		if id := FlexString(c.Query(key)).Uint(); id > 0 {
			return id
		}
	}
	return 0
}
