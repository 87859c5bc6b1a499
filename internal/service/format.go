package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// VNLocation 越南时区（UTC+7，无夏令时）
var VNLocation = time.FixedZone("ICT", 7*60*60)

var (
	vnPhonePattern  = regexp.MustCompile(`^0\d{9}$`)
	vnNumberPrinter = message.NewPrinter(language.Vietnamese)
)

// IsValidVNPhone 10 位、以 0 开头
func IsValidVNPhone(phone string) bool {
	return vnPhonePattern.MatchString(strings.TrimSpace(phone))
}

// FormatNumber 越南格式的千分位数字，如 220.000
func FormatNumber(n int64) string {
	return vnNumberPrinter.Sprintf("%d", n)
}

// FormatVND 金额加 đ 后缀
func FormatVND(n int64) string {
	return FormatNumber(n) + "đ"
}

func vnNow() time.Time {
	return time.Now().In(VNLocation)
}

func startOfVNDay(t time.Time) time.Time {
	local := t.In(VNLocation)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, VNLocation)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// round1 保留 1 位小数
func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// round2 保留 2 位小数
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// roundDiv 四舍五入的整数除法，除数为 0 返回 0
func roundDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return decimal.NewFromInt(a).Div(decimal.NewFromInt(b)).Round(0).IntPart()
}
