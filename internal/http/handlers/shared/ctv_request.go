package shared

import (
	"strings"

	"github.com/shopvd/backoffice/internal/service"
)

// CTVRequest CTV 注册/更新请求
type CTVRequest struct {
	ReferralCode      string      `json:"referralCode"`
	FullName          string      `json:"fullName"`
	Phone             string      `json:"phone"`
	Email             string      `json:"email"`
	City              string      `json:"city"`
	Age               FlexNumber  `json:"age"`
	Experience        string      `json:"experience"`
	BankAccountNumber FlexString  `json:"bankAccountNumber"`
	BankName          string      `json:"bankName"`
	Status            string      `json:"status"`
	CommissionRate    *FlexNumber `json:"commissionRate"`
}

// Normalize 转换为 service 层输入
func (r CTVRequest) Normalize() service.CTVInput {
	return service.CTVInput{
		ReferralCode:      strings.TrimSpace(r.ReferralCode),
		FullName:          strings.TrimSpace(r.FullName),
		Phone:             strings.TrimSpace(r.Phone),
		Email:             strings.TrimSpace(r.Email),
		City:              strings.TrimSpace(r.City),
		Age:               r.Age.Int(),
		Experience:        strings.TrimSpace(r.Experience),
		BankAccountNumber: r.BankAccountNumber.String(),
		BankName:          strings.TrimSpace(r.BankName),
		Status:            strings.TrimSpace(r.Status),
		CommissionRate:    FloatPtr(r.CommissionRate),
	}
}
