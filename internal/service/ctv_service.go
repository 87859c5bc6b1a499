package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"

	"gorm.io/gorm"
)

const (
	referralCodePrefix    = "CTV"
	referralCodeLength    = 6
	referralCodeAttempts  = 8
	recentCollabOrders    = 5
	defaultShopPublicURL  = "https://shopvd.store"
	defaultPayoutMethod   = constants.PaymentMethodBankTransfer
	collaboratorDateStamp = "2006-01-02"
)

// CTVService CTV 注册、资料、佣金比例与结算
type CTVService struct {
	transactor *repository.Transactor
	ctvRepo    repository.CTVRepository
	orderRepo  repository.OrderRepository
	costs      *CostService
	dispatcher TaskDispatcher
	publicURL  string
	generateRef func() (string, error)
}

// NewCTVService 创建 CTV 服务
func NewCTVService(
	transactor *repository.Transactor,
	ctvRepo repository.CTVRepository,
	orderRepo repository.OrderRepository,
	costs *CostService,
	dispatcher TaskDispatcher,
	publicURL string,
) *CTVService {
	publicURL = strings.TrimRight(strings.TrimSpace(publicURL), "/")
	if publicURL == "" {
		publicURL = defaultShopPublicURL
	}
	return &CTVService{
		transactor:  transactor,
		ctvRepo:     ctvRepo,
		orderRepo:   orderRepo,
		costs:       costs,
		dispatcher:  dispatcher,
		publicURL:   publicURL,
		generateRef: generateReferralCode,
	}
}

func generateReferralCode() (string, error) {
	suffix, err := randomString(upperAlphaNum, referralCodeLength)
	if err != nil {
		return "", err
	}
	return referralCodePrefix + suffix, nil
}

// CTVInput 注册 / 修改 CTV
type CTVInput struct {
	ReferralCode      string   `json:"referralCode,omitempty"`
	FullName          string   `json:"fullName"`
	Phone             string   `json:"phone"`
	Email             string   `json:"email,omitempty"`
	City              string   `json:"city,omitempty"`
	Age               int      `json:"age,omitempty"`
	Experience        string   `json:"experience,omitempty"`
	BankAccountNumber string   `json:"bankAccountNumber,omitempty"`
	BankName          string   `json:"bankName,omitempty"`
	Status            string   `json:"status,omitempty"`
	CommissionRate    *float64 `json:"commissionRate,omitempty"`
}

// RegisterResult 注册结果
type RegisterResult struct {
	ReferralCode  string `json:"referralCode"`
	ReferralURL   string `json:"referralUrl"`
	OrderCheckURL string `json:"orderCheckUrl"`
}

// CTVVerification 推荐码校验结果
type CTVVerification struct {
	Verified bool           `json:"verified"`
	Name     string         `json:"name,omitempty"`
	Rate     models.Decimal `json:"rate"`
	Phone    string         `json:"phone,omitempty"`
	Status   string         `json:"status,omitempty"`
}

// CollaboratorStats 订单汇总
type CollaboratorStats struct {
	TotalOrders     int64 `json:"totalOrders"`
	TotalRevenue    int64 `json:"totalRevenue"`
	TotalCommission int64 `json:"totalCommission"`
}

// CollaboratorInfo CTV 详情
type CollaboratorInfo struct {
	Collaborator *models.CTV       `json:"collaborator"`
	Stats        CollaboratorStats `json:"stats"`
	RecentOrders []models.Order    `json:"recentOrders"`
}

// CTVListItem 管理端 CTV 列表行
type CTVListItem struct {
	ID                uint           `json:"id"`
	FullName          string         `json:"fullName"`
	Phone             string         `json:"phone"`
	Email             string         `json:"email"`
	City              string         `json:"city"`
	Age               int            `json:"age"`
	BankAccountNumber string         `json:"bankAccountNumber"`
	BankName          string         `json:"bankName"`
	Experience        string         `json:"experience"`
	ReferralCode      string         `json:"referralCode"`
	Status            string         `json:"status"`
	CommissionRate    models.Decimal `json:"commissionRate"`
	Timestamp         int64          `json:"timestamp"`
	HasOrders         bool           `json:"hasOrders"`
	OrderCount        int64          `json:"orderCount"`
	TotalRevenue      int64          `json:"totalRevenue"`
	TotalCommission   int64          `json:"totalCommission"`
}

// CTVSummary 列表页汇总
type CTVSummary struct {
	TotalCTV        int   `json:"totalCTV"`
	ActiveCTV       int   `json:"activeCTV"`
	NewCTV          int64 `json:"newCTV"`
	TotalCommission int64 `json:"totalCommission"`
}

// UnpaidCommission 未结算佣金
type UnpaidCommission struct {
	Orders          []models.Order `json:"orders"`
	OrderCount      int            `json:"orderCount"`
	TotalCommission int64          `json:"totalCommission"`
}

// PayoutInput 结算选中订单
type PayoutInput struct {
	ReferralCode  string
	OrderCodes    []string
	PaymentDate   string
	PaymentMethod string
	Note          string
}

// PayoutResult 结算结果
type PayoutResult struct {
	PaymentID       uint   `json:"payment_id"`
	ReferralCode    string `json:"referral_code"`
	CTVName         string `json:"ctv_name"`
	OrderCount      int    `json:"order_count"`
	TotalCommission int64  `json:"total_commission"`
	PaymentDate     string `json:"payment_date"`
	PaymentMethod   string `json:"payment_method"`
}

func validateRate(rate *float64) error {
	if rate == nil {
		return nil
	}
	if math.IsNaN(*rate) || *rate < 0 || *rate > 1 {
		return ErrCommissionRateRange
	}
	return nil
}

func (s *CTVService) defaultRate() models.Decimal {
	if s.costs == nil {
		return models.NewDecimal(0.1)
	}
	return s.costs.DefaultCommissionRate()
}

// Register 注册新 CTV，生成推荐码并同步表格
func (s *CTVService) Register(ctx context.Context, input CTVInput) (*RegisterResult, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Phone = strings.TrimSpace(input.Phone)
	if input.FullName == "" || input.Phone == "" {
		return nil, ErrCTVFieldsRequired
	}
	if err := validateRate(input.CommissionRate); err != nil {
		return nil, err
	}
	rate := s.defaultRate()
	if input.CommissionRate != nil && *input.CommissionRate > 0 {
		rate = models.NewDecimal(*input.CommissionRate)
	}

	ctv := &models.CTV{
		FullName:          input.FullName,
		Phone:             input.Phone,
		Email:             strings.TrimSpace(input.Email),
		City:              strings.TrimSpace(input.City),
		Age:               input.Age,
		Experience:        strings.TrimSpace(input.Experience),
		BankAccountNumber: strings.TrimSpace(input.BankAccountNumber),
		BankName:          strings.TrimSpace(input.BankName),
		Status:            orDefault(strings.TrimSpace(input.Status), constants.CTVStatusNew),
		CommissionRate:    rate,
	}
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code, err := s.generateRef()
		if err != nil {
			return nil, err
		}
		exists, err := s.ctvRepo.ExistsReferralCode(code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		ctv.ReferralCode = code
		err = s.ctvRepo.Create(ctv)
		if err == nil {
			break
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		ctv.ID = 0
		ctv.ReferralCode = ""
	}
	if ctv.ReferralCode == "" {
		return nil, fmt.Errorf("generate referral code: exhausted %d attempts", referralCodeAttempts)
	}
	logger.FromContext(ctx).Infow("ctv_registered", "referral_code", ctv.ReferralCode, "phone", ctv.Phone)

	if s.dispatcher != nil {
		rateValue := rate.InexactFloat64()
		payload := input
		payload.ReferralCode = ctv.ReferralCode
		payload.CommissionRate = &rateValue
		s.dispatcher.SheetsSync(ctx, constants.SheetsActionRegisterCTV, struct {
			CTVInput
			Timestamp int64 `json:"timestamp"`
		}{payload, time.Now().UnixMilli()})
	}
	return &RegisterResult{
		ReferralCode:  ctv.ReferralCode,
		ReferralURL:   s.publicURL + "/?ref=" + ctv.ReferralCode,
		OrderCheckURL: s.publicURL + "/ctv/?code=" + ctv.ReferralCode,
	}, nil
}

// Verify 快速校验推荐码，不存在时 Verified 为 false
func (s *CTVService) Verify(code string) (*CTVVerification, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ValidationError("Vui lòng nhập mã CTV")
	}
	ctv, err := s.ctvRepo.GetByReferralCode(code)
	if err != nil {
		return nil, err
	}
	if ctv == nil {
		return &CTVVerification{Verified: false}, nil
	}
	return &CTVVerification{
		Verified: true,
		Name:     ctv.FullName,
		Rate:     ctv.CommissionRate,
		Phone:    ctv.Phone,
		Status:   ctv.Status,
	}, nil
}

// Info CTV 详情、订单汇总与最近订单
func (s *CTVService) Info(code string) (*CollaboratorInfo, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ValidationError("Mã CTV không được để trống")
	}
	ctv, err := s.ctvRepo.GetByReferralCode(code)
	if err != nil {
		return nil, err
	}
	if ctv == nil {
		return nil, ErrCTVNotFound
	}
	stats, err := s.ctvRepo.ReferralStatsByCode(ctv.ReferralCode)
	if err != nil {
		return nil, err
	}
	recent, err := s.orderRepo.ListByReferral(ctv.ReferralCode, recentCollabOrders)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.Order{}
	}
	return &CollaboratorInfo{
		Collaborator: ctv,
		Stats: CollaboratorStats{
			TotalOrders:     stats.OrderCount,
			TotalRevenue:    stats.TotalRevenue,
			TotalCommission: stats.TotalCommission,
		},
		RecentOrders: recent,
	}, nil
}

// List 全部 CTV 及其订单汇总
func (s *CTVService) List() ([]CTVListItem, *CTVSummary, error) {
	ctvs, err := s.ctvRepo.List()
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.ctvRepo.ReferralStats()
	if err != nil {
		return nil, nil, err
	}
	byCode := make(map[string]repository.ReferralStatsRow, len(stats))
	for _, row := range stats {
		byCode[strings.ToUpper(strings.TrimSpace(row.ReferralCode))] = row
	}

	monthStart := startOfVNDay(vnNow()).AddDate(0, 0, 1-vnNow().Day())
	newCount, err := s.ctvRepo.CountCreatedSince(monthStart.UnixMilli())
	if err != nil {
		return nil, nil, err
	}

	items := make([]CTVListItem, 0, len(ctvs))
	summary := &CTVSummary{TotalCTV: len(ctvs), NewCTV: newCount}
	for _, ctv := range ctvs {
		row := byCode[strings.ToUpper(strings.TrimSpace(ctv.ReferralCode))]
		item := CTVListItem{
			ID:                ctv.ID,
			FullName:          ctv.FullName,
			Phone:             ctv.Phone,
			Email:             ctv.Email,
			City:              ctv.City,
			Age:               ctv.Age,
			BankAccountNumber: ctv.BankAccountNumber,
			BankName:          ctv.BankName,
			Experience:        ctv.Experience,
			ReferralCode:      ctv.ReferralCode,
			Status:            ctv.Status,
			CommissionRate:    ctv.CommissionRate,
			Timestamp:         ctv.CreatedAtUnix,
			HasOrders:         row.OrderCount > 0,
			OrderCount:        row.OrderCount,
			TotalRevenue:      row.TotalRevenue,
			TotalCommission:   row.TotalCommission,
		}
		if item.HasOrders {
			summary.ActiveCTV++
		}
		summary.TotalCommission += item.TotalCommission
		items = append(items, item)
	}
	return items, summary, nil
}

// Update 修改 CTV 资料
func (s *CTVService) Update(ctx context.Context, input CTVInput) error {
	code := strings.TrimSpace(input.ReferralCode)
	if code == "" {
		return ValidationError("Thiếu referralCode")
	}
	if err := validateRate(input.CommissionRate); err != nil {
		return err
	}
	columns := map[string]interface{}{
		"email":               strings.TrimSpace(input.Email),
		"city":                strings.TrimSpace(input.City),
		"age":                 input.Age,
		"bank_account_number": strings.TrimSpace(input.BankAccountNumber),
		"bank_name":           strings.TrimSpace(input.BankName),
		"status":              orDefault(strings.TrimSpace(input.Status), constants.CTVStatusNew),
	}
	if name := strings.TrimSpace(input.FullName); name != "" {
		columns["full_name"] = name
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		columns["phone"] = phone
	}
	if experience := strings.TrimSpace(input.Experience); experience != "" {
		columns["experience"] = experience
	}
	if input.CommissionRate != nil {
		columns["commission_rate"] = models.NewDecimal(*input.CommissionRate)
	}
	affected, err := s.ctvRepo.UpdateColumns(code, columns)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCTVNotFound
	}
	logger.FromContext(ctx).Infow("ctv_updated", "referral_code", code)
	if s.dispatcher != nil {
		s.dispatcher.SheetsSync(ctx, constants.SheetsActionUpdateCTV, input)
	}
	return nil
}

// UpdateCommission 修改单个 CTV 的佣金比例
func (s *CTVService) UpdateCommission(ctx context.Context, code string, rate *float64) (float64, error) {
	code = strings.TrimSpace(code)
	if code == "" || rate == nil {
		return 0, ValidationError("Thiếu referralCode hoặc commissionRate")
	}
	if err := validateRate(rate); err != nil {
		return 0, err
	}
	affected, err := s.ctvRepo.UpdateColumns(code, map[string]interface{}{"commission_rate": models.NewDecimal(*rate)})
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrCTVNotFound
	}
	logger.FromContext(ctx).Infow("ctv_commission_updated", "referral_code", code, "commission_rate", *rate)
	if s.dispatcher != nil {
		s.dispatcher.SheetsSync(ctx, constants.SheetsActionUpdateCommission, map[string]interface{}{
			"referralCode":   code,
			"commissionRate": *rate,
		})
	}
	return *rate, nil
}

func normalizeCodes(codes []string) []string {
	result := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		result = append(result, code)
	}
	return result
}

// BulkUpdateCommission 批量修改佣金比例，返回更新数量
func (s *CTVService) BulkUpdateCommission(ctx context.Context, codes []string, rate *float64) (int64, error) {
	codes = normalizeCodes(codes)
	if len(codes) == 0 {
		return 0, ErrCTVCodesRequired
	}
	if rate == nil {
		return 0, ErrCommissionRequired
	}
	if err := validateRate(rate); err != nil {
		return 0, err
	}
	updated, err := s.ctvRepo.BulkUpdateRate(codes, models.NewDecimal(*rate))
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Infow("ctv_commission_bulk_updated", "requested", len(codes), "updated", updated, "commission_rate", *rate)
	if s.dispatcher != nil {
		s.dispatcher.SheetsSync(ctx, constants.SheetsActionBulkCommission, map[string]interface{}{
			"referralCodes":  codes,
			"commissionRate": *rate,
		})
	}
	return updated, nil
}

// BulkDelete 批量删除 CTV，历史订单保留推荐码
func (s *CTVService) BulkDelete(ctx context.Context, codes []string) (int64, error) {
	codes = normalizeCodes(codes)
	if len(codes) == 0 {
		return 0, ErrCTVCodesRequired
	}
	deleted, err := s.ctvRepo.BulkDelete(codes)
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Infow("ctv_bulk_deleted", "requested", len(codes), "deleted", deleted)
	if s.dispatcher != nil {
		s.dispatcher.SheetsSync(ctx, constants.SheetsActionBulkDeleteCTV, map[string]interface{}{"referralCodes": codes})
	}
	return deleted, nil
}

// UnpaidOrders 未结算佣金的订单，code 为空返回全部 CTV
func (s *CTVService) UnpaidOrders(code string) (*UnpaidCommission, error) {
	orders, err := s.orderRepo.ListUnpaidCommission(code)
	if err != nil {
		return nil, err
	}
	result := &UnpaidCommission{Orders: orders, OrderCount: len(orders)}
	if result.Orders == nil {
		result.Orders = []models.Order{}
	}
	for _, order := range orders {
		result.TotalCommission += order.Commission
	}
	return result, nil
}

// PaySelected 在一个事务内创建结算单并标记订单
func (s *CTVService) PaySelected(ctx context.Context, input PayoutInput) (*PayoutResult, error) {
	code := strings.TrimSpace(input.ReferralCode)
	if code == "" {
		return nil, ErrReferralRequired
	}
	orderCodes := normalizeCodes(input.OrderCodes)
	if len(orderCodes) == 0 {
		return nil, ErrPayoutOrdersEmpty
	}
	ctv, err := s.ctvRepo.GetByReferralCode(code)
	if err != nil {
		return nil, err
	}
	if ctv == nil {
		return nil, ErrCTVNotFound
	}

	paymentDay := startOfVNDay(vnNow())
	if raw := strings.TrimSpace(input.PaymentDate); raw != "" {
		parsed, err := time.ParseInLocation(collaboratorDateStamp, raw, VNLocation)
		if err != nil {
			return nil, ErrExpiryDateFormat
		}
		paymentDay = parsed
	}
	method := orDefault(strings.TrimSpace(input.PaymentMethod), defaultPayoutMethod)

	selected := make(map[string]struct{}, len(orderCodes))
	for _, orderCode := range orderCodes {
		selected[orderCode] = struct{}{}
	}

	var payment models.CommissionPayment
	err = s.transactor.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		unpaid, err := orderRepo.ListUnpaidCommission(ctv.ReferralCode)
		if err != nil {
			return err
		}
		var codes []string
		var total int64
		for _, order := range unpaid {
			if _, ok := selected[order.OrderCode]; !ok {
				continue
			}
			codes = append(codes, order.OrderCode)
			total += order.Commission
		}
		if len(codes) == 0 {
			return ErrPayoutNothingUnpaid
		}
		payment = models.CommissionPayment{
			ReferralCode:  ctv.ReferralCode,
			Month:         paymentDay.Format("2006-01"),
			Amount:        total,
			OrderCount:    len(codes),
			PaymentDate:   paymentDay.UnixMilli(),
			PaymentMethod: method,
			Note:          strings.TrimSpace(input.Note),
		}
		if err := s.ctvRepo.WithTx(tx).CreatePayment(&payment); err != nil {
			return err
		}
		marked, err := orderRepo.MarkCommissionPaid(ctv.ReferralCode, codes, payment.ID)
		if err != nil {
			return err
		}
		if marked != int64(len(codes)) {
			return ConflictError("Một số đơn hàng đã được thanh toán")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("commission_paid", "referral_code", ctv.ReferralCode, "payment_id", payment.ID, "orders", payment.OrderCount, "amount", payment.Amount)
	return &PayoutResult{
		PaymentID:       payment.ID,
		ReferralCode:    ctv.ReferralCode,
		CTVName:         ctv.FullName,
		OrderCount:      payment.OrderCount,
		TotalCommission: payment.Amount,
		PaymentDate:     paymentDay.Format(collaboratorDateStamp),
		PaymentMethod:   method,
	}, nil
}

// PaymentHistory 结算记录
func (s *CTVService) PaymentHistory(code string) ([]models.CommissionPayment, error) {
	payments, err := s.ctvRepo.ListPayments(code)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []models.CommissionPayment{}
	}
	return payments, nil
}
