package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"

	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *recordingDispatcher, *gorm.DB) {
	t.Helper()
	db := setupServiceTestDB(t)
	dispatcher := &recordingDispatcher{}
	svc := NewOrderService(
		repository.NewTransactor(db),
		repository.NewOrderRepository(db),
		repository.NewCTVRepository(db),
		repository.NewDiscountRepository(db),
		repository.NewProductRepository(db),
		newTestCostService(db),
		dispatcher,
	)
	return svc, dispatcher, db
}

func basicOrderInput(code string) CreateOrderInput {
	return CreateOrderInput{
		OrderCode:   code,
		Customer:    CustomerInput{Name: "Nguyễn Văn A", Phone: "0901234567", Address: "12 Lê Lợi, Quận 1"},
		Cart:        []CartLine{{Name: "A", Price: 100000, Quantity: 2}},
		ShippingFee: 20000,
	}
}

func TestCreateOrderTotalWithoutReferral(t *testing.T) {
	svc, dispatcher, db := setupOrderServiceTest(t)
	ctx := context.Background()

	result, err := svc.CreateOrder(ctx, basicOrderInput("DH001"))
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if result.Commission != 0 {
		t.Fatalf("expected commission 0, got %d", result.Commission)
	}

	var order models.Order
	if err := db.Preload("Items").Where("order_id = ?", "DH001").First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.TotalAmount != 220000 {
		t.Fatalf("expected total 220000, got %d", order.TotalAmount)
	}
	if order.Status != constants.OrderStatusPending || order.PaymentMethod != constants.PaymentMethodCOD {
		t.Fatalf("unexpected defaults: status=%s payment=%s", order.Status, order.PaymentMethod)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", order.Items)
	}
	if order.TaxAmount != 3300 {
		t.Fatalf("expected tax 3300, got %d", order.TaxAmount)
	}
	if len(dispatcher.created) != 1 || dispatcher.created[0] != "DH001" {
		t.Fatalf("expected order created dispatch, got %+v", dispatcher.created)
	}
	if len(dispatcher.sheets) != 1 || dispatcher.sheets[0] != constants.SheetsActionOrder {
		t.Fatalf("expected sheets sync dispatch, got %+v", dispatcher.sheets)
	}
}

func TestCreateOrderTotalInvariantWithDiscount(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	input := basicOrderInput("DH002")
	input.Cart = []CartLine{
		{Name: "Vòng dâu tằm", Price: 150000, Quantity: 1},
		{Name: "Dây đỏ", Price: 35000, Quantity: 3},
	}
	input.DiscountAmount = 15000
	input.TotalAmount = 1

	if _, err := svc.CreateOrder(context.Background(), input); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	var order models.Order
	if err := db.Where("order_id = ?", "DH002").First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	want := int64(150000 + 3*35000 + 20000 - 15000)
	if order.TotalAmount != want {
		t.Fatalf("expected total %d, got %d", want, order.TotalAmount)
	}
}

func TestCreateOrderReferralCommission(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	seedTestCTV(t, db, "CTV001", "0912345678", 0.1)

	input := basicOrderInput("DH003")
	input.ReferralCode = " CTV001 "
	result, err := svc.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if result.Commission != 20000 {
		t.Fatalf("expected commission 20000, got %d", result.Commission)
	}
	var order models.Order
	if err := db.Where("order_id = ?", "DH003").First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.ReferralCode != "CTV001" || order.CTVPhone != "0912345678" {
		t.Fatalf("unexpected referral fields: %s %s", order.ReferralCode, order.CTVPhone)
	}
}

func TestCreateOrderSuppliedCommissionTrusted(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	seedTestCTV(t, db, "CTV001", "0912345678", 0.1)

	commission := int64(5000)
	rate := 0.05
	input := basicOrderInput("DH004")
	input.ReferralCode = "CTV001"
	input.Commission = &commission
	input.CommissionRate = &rate
	result, err := svc.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if result.Commission != 5000 {
		t.Fatalf("expected supplied commission, got %d", result.Commission)
	}
}

func TestCreateOrderUnknownReferralProceeds(t *testing.T) {
	svc, _, _ := setupOrderServiceTest(t)
	input := basicOrderInput("DH005")
	input.ReferralCode = "NOPE"
	result, err := svc.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if result.Commission != 0 {
		t.Fatalf("expected commission 0, got %d", result.Commission)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _ := setupOrderServiceTest(t)
	ctx := context.Background()

	input := basicOrderInput("")
	if _, err := svc.CreateOrder(ctx, input); !errors.Is(err, ErrOrderCodeRequired) {
		t.Fatalf("expected ErrOrderCodeRequired, got %v", err)
	}
	input = basicOrderInput("DH006")
	input.Customer.Phone = ""
	if _, err := svc.CreateOrder(ctx, input); !errors.Is(err, ErrOrderCustomerRequired) {
		t.Fatalf("expected ErrOrderCustomerRequired, got %v", err)
	}
	input = basicOrderInput("DH006")
	input.Cart = nil
	if _, err := svc.CreateOrder(ctx, input); !errors.Is(err, ErrOrderCartEmpty) {
		t.Fatalf("expected ErrOrderCartEmpty, got %v", err)
	}
	if _, err := svc.CreateOrder(ctx, basicOrderInput("DH006")); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := svc.CreateOrder(ctx, basicOrderInput("DH006")); !errors.Is(err, ErrOrderCodeExists) {
		t.Fatalf("expected ErrOrderCodeExists, got %v", err)
	}
}

func TestCreateOrderResolvesMissingCost(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	product := &models.Product{Name: "A", Price: 100000, CostPrice: 40000, IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if _, err := svc.CreateOrder(context.Background(), basicOrderInput("DH007")); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	var order models.Order
	if err := db.Preload("Items").Where("order_id = ?", "DH007").First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.ProductCost != 80000 {
		t.Fatalf("expected product cost 80000, got %d", order.ProductCost)
	}
	if order.Items[0].ProductID == nil || *order.Items[0].ProductID != product.ID {
		t.Fatalf("expected product id resolved by name, got %+v", order.Items[0].ProductID)
	}
}

func TestCreateOrderSnapshotsPackaging(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	category := uint(5)
	rows := []models.CostConfig{
		{ItemName: "bag_zip", DisplayName: "Túi zip", ItemCost: models.NewDecimal(500), CategoryID: &category, IsDefault: true},
		{ItemName: "thank_card", DisplayName: "Thiệp cảm ơn", ItemCost: models.NewDecimal(300), CategoryID: &category, IsDefault: true},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed cost config failed: %v", err)
	}
	if _, err := svc.CreateOrder(context.Background(), basicOrderInput("DH008")); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	var order models.Order
	if err := db.Where("order_id = ?", "DH008").First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.PackagingCost != 800 || len(order.PackagingDetails.Items) != 2 {
		t.Fatalf("unexpected packaging snapshot: %d %+v", order.PackagingCost, order.PackagingDetails)
	}
}

func TestCreateOrderRedeemsDiscountWithinCap(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	discount := &models.Discount{
		Code:               "SALE10",
		Type:               constants.DiscountTypeFixed,
		DiscountValue:      10000,
		MaxTotalUses:       1,
		MaxUsesPerCustomer: 1,
		Active:             true,
	}
	if err := db.Create(discount).Error; err != nil {
		t.Fatalf("create discount failed: %v", err)
	}
	ctx := context.Background()

	input := basicOrderInput("DH009")
	input.DiscountCode = "sale10"
	input.DiscountAmount = 10000
	if _, err := svc.CreateOrder(ctx, input); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	var reloaded models.Discount
	if err := db.First(&reloaded, discount.ID).Error; err != nil {
		t.Fatalf("reload discount failed: %v", err)
	}
	if reloaded.UsageCount != 1 || reloaded.TotalDiscountAmount != 10000 {
		t.Fatalf("unexpected usage counters: %+v", reloaded)
	}
	var usage models.DiscountUsage
	if err := db.Where("order_id = ?", "DH009").First(&usage).Error; err != nil {
		t.Fatalf("load usage failed: %v", err)
	}
	if usage.OrderAmount != 210000 {
		t.Fatalf("expected usage order amount 210000, got %d", usage.OrderAmount)
	}

	second := basicOrderInput("DH010")
	second.Customer.Phone = "0987654321"
	second.DiscountCode = "SALE10"
	second.DiscountAmount = 10000
	if _, err := svc.CreateOrder(ctx, second); !errors.Is(err, ErrDiscountUsageExhausted) {
		t.Fatalf("expected ErrDiscountUsageExhausted, got %v", err)
	}
	var count int64
	db.Model(&models.Order{}).Where("order_id = ?", "DH010").Count(&count)
	if count != 0 {
		t.Fatalf("expected rolled back order, found %d", count)
	}
}

func TestUpdateProductsRecomputesTotals(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	seedTestCTV(t, db, "CTV001", "0912345678", 0.1)
	ctx := context.Background()
	input := basicOrderInput("DH011")
	input.ReferralCode = "CTV001"
	input.DiscountAmount = 5000
	if _, err := svc.CreateOrder(ctx, input); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	result, err := svc.UpdateProducts(ctx, "DH011", []ProductLineInput{
		{Name: "B", Price: 50000, CostPrice: 20000, Quantity: 3},
		{Name: "C", Price: 10000, Quantity: 0},
	})
	if err != nil {
		t.Fatalf("update products failed: %v", err)
	}
	if result.TotalAmount != 160000+20000-5000 {
		t.Fatalf("unexpected total %d", result.TotalAmount)
	}
	if result.ProductCost != 60000 {
		t.Fatalf("unexpected product cost %d", result.ProductCost)
	}
	if result.Commission == nil || *result.Commission != 16000 {
		t.Fatalf("unexpected commission %+v", result.Commission)
	}

	var order models.Order
	if err := db.Preload("Items").Where("order_id = ?", "DH011").First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.TotalAmount != result.TotalAmount || order.Commission != 16000 || len(order.Items) != 2 {
		t.Fatalf("order not updated: %+v", order)
	}
}

func TestUpdateProductsWithoutReferralLeavesCommissionNil(t *testing.T) {
	svc, _, _ := setupOrderServiceTest(t)
	ctx := context.Background()
	if _, err := svc.CreateOrder(ctx, basicOrderInput("DH012")); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	result, err := svc.UpdateProducts(ctx, "DH012", []ProductLineInput{{Name: "B", Price: 1000, Quantity: 1}})
	if err != nil {
		t.Fatalf("update products failed: %v", err)
	}
	if result.Commission != nil {
		t.Fatalf("expected nil commission, got %d", *result.Commission)
	}
	if _, err := svc.UpdateProducts(ctx, "missing", []ProductLineInput{}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestUpdateAmountBounds(t *testing.T) {
	svc, _, _ := setupOrderServiceTest(t)
	ctx := context.Background()
	if _, err := svc.CreateOrder(ctx, basicOrderInput("DH013")); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	zero := int64(0)
	if err := svc.UpdateAmount(ctx, "DH013", &zero, nil); !errors.Is(err, ErrOrderAmountNotPositive) {
		t.Fatalf("expected ErrOrderAmountNotPositive, got %v", err)
	}
	huge := int64(constants.MaxOrderAmount + 1)
	if err := svc.UpdateAmount(ctx, "DH013", &huge, nil); !errors.Is(err, ErrOrderAmountTooLarge) {
		t.Fatalf("expected ErrOrderAmountTooLarge, got %v", err)
	}
	limit := int64(constants.MaxOrderAmount)
	if err := svc.UpdateAmount(ctx, "DH013", &limit, nil); err != nil {
		t.Fatalf("expected max amount accepted, got %v", err)
	}
	if err := svc.UpdateAmount(ctx, "DH013", nil, nil); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error for missing amount, got %v", err)
	}
}

func TestUpdateCustomerInfoPhone(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	ctx := context.Background()
	if _, err := svc.CreateOrder(ctx, basicOrderInput("DH014")); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	for _, phone := range []string{"901234567", "09012345678", "1901234567", "09a1234567"} {
		if err := svc.UpdateCustomerInfo(ctx, "DH014", "Lê C", phone); !errors.Is(err, ErrInvalidPhone) {
			t.Fatalf("phone %q: expected ErrInvalidPhone, got %v", phone, err)
		}
	}
	if err := svc.UpdateCustomerInfo(ctx, "DH014", "Lê C", "0987654321"); err != nil {
		t.Fatalf("update customer failed: %v", err)
	}
	var order models.Order
	db.Where("order_id = ?", "DH014").First(&order)
	if order.CustomerName != "Lê C" || order.CustomerPhone != "0987654321" {
		t.Fatalf("customer not updated: %+v", order)
	}
}

func TestOrderMutations(t *testing.T) {
	svc, dispatcher, db := setupOrderServiceTest(t)
	ctx := context.Background()
	if _, err := svc.CreateOrder(ctx, basicOrderInput("DH015")); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := svc.UpdateAddress(ctx, "DH015", AddressInput{Address: "ngắn"}); !errors.Is(err, ErrAddressTooShort) {
		t.Fatalf("expected ErrAddressTooShort, got %v", err)
	}
	if err := svc.UpdateAddress(ctx, "DH015", AddressInput{Address: "45 Trần Hưng Đạo, Hoàn Kiếm", WardName: "Phan Chu Trinh"}); err != nil {
		t.Fatalf("update address failed: %v", err)
	}
	if err := svc.UpdateStatus(ctx, "DH015", "lost"); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid, got %v", err)
	}
	if err := svc.UpdateStatus(ctx, "DH015", constants.OrderStatusShipped); err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if len(dispatcher.statusChanges) != 1 || dispatcher.statusChanges[0] != "DH015:pending->shipped" {
		t.Fatalf("unexpected status dispatch: %+v", dispatcher.statusChanges)
	}
	priority, err := svc.TogglePriority(ctx, "DH015", nil)
	if err != nil || !priority {
		t.Fatalf("expected priority flip to true, got %v %v", priority, err)
	}
	off := false
	priority, err = svc.TogglePriority(ctx, "DH015", &off)
	if err != nil || priority {
		t.Fatalf("expected explicit false, got %v %v", priority, err)
	}
	if err := svc.UpdateNotes(ctx, "DH015", "giao giờ hành chính"); err != nil {
		t.Fatalf("update notes failed: %v", err)
	}

	var order models.Order
	db.Where("order_id = ?", "DH015").First(&order)
	if order.WardName != "Phan Chu Trinh" || order.Status != constants.OrderStatusShipped || order.Notes != "giao giờ hành chính" {
		t.Fatalf("unexpected order state: %+v", order)
	}

	if err := svc.DeleteOrder(ctx, "DH015"); err != nil {
		t.Fatalf("delete order failed: %v", err)
	}
	var items int64
	db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&items)
	if items != 0 {
		t.Fatalf("expected items removed, got %d", items)
	}
	if err := svc.UpdateNotes(ctx, "DH015", "x"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestListByCTVPhone(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	seedTestCTV(t, db, "CTV001", "0912345678", 0.1)
	ctx := context.Background()
	input := basicOrderInput("DH016")
	input.ReferralCode = "CTV001"
	if _, err := svc.CreateOrder(ctx, input); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	result, err := svc.ListByCTVPhone("912345678")
	if err != nil {
		t.Fatalf("list by phone failed: %v", err)
	}
	if len(result.Orders) != 1 || result.ReferralCode != "CTV001" || result.CTVInfo.Address != "Hà Nội" {
		t.Fatalf("unexpected result: %+v", result)
	}

	missing, err := svc.ListByCTVPhone("0999999999")
	if err != nil {
		t.Fatalf("list by phone failed: %v", err)
	}
	if len(missing.Orders) != 0 || missing.CTVInfo.Name != "Không tìm thấy" {
		t.Fatalf("unexpected missing result: %+v", missing)
	}
}

func TestCreateOrderSkipsInactiveOrExpiredDiscount(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	past := time.Now().Add(-48 * time.Hour)
	discounts := []*models.Discount{
		{Code: "PAUSED", Type: constants.DiscountTypeFixed, DiscountValue: 10000, MaxTotalUses: 5},
		{Code: "OLD", Type: constants.DiscountTypeFixed, DiscountValue: 10000, MaxTotalUses: 5, Active: true, ExpiryDate: &past},
	}
	for _, d := range discounts {
		if err := db.Create(d).Error; err != nil {
			t.Fatalf("create discount failed: %v", err)
		}
	}
	ctx := context.Background()

	for i, d := range discounts {
		input := basicOrderInput(fmt.Sprintf("DH10%d", i))
		input.DiscountCode = d.Code
		input.DiscountAmount = 10000
		if _, err := svc.CreateOrder(ctx, input); err != nil {
			t.Fatalf("create order with %s failed: %v", d.Code, err)
		}
		var reloaded models.Discount
		if err := db.First(&reloaded, d.ID).Error; err != nil {
			t.Fatalf("reload discount failed: %v", err)
		}
		if reloaded.UsageCount != 0 || reloaded.TotalDiscountAmount != 0 {
			t.Fatalf("%s should not be redeemed: %+v", d.Code, reloaded)
		}
		var usages int64
		db.Model(&models.DiscountUsage{}).Where("discount_code = ?", d.Code).Count(&usages)
		if usages != 0 {
			t.Fatalf("%s should have no usage rows, found %d", d.Code, usages)
		}
	}
}
