package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/models"

	"github.com/xuri/excelize/v2"
)

// SheetName SPX 导入模板的工作表名
const SheetName = "Tạo đơn"

// ContentType xlsx MIME
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type column struct {
	title string
	width float64
	value func(o *models.Order) interface{}
}

var spxColumns = []column{
	{"*Mã đơn hàng", 15, func(o *models.Order) interface{} { return o.OrderCode }},
	{"*Tên người nhận", 20, func(o *models.Order) interface{} { return o.CustomerName }},
	{"*Số điện thoại", 12, func(o *models.Order) interface{} { return o.CustomerPhone }},
	{"*Tỉnh/Thành Phố", 18, func(o *models.Order) interface{} { return o.ProvinceName }},
	{"*Quận/Huyện", 18, func(o *models.Order) interface{} { return o.DistrictName }},
	{"*Xã/Phường", 18, func(o *models.Order) interface{} { return o.WardName }},
	{"*Địa chỉ chi tiết", 30, detailAddress},
	{"Lưu ý về địa chỉ", 15, blank},
	{"Mã bưu chính", 12, blank},
	{"*Tên sản phẩm", 25, func(o *models.Order) interface{} { return ProductLine(o) }},
	{"Số lượng (Thông tin bắt buộc khi chọn Giao hàng một phần & Thu COD)", 10, blank},
	{"Giá tiền (Thông tin bắt buộc khi chọn Giao hàng một phần & Thu COD)", 12, blank},
	{"*Tổng cân nặng bưu gửi (KG)", 12, constant(0.5)},
	{"Chiều dài (CM)", 10, constant(15)},
	{"Chiều rộng (CM)", 10, constant(10)},
	{"Chiều cao (CM)", 10, constant(5)},
	{"Mã khách hàng", 12, blank},
	{"*Giá trị đơn hàng", 12, func(o *models.Order) interface{} { return o.TotalAmount }},
	{"*Giao hàng một phần (Y/N)", 12, constant("N")},
	{"*Cho phép thử hàng (Y/N)", 12, constant("Y")},
	{"*Cho xem hàng, không cho thử (Y/N)", 12, constant("Y")},
	{"Thu phí từ chối nhận hàng (Y/N)", 12, blank},
	{"Phí từ chối nhận hàng cần thu", 12, blank},
	{"*Thu COD (Y/N)", 10, constant("Y")},
	{"Số tiền COD", 12, func(o *models.Order) interface{} { return o.TotalAmount }},
	{"bưu gửi giá trị cao (Y/N)", 12, blank},
	{"*Hình thức thanh Toán", 15, constant("Người gửi trả")},
	{"Lưu ý giao hàng", 20, blank},
	{"Nhắc nhở điền đúng số tiền COD", 15, blank},
	{"Đơn chỉ hoàn thành nếu ở dưới hiện \"Đủ điều kiện\"", 15, blank},
}

func blank(*models.Order) interface{} { return "" }

func constant(v interface{}) func(*models.Order) interface{} {
	return func(*models.Order) interface{} { return v }
}

func detailAddress(o *models.Order) interface{} {
	if street := strings.TrimSpace(o.StreetAddress); street != "" {
		return street
	}
	return strings.TrimSpace(o.Address)
}

// ProductLine 把订单商品拼成一行：[名称 - Số lượng: n - Lưu ý: x] ----- ...
func ProductLine(o *models.Order) string {
	if len(o.Items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(o.Items)+1)
	for _, item := range o.Items {
		line := fmt.Sprintf("%s - Số lượng: %d", item.ProductName, item.Quantity)
		if notes := strings.TrimSpace(item.Notes); notes != "" {
			line += " - Lưu ý: " + notes
		}
		lines = append(lines, "["+line+"]")
	}
	text := strings.Join(lines, " ----- ")
	if notes := strings.TrimSpace(o.Notes); notes != "" {
		text += " ----- Lưu ý tổng: " + notes
	}
	return text
}

// FileName SPX_DonHang_YYYYMMDD_Ndon.xlsx
func FileName(now time.Time, count int) string {
	return fmt.Sprintf("SPX_DonHang_%s_%ddon.xlsx", now.Format("20060102"), count)
}

// BuildSPXWorkbook 生成 SPX 批量建单文件，每个订单一行
func BuildSPXWorkbook(orders []models.Order) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	for i, col := range spxColumns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, name, name, col.width); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, name+"1", col.title); err != nil {
			return nil, err
		}
	}

	for r := range orders {
		order := &orders[r]
		row := make([]interface{}, len(spxColumns))
		for i, col := range spxColumns {
			row[i] = col.value(order)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}
