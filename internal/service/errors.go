package service

import "errors"

// Kind 业务错误分类，决定 HTTP 状态码
type Kind int

const (
	// KindInternal 未分类错误
	KindInternal Kind = iota
	// KindValidation 参数校验失败
	KindValidation
	// KindNotFound 资源不存在
	KindNotFound
	// KindAuth 未登录或会话失效
	KindAuth
	// KindConflict 唯一性冲突
	KindConflict
	// KindForbidden 无权限
	KindForbidden
)

// Error 携带面向用户提示语的业务错误
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// ValidationError 参数校验错误
func ValidationError(message string) *Error { return newError(KindValidation, message) }

// NotFoundError 资源不存在
func NotFoundError(message string) *Error { return newError(KindNotFound, message) }

// AuthError 鉴权失败
func AuthError(message string) *Error { return newError(KindAuth, message) }

// ConflictError 唯一性冲突
func ConflictError(message string) *Error { return newError(KindConflict, message) }

// KindOf 提取错误分类
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// 订单
var (
	ErrOrderCodeRequired      = ValidationError("Thiếu mã đơn hàng")
	ErrOrderCustomerRequired  = ValidationError("Thiếu thông tin khách hàng")
	ErrOrderCartEmpty         = ValidationError("Giỏ hàng trống")
	ErrOrderNotFound          = NotFoundError("Không tìm thấy đơn hàng")
	ErrOrderCodeExists        = ConflictError("Mã đơn hàng đã tồn tại")
	ErrOrderIDRequired        = ValidationError("Thiếu orderId")
	ErrInvalidPhone           = ValidationError("Số điện thoại không hợp lệ")
	ErrCustomerNameRequired   = ValidationError("Tên khách hàng không được để trống")
	ErrAddressTooShort        = ValidationError("Địa chỉ quá ngắn")
	ErrOrderAmountNotPositive = ValidationError("Giá trị đơn hàng phải lớn hơn 0")
	ErrOrderAmountTooLarge    = ValidationError("Giá trị đơn hàng quá lớn")
	ErrOrderStatusInvalid     = ValidationError("Trạng thái không hợp lệ")
	ErrOrderProductsEmpty     = ValidationError("Danh sách sản phẩm trống")
	ErrOrderProductsMissing   = ValidationError("Thiếu orderId hoặc products")
)

// 优惠码
var (
	ErrDiscountCodeRequired    = ValidationError("Vui lòng nhập mã giảm giá")
	ErrDiscountUnavailable     = NotFoundError("Mã giảm giá không tồn tại hoặc đã hết hạn")
	ErrDiscountExpired         = ValidationError("Mã giảm giá đã hết hạn")
	ErrDiscountNotStarted      = ValidationError("Mã giảm giá chưa có hiệu lực")
	ErrDiscountUsageExhausted  = ValidationError("Mã giảm giá đã hết lượt sử dụng")
	ErrDiscountPerCustomer     = ValidationError("Bạn đã sử dụng hết lượt áp dụng mã này")
	ErrDiscountPhoneNotAllowed = ValidationError("Mã giảm giá không áp dụng cho số điện thoại này")
	ErrDiscountNotFound        = NotFoundError("Không tìm thấy mã giảm giá")
	ErrDiscountCodeExists      = ConflictError("Mã giảm giá đã tồn tại")
	ErrDiscountCodeTaken       = ConflictError("Mã giảm giá đã được sử dụng")
	ErrDiscountInUse           = ConflictError("Không thể xóa mã đã được sử dụng. Bạn có thể tạm dừng mã này thay vì xóa.")
	ErrDiscountFieldsRequired  = ValidationError("Thiếu thông tin bắt buộc")
	ErrQuickDiscountFields     = ValidationError("Thiếu thông tin: số điện thoại, loại giảm giá, hoặc giá trị giảm")
	ErrQuickDiscountPhone      = ValidationError("Số điện thoại không hợp lệ (phải có 10 số, bắt đầu bằng 0)")
	ErrQuickDiscountCodeChars  = ValidationError("Mã chỉ được chứa chữ in hoa, số, dấu gạch ngang và gạch dưới")
	ErrQuickDiscountCodeLength = ValidationError("Mã phải có độ dài từ 3-20 ký tự")
	ErrDiscountIDsRequired     = ValidationError("Thiếu danh sách mã giảm giá")
	ErrExpiryDateRequired      = ValidationError("Thiếu ngày hết hạn mới")
	ErrExpiryDateFormat        = ValidationError("Định dạng ngày không hợp lệ (phải là YYYY-MM-DD)")
	ErrExpiryDateNotFuture     = ValidationError("Ngày hết hạn mới phải sau ngày hôm nay")
	ErrDiscountTypeInvalid     = ValidationError("Loại giảm giá không hợp lệ")
)

// CTV
var (
	ErrCTVFieldsRequired   = ValidationError("Thiếu thông tin bắt buộc")
	ErrCTVNotFound         = NotFoundError("Không tìm thấy CTV với mã này")
	ErrReferralRequired    = ValidationError("Thiếu mã CTV")
	ErrCommissionRateRange = ValidationError("Commission rate phải từ 0 đến 1 (0% - 100%)")
	ErrCommissionRequired  = ValidationError("Thiếu commissionRate")
	ErrCTVCodesRequired    = ValidationError("Thiếu danh sách mã CTV")
	ErrPayoutOrdersEmpty   = ValidationError("Không có đơn hàng nào để thanh toán")
	ErrPayoutNothingUnpaid = ValidationError("Các đơn hàng đã được thanh toán hoặc không hợp lệ")
)

// 设置
var (
	ErrPackagingConfigRequired = ValidationError("Config array is required")
	ErrPackagingItemInvalid    = ValidationError("Each config item must have item_name and item_cost")
	ErrTaxRateInvalid          = ValidationError("Invalid tax rate. Must be between 0 and 1 (e.g., 0.015 for 1.5%)")
)

// 商品与分类
var (
	ErrProductNameAndPrice      = ValidationError("Name and price are required")
	ErrProductPriceInvalid      = ValidationError("Invalid price")
	ErrProductSKUExists         = ConflictError("SKU already exists")
	ErrProductNotFound          = NotFoundError("Product not found")
	ErrProductIDRequired        = ValidationError("Product ID is required")
	ErrProductNoFields          = ValidationError("No fields to update")
	ErrProductCategoryIDs       = ValidationError("Product ID and Category ID are required")
	ErrProductCategoryListIDs   = ValidationError("Product ID and category IDs are required")
	ErrProductCategoryExists    = ConflictError("Category already added to this product")
	ErrCategoryIDRequired       = ValidationError("Category ID is required")
	ErrCategoryNameRequired     = ValidationError("Category name is required")
	ErrCategoryNameExists       = ConflictError("Category name already exists")
	ErrCategoryNotFound         = NotFoundError("Category not found")
	ErrMaterialFieldsRequired   = ValidationError("item_name and item_cost are required")
	ErrMaterialExists           = ConflictError("Material already exists")
	ErrMaterialNotFound         = NotFoundError("Material not found")
	ErrMaterialNameRequired     = ValidationError("item_name is required")
	ErrMaterialCostInvalid      = ValidationError("item_cost must be a non-negative number")
	ErrMaterialCategoryFields   = ValidationError("name and display_name are required")
	ErrMaterialCategoryUpdate   = ValidationError("id and name are required")
	ErrMaterialCategoryExists   = ConflictError("Category name already exists")
	ErrMaterialCategoryDup      = ConflictError("Category with this name already exists")
	ErrMaterialCategoryMove     = ValidationError("category_id and direction (up/down) are required")
	ErrMaterialCategoryEdge     = ValidationError("Cannot move further in this direction")
	ErrProductMaterialsRequired = ValidationError("product_id is required")
	ErrProductMaterialsInvalid  = ValidationError("materials must be an array")
)

// 上传与导出
var (
	ErrUploadFileRequired = ValidationError("No file provided")
	ErrUploadTooLarge     = ValidationError("File too large")
	ErrUploadTypeInvalid  = ValidationError("Invalid file type")
	ErrExportIDRequired   = ValidationError("Export ID is required")
	ErrExportNotFound     = NotFoundError("Export not found")
	ErrExportFileMissing  = NotFoundError("File not found in storage")
	ErrExportOrdersEmpty  = ValidationError("Missing required fields")
)

// 地址学习
var (
	ErrAddressLearnFields = ValidationError("Missing required fields")
	ErrNoKeywords         = ValidationError("No keywords extracted")
)

// 认证
var (
	ErrLoginFieldsRequired = ValidationError("Username và password là bắt buộc")
	ErrInvalidCredentials  = AuthError("Tên đăng nhập hoặc mật khẩu không đúng")
	ErrSessionInvalid      = AuthError("Session không hợp lệ hoặc đã hết hạn")
	ErrUnauthorized        = AuthError("Unauthorized")
	ErrPasswordFields      = ValidationError("Vui lòng nhập mật khẩu hiện tại và mật khẩu mới")
	ErrPasswordTooShort    = ValidationError("Mật khẩu mới phải có ít nhất 6 ký tự")
	ErrCurrentPassword     = ValidationError("Mật khẩu hiện tại không đúng")
	ErrForbidden           = newError(KindForbidden, "Bạn không có quyền thực hiện thao tác này")
)
