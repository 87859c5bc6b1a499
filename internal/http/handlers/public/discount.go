package public

import (
	"strconv"
	"strings"

	"github.com/shopvd/backoffice/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ValidateDiscount 结账前校验优惠码
func (h *Handler) ValidateDiscount(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Query("code")))
	phone := strings.TrimSpace(c.Query("customerPhone"))
	amount, _ := strconv.ParseFloat(strings.TrimSpace(c.Query("orderAmount")), 64)

	discount, err := h.DiscountService.Validate(c.Request.Context(), code, phone, int64(amount))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"discount": discount})
}
