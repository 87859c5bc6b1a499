package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

func TestFlexTypesAcceptBothSpellings(t *testing.T) {
	var payload struct {
		ID       FlexString  `json:"id"`
		Price    *FlexNumber `json:"price"`
		Priority *FlexBool   `json:"is_priority"`
		Missing  *FlexNumber `json:"missing"`
	}
	if err := json.Unmarshal([]byte(`{"id":42,"price":"120000.4","is_priority":1}`), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.ID.Uint() != 42 || payload.Price.Int64() != 120000 || !bool(*payload.Priority) {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Missing != nil || BoolPtr(nil) != nil {
		t.Fatalf("missing values should stay nil")
	}
	if err := json.Unmarshal([]byte(`{"is_priority":"maybe"}`), &payload); err == nil {
		t.Fatalf("expected invalid boolean error")
	}
}

func TestBindJSONVNPhone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	type request struct {
		Phone string `json:"phone" binding:"omitempty,vnphone"`
	}
	bind := func(body string) error {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		var req request
		return BindJSON(c, &req)
	}

	if err := bind(`{"phone":"0912345678"}`); err != nil {
		t.Fatalf("valid phone rejected: %v", err)
	}
	if err := bind(`{"phone":"12345"}`); err != service.ErrInvalidPhone {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
	if err := bind(``); err != nil {
		t.Fatalf("empty body should bind, got %v", err)
	}
	if err := bind(`{bad`); service.KindOf(err) != service.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFlexListAcceptsArrayOrEncodedString(t *testing.T) {
	type line struct {
		Name string `json:"name"`
	}
	var payload struct {
		Products FlexList[line] `json:"products"`
	}
	decode := func(body string) error {
		payload.Products = FlexList[line]{}
		return json.Unmarshal([]byte(body), &payload)
	}

	if err := decode(`{}`); err != nil || payload.Products.Present {
		t.Fatalf("absent field should not be present: %v %+v", err, payload.Products)
	}
	if err := decode(`{"products":null}`); err != nil || payload.Products.Present {
		t.Fatalf("null should count as absent: %v %+v", err, payload.Products)
	}
	if err := decode(`{"products":[]}`); err != nil || !payload.Products.Present || len(payload.Products.Items) != 0 {
		t.Fatalf("empty array should be present: %v %+v", err, payload.Products)
	}
	if err := decode(`{"products":[{"name":"A"}]}`); err != nil || len(payload.Products.Items) != 1 {
		t.Fatalf("array not decoded: %v %+v", err, payload.Products)
	}
	if err := decode(`{"products":"[{\"name\":\"A\"},{\"name\":\"B\"}]"}`); err != nil || len(payload.Products.Items) != 2 || payload.Products.Items[1].Name != "B" {
		t.Fatalf("encoded string not decoded: %v %+v", err, payload.Products)
	}
	if err := decode(`{"products":"oops"}`); err == nil {
		t.Fatalf("expected error for non-array string")
	}
}

func TestFirstNonZeroFallsThroughZero(t *testing.T) {
	zero, price := FlexNumber(0), FlexNumber(150000)
	if got := FirstNonZero(nil, &zero, &price); got != 150000 {
		t.Fatalf("expected 150000, got %v", got)
	}
	if got := FirstNonZero(nil, &zero); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}
