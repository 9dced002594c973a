package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/mmdatafocus/gate_entry/workflow"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func errorRouter(err error) *gin.Engine {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { writeError(c, "test", err) })
	return r
}

func TestWriteErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&models.ValidationError{Message: "Vehicle Number is required"}, http.StatusExpectationFailed},
		{fmt.Errorf("save: %w", &models.ValidationError{Message: "x"}), http.StatusExpectationFailed},
		{&models.LinkedReceiptsError{Action: models.LinkedReceiptActionCancel}, http.StatusExpectationFailed},
		{&models.PermissionError{Message: "no"}, http.StatusForbidden},
		{&models.NotFoundError{DocType: "Gate Pass", Name: "GP-1"}, http.StatusNotFound},
		{gorm.ErrRecordNotFound, http.StatusNotFound},
		{utils.ErrorUnauthorized, http.StatusUnauthorized},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		errorRouter(tc.err).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	errorRouter(errors.New("Error 1213: Deadlock found")).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if strings.Contains(w.Body.String(), "Deadlock") {
		t.Fatalf("body leaks the cause: %s", w.Body.String())
	}
}

func TestValidationErrorBody(t *testing.T) {
	w := httptest.NewRecorder()
	errorRouter(&models.ValidationError{Title: "Invalid Quantity", Message: "Received Qty cannot be negative"}).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["title"] != "Invalid Quantity" || body["error"] != "Received Qty cannot be negative" {
		t.Errorf("body = %v", body)
	}
}

func TestGatePassListQueryFilter(t *testing.T) {
	status := 1
	q := gatePassListQuery{DocumentReference: "purchase-order", DocStatus: &status, LinkedTo: "PO-1"}
	filter, ok := q.filter()
	if !ok {
		t.Fatalf("slug should parse")
	}
	if filter.DocumentReference != models.DocumentReferencePurchaseOrder || filter.Limit != 50 || !filter.OrderByLatest {
		t.Errorf("filter = %+v", filter)
	}
	if filter.DocStatus == nil || *filter.DocStatus != models.DocStatusSubmitted {
		t.Errorf("docstatus = %v", filter.DocStatus)
	}

	q = gatePassListQuery{DocumentReference: "Material Request"}
	if _, ok := q.filter(); ok {
		t.Errorf("unknown reference should be rejected")
	}
}

func TestReferenceParamRejectsUnknownDoctype(t *testing.T) {
	r := gin.New()
	r.GET("/api/references/:doctype/:name/received-qty", referenceReceivedQtyHandler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/references/quotation/Q-1/received-qty?item_code=A", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/references/purchase-order/PO-1/received-qty", nil))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "item_code") {
		t.Errorf("missing item_code: %d %s", w.Code, w.Body.String())
	}
}

func TestReportRequiresReadPermission(t *testing.T) {
	r := gin.New()
	r.GET("/r", gateRegisterReportHandler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/r", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d", w.Code)
	}
}

func TestReportRejectsBadFilters(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(utils.SetIsAdminInContext(c.Request.Context(), true))
		c.Next()
	})
	r.GET("/r", pendingGatePassReportHandler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/r?from_date=14-10-2026", nil))
	if w.Code != http.StatusExpectationFailed {
		t.Errorf("status = %d body %s", w.Code, w.Body.String())
	}
}

func pushBody(t *testing.T, msg config.GatePassJobMessage) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	envelope := fmt.Sprintf(`{"message":{"data":%q,"id":"m-1"},"subscription":"s"}`, base64.StdEncoding.EncodeToString(data))
	return bytes.NewReader([]byte(envelope))
}

func TestPubSubHandlerAcksPoisonMessages(t *testing.T) {
	prev := jobProcessor
	jobProcessor = &workflow.JobProcessor{}
	defer func() { jobProcessor = prev }()

	r := gin.New()
	r.POST("/pubsub/gate-pass-jobs", gatePassJobsPubSubHandler())

	bodies := map[string]*bytes.Reader{
		"not json":         bytes.NewReader([]byte("{")),
		"bad payload":      bytes.NewReader([]byte(`{"message":{"data":"bm90IGpzb24=","id":"m-1"}}`)),
		"missing fields":   pushBody(t, config.GatePassJobMessage{Kind: string(models.GatePassJobCreateFromStockEntry)}),
		"unknown job kind": pushBody(t, config.GatePassJobMessage{BusinessId: "biz", StockEntry: "SE-1", Kind: "rebuild"}),
	}
	for name, body := range bodies {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pubsub/gate-pass-jobs", body))
		if w.Code != http.StatusNoContent {
			t.Errorf("%s: status = %d", name, w.Code)
		}
	}
}

func TestPubSubHandlerNotReady(t *testing.T) {
	prev := jobProcessor
	jobProcessor = nil
	defer func() { jobProcessor = prev }()

	r := gin.New()
	r.POST("/p", gatePassJobsPubSubHandler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/p", pushBody(t, config.GatePassJobMessage{BusinessId: "biz"})))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", w.Code)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" https://a.example , ,https://b.example")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("got %v", got)
	}
	if splitAndTrim("  ") != nil {
		t.Errorf("blank list should be nil")
	}
}

func TestExtensionFromMimeType(t *testing.T) {
	if extensionFromMimeType("image/webp") != ".webp" || extensionFromMimeType("application/pdf") != "" {
		t.Errorf("extension mapping mismatch")
	}
}
