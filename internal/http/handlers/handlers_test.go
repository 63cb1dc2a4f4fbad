package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mybenefitsvideos/campaign-backend/internal/service"
)

func testRouter() (*gin.Engine, *Handler) {
	gin.SetMode(gin.TestMode)
	h := &Handler{
		Metrics:   &service.MetricsService{Logger: zerolog.Nop()},
		Decisions: &service.DecisionService{Logger: zerolog.Nop()},
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}
	r := gin.New()
	r.POST("/api/metrics", h.RecordMetric)
	r.PUT("/api/targets", h.SetKPITarget)
	r.POST("/api/recommendations/:id/decisions", h.RecordDecision)
	r.POST("/api/decisions/:id/status", h.UpdateDecisionStatus)
	r.POST("/api/alerts/:id/resolve", h.ResolveAlert)
	return r, h
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecordMetricBadJSON(t *testing.T) {
	r, _ := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/metrics", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRecordMetricMissingName(t *testing.T) {
	r, _ := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/metrics", `{"value": 10, "kind": "gauge"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "VALIDATION_ERROR") {
		t.Fatalf("expected validation error code, got %s", w.Body.String())
	}
}

func TestRecordMetricBadKind(t *testing.T) {
	r, _ := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/metrics", `{"name": "x", "value": 10, "kind": "sparkline"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRecordDecisionMissingRationale(t *testing.T) {
	r, _ := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/recommendations/r1/decisions", `{"decision": "approve"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "VALIDATION_ERROR") {
		t.Fatalf("expected validation error code, got %s", w.Body.String())
	}
}

func TestRecordDecisionUnknownVerdict(t *testing.T) {
	r, _ := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/recommendations/r1/decisions",
		`{"decision": "maybe", "rationale": "sounds promising"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "VALIDATION_ERROR") {
		t.Fatalf("expected validation error code, got %s", w.Body.String())
	}
}

func TestSetKPITargetBadPeriod(t *testing.T) {
	r, _ := testRouter()
	w := doJSON(t, r, http.MethodPut, "/api/targets",
		`{"metric_name": "ga4_sessions", "target_value": 1000, "target_period": "hourly", "alert_threshold": 20}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "VALIDATION_ERROR") {
		t.Fatalf("expected validation error code, got %s", w.Body.String())
	}
}

func TestSetKPITargetBadThreshold(t *testing.T) {
	r, _ := testRouter()
	w := doJSON(t, r, http.MethodPut, "/api/targets",
		`{"metric_name": "ga4_sessions", "target_value": 1000, "target_period": "weekly", "alert_threshold": 120}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpdateDecisionStatusBadID(t *testing.T) {
	r, _ := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/decisions/abc/status", `{"status": "approved"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "BAD_ID") {
		t.Fatalf("expected BAD_ID code, got %s", w.Body.String())
	}
}

func TestResolveAlertBadID(t *testing.T) {
	r, _ := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/alerts/xyz/resolve", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
