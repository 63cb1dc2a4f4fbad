package connector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
)

func TestHTTPConnectorFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("start") == "" || r.URL.Query().Get("end") == "" {
			t.Fatalf("expected start and end query params, got %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name": "ga4_sessions", "value": 1200, "kind": "gauge"},
			{"name": "funnel_landing_page_views", "value": 900, "kind": "counter"},
			{"name": "mystery_metric", "value": 7, "kind": "sparkline"}
		]`))
	}))
	defer srv.Close()

	c := &HTTPConnector{Source: "ga4", BaseURL: srv.URL, MinInterval: time.Millisecond}
	metrics, err := c.FetchMetrics(context.Background(), time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(metrics) != 3 {
		t.Fatalf("expected 3 metrics, got %d", len(metrics))
	}
	if metrics[0].Source != "ga4" {
		t.Fatalf("source should be stamped by the connector, got %s", metrics[0].Source)
	}
	if metrics[2].Kind != models.KindGauge {
		t.Fatalf("unrecognized kind should fall back to gauge, got %s", metrics[2].Kind)
	}
	if metrics[0].Timestamp.IsZero() {
		t.Fatalf("missing timestamp should be filled in")
	}
}

func TestHTTPConnectorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &HTTPConnector{Source: "crm", BaseURL: srv.URL, MinInterval: time.Millisecond}
	_, err := c.FetchMetrics(context.Background(), time.Now().Add(-time.Hour), time.Now())
	if err == nil {
		t.Fatalf("expected error on 502")
	}
	var collErr *CollectionError
	if !errors.As(err, &collErr) || collErr.Source != "crm" {
		t.Fatalf("expected CollectionError tagged with crm, got %v", err)
	}
}
