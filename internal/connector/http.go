package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
)

// HTTPConnector pulls metrics from a platform's export endpoint. Requests
// are rate limited per connector so a short measure window cannot hammer
// the upstream API.
type HTTPConnector struct {
	Source      string
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	Client      *http.Client

	mu        sync.Mutex
	lastReqAt time.Time
}

type exportedMetric struct {
	Timestamp  time.Time         `json:"timestamp"`
	Name       string            `json:"name"`
	Value      float64           `json:"value"`
	Kind       string            `json:"kind"`
	Dimensions map[string]string `json:"dimensions"`
}

func (c *HTTPConnector) Name() string { return c.Source }

func (c *HTTPConnector) FetchMetrics(ctx context.Context, start, end time.Time) ([]models.Metric, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if c.UserAgent == "" {
		c.UserAgent = "campaign-backend"
	}
	if c.MinInterval <= 0 {
		c.MinInterval = time.Second
	}

	c.mu.Lock()
	sleepFor := time.Until(c.lastReqAt.Add(c.MinInterval))
	if sleepFor > 0 {
		c.mu.Unlock()
		time.Sleep(sleepFor)
		c.mu.Lock()
	}
	c.lastReqAt = time.Now()
	c.mu.Unlock()

	endpoint := fmt.Sprintf("%s/metrics?start=%s&end=%s", c.BaseURL,
		url.QueryEscape(start.Format(time.RFC3339)), url.QueryEscape(end.Format(time.RFC3339)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &CollectionError{Source: c.Source, Err: err}
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, &CollectionError{Source: c.Source, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &CollectionError{Source: c.Source, Err: fmt.Errorf("http error: %s", resp.Status)}
	}

	var items []exportedMetric
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, &CollectionError{Source: c.Source, Err: err}
	}

	out := make([]models.Metric, 0, len(items))
	for _, it := range items {
		kind := models.MetricKind(it.Kind)
		if !models.ValidMetricKind(kind) {
			kind = models.KindGauge
		}
		ts := it.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		out = append(out, models.Metric{
			Timestamp:  ts,
			Name:       it.Name,
			Value:      it.Value,
			Kind:       kind,
			Source:     c.Source,
			Dimensions: it.Dimensions,
		})
	}
	return out, nil
}
