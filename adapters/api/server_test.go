package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goexp/app"
	"goexp/internal/config"
	"goexp/internal/errors"
	"goexp/internal/metrics"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.GinMode = "test"
	logger, _ := logtest.NewNullLogger()
	m := metrics.NewMetrics()
	return NewServer(cfg, app.NewExperimentService(logger, m, 1), logger, m)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)
	const id = "0190a6a4-7c1e-7b3a-9c2d-1a2b3c4d5e6f"

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, id)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(requestIDHeader))
}

func TestRateSampleSize(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/conversion/sample-size", map[string]any{
		"current_rate":   5,
		"daily_visitors": 1000,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[rateSampleSizeResponse](t, rec)
	assert.Equal(t, 31234, body.VisitorsPerVariant)
	assert.Equal(t, 62468, body.TotalVisitors)
	assert.InDelta(t, 0.05, body.CurrentRate, 1e-12, "percent input is normalized")
	assert.InDelta(t, 0.055, body.ExpectedRate, 1e-12)
	assert.Equal(t, 95.0, body.Confidence)
	assert.Equal(t, 80.0, body.Power)
	require.NotNil(t, body.TestDurationDays)
	assert.Equal(t, 63, *body.TestDurationDays)
}

func TestRateSampleSize_DurationOmittedWithoutTraffic(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/conversion/sample-size", map[string]any{"current_rate": 0.05})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"test_duration_days":null`)
}

func TestRateAnalyze(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/conversion/analyze", map[string]any{
		"control_visitors":    10000,
		"control_conversions": 500,
		"variant_visitors":    10000,
		"variant_conversions": 600,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[rateAnalyzeResponse](t, rec)
	assert.InDelta(t, 0.05, body.ControlRate, 1e-12)
	assert.InDelta(t, 0.06, body.VariantRate, 1e-12)
	assert.InDelta(t, 3.101614, body.ZStatistic, 1e-5)
	assert.InDelta(t, 0.00192469, body.PValue, 1e-7)
	assert.True(t, body.IsSignificant)
	assert.Equal(t, "variant", body.Winner)
	assert.Less(t, body.ConfidenceInterval[0], body.ConfidenceInterval[1])
	assert.Contains(t, body.Recommendation, "significantly higher")
}

func TestRateAnalyze_Rejections(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{
			name: "missing conversions",
			body: map[string]any{"control_visitors": 100, "variant_visitors": 100, "variant_conversions": 5},
			code: errors.CodeValidationError,
		},
		{
			name: "confidence outside configured bounds",
			body: map[string]any{"control_visitors": 100, "control_conversions": 5, "variant_visitors": 100, "variant_conversions": 6, "confidence": 50},
			code: errors.CodeValidationError,
		},
		{
			name: "conversions exceed visitors",
			body: map[string]any{"control_visitors": 100, "control_conversions": 101, "variant_visitors": 100, "variant_conversions": 6},
			code: errors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/conversion/analyze", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[errorResponse](t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Detail)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestRateAnalyze_ZeroConversionsAllowed(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/conversion/analyze", map[string]any{
		"control_visitors": 100, "control_conversions": 0,
		"variant_visitors": 100, "variant_conversions": 0,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[rateAnalyzeResponse](t, rec)
	assert.Equal(t, 1.0, body.PValue)
	assert.Equal(t, "no winner yet", body.Winner)
}

func threeRateArms() []map[string]any {
	return []map[string]any{
		{"name": "control", "visitors": 10000, "conversions": 500},
		{"name": "a", "visitors": 10000, "conversions": 550},
		{"name": "b", "visitors": 10000, "conversions": 600},
	}
}

func TestRateAnalyzeMulti(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/conversion/analyze-multi", map[string]any{"variants": threeRateArms()})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[rateMultiAnalyzeResponse](t, rec)
	assert.InDelta(t, 9.62001, body.TestStatistic, 1e-4)
	assert.InDelta(t, 0.00814782, body.PValue, 1e-6)
	assert.Equal(t, 2, body.DegreesOfFreedom)
	assert.True(t, body.IsSignificant)
	assert.Equal(t, "bonferroni", body.Correction)
	assert.Equal(t, "b", body.BestVariant)
	assert.Equal(t, "control", body.WorstVariant)
	require.Len(t, body.Variants, 3)
	require.Len(t, body.PairwiseComparisons, 3)
	for _, p := range body.PairwiseComparisons {
		assert.GreaterOrEqual(t, p.PValueAdjusted, p.PValue)
	}
}

func TestRateAnalyzeMulti_Rejections(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/conversion/analyze-multi", map[string]any{
		"variants": threeRateArms(), "correction": "holm",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/conversion/analyze-multi", map[string]any{
		"variants": threeRateArms()[:1],
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	many := make([]map[string]any, 11)
	for i := range many {
		many[i] = map[string]any{"name": string(rune('a' + i)), "visitors": 100, "conversions": 5}
	}
	rec = do(t, s, http.MethodPost, "/api/conversion/analyze-multi", map[string]any{"variants": many})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Detail, "between 2 and 10")
}

func TestRateSummaries(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/conversion/analyze/summary", map[string]any{
		"control_visitors": 10000, "control_conversions": 500,
		"variant_visitors": 10000, "variant_conversions": 600,
		"test_name": "Checkout",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, markdownContentType, rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "## Checkout Results"))

	rec = do(t, s, http.MethodPost, "/api/conversion/analyze-multi/summary", map[string]any{"variants": threeRateArms()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "| b (best) |")

	rec = do(t, s, http.MethodPost, "/api/conversion/sample-size/summary", map[string]any{"current_rate": 0.05, "daily_visitors": 1000})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "(63 days)")
}

func TestRateInterval(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/conversion/confidence-interval", map[string]any{"visitors": 1000, "conversions": 50})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[rateIntervalResponse](t, rec)
	assert.InDelta(t, 0.05, body.Rate, 1e-12)
	assert.InDelta(t, 0.0381303, body.Lower, 1e-6)
	assert.Greater(t, body.Upper, body.Rate)
}

func TestMagnitudeSampleSize(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/numeric/sample-size", map[string]any{"current_mean": 50, "current_std": 15})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[magnitudeSampleSizeResponse](t, rec)
	assert.Equal(t, 566, body.VisitorsPerVariant)
	assert.InDelta(t, 52.5, body.ExpectedMean, 1e-12)
	assert.Equal(t, 15.0, body.StandardDeviation)

	rec = do(t, s, http.MethodPost, "/api/numeric/sample-size", map[string]any{"current_mean": 50, "current_std": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSampleSize_UnplannableRequestsRejected(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		body map[string]any
	}{
		{"rate lift too small", "/api/conversion/sample-size", map[string]any{"current_rate": 0.05, "lift_percent": 1e-9}},
		{"magnitude spread too large", "/api/numeric/sample-size", map[string]any{"current_mean": 50, "current_std": 1e12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode[errorResponse](t, rec)
			assert.Equal(t, errors.CodeInvalidInput, body.Code)
			assert.Contains(t, body.Detail, "sample size is too large")
		})
	}
}

func TestMagnitudeAnalyze(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/numeric/analyze", map[string]any{
		"control_visitors": 500, "control_mean": 50, "control_std": 15,
		"variant_visitors": 500, "variant_mean": 55, "variant_std": 15,
		"currency": "€",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[magnitudeAnalyzeResponse](t, rec)
	assert.True(t, body.IsSignificant)
	assert.Equal(t, "variant", body.Winner)
	assert.InDelta(t, 10, body.LiftPercent, 1e-9)
	assert.InDelta(t, 998, body.DegreesOfFreedom, 1e-6)
	assert.Contains(t, body.Recommendation, "€55.00")
}

func TestMagnitudeAnalyzeMulti(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/numeric/analyze-multi", map[string]any{
		"variants": []map[string]any{
			{"name": "control", "visitors": 500, "mean": 50, "std": 15},
			{"name": "a", "visitors": 500, "mean": 52, "std": 15},
			{"name": "b", "visitors": 500, "mean": 55, "std": 15},
		},
		"correction": "none",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[magnitudeMultiAnalyzeResponse](t, rec)
	assert.InDelta(t, 14.074074, body.FStatistic, 1e-5)
	assert.Equal(t, 2, body.DFBetween)
	assert.Equal(t, 1497, body.DFWithin)
	assert.Equal(t, "none", body.Correction)
	assert.Equal(t, "b", body.BestVariant)
	for _, p := range body.PairwiseComparisons {
		assert.Equal(t, p.PValue, p.PValueAdjusted)
	}

	rec = do(t, s, http.MethodPost, "/api/numeric/analyze-multi/summary", map[string]any{
		"variants": []map[string]any{
			{"name": "control", "visitors": 500, "mean": 50, "std": 15},
			{"name": "b", "visitors": 500, "mean": 55, "std": 15},
		},
		"metric_name": "Basket Size",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "### Overall Test (ANOVA)")
}

func TestMagnitudeInterval(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/numeric/confidence-interval", map[string]any{"visitors": 100, "mean": 50, "std": 10})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[magnitudeIntervalResponse](t, rec)
	assert.Equal(t, 50.0, body.Mean)
	assert.InDelta(t, 51.984217, body.Upper, 1e-5)

	rec = do(t, s, http.MethodPost, "/api/numeric/confidence-interval", map[string]any{"visitors": 1, "mean": 50, "std": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodGet, "/api/health", nil)
	do(t, s, http.MethodGet, "/nowhere", nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `goexp_http_requests_total{route="/api/health",status_code="200"} 1`)
	assert.Contains(t, rec.Body.String(), `goexp_http_requests_total{route="unmatched",status_code="404"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Server.GinMode = "test"
	cfg.Metrics.Enabled = false
	s := NewServer(cfg, app.NewExperimentService(nil, nil, 1), nil, nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
