package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	Init()
	IntentTotal.WithLabelValues("law").Inc()
	FallbackTotal.WithLabelValues("general").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `civic_intent_total{intent="law"}`)
	assert.Contains(t, string(body), `civic_evidence_fallback_total{intent="general"}`)
}

func TestCountersAccumulate(t *testing.T) {
	before := testutil.ToFloat64(CacheHits.WithLabelValues("memory"))
	CacheHits.WithLabelValues("memory").Inc()
	CacheHits.WithLabelValues("memory").Inc()
	assert.Equal(t, before+2, testutil.ToFloat64(CacheHits.WithLabelValues("memory")))
}
