package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/isp-workboard/internal/config"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/board", http.MethodGet, 200, 10*time.Millisecond)
	m.RecordRequest("/board", http.MethodGet, 200, 30*time.Millisecond)
	m.RecordError("/tickets/:id/move", http.MethodPost, "INVALID_TRANSITION")
	m.RecordAction("ticket_created")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/board|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/tickets/:id/move|POST|INVALID_TRANSITION"])
	assert.Equal(t, int64(1), snap.Actions["ticket_created"])
	assert.InDelta(t, 20.0, snap.AvgLatencyMillis, 0.001)

	snap.Actions["ticket_created"] = 99
	assert.Equal(t, int64(1), m.Snapshot().Actions["ticket_created"], "snapshot must be a copy")

	var nilMetrics *Metrics
	nilMetrics.RecordAction("x")
	assert.Empty(t, nilMetrics.Snapshot().Actions)
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewMetrics()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(RequestLogger(zap.New(core), m))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/tickets/TRX-00001", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, int64(1), m.Snapshot().Requests["/tickets/:id|GET|204"])
	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/tickets/TRX-00001", entries[0].ContextMap()["path"])
}

func TestNewLoggerLevels(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "debug"}, config.AppConfig{Name: "isp-workboard", Env: "test"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "shouting"}, config.AppConfig{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}
