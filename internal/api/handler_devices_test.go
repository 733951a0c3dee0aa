package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDeviceState(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/devices/unseen/state", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "unseen", body["deviceId"])
	assert.Equal(t, 100.0, body["remainingCapacity"])
	assert.Equal(t, float64(0), body["lastScentCode"])

	ts.postJSON(t, map[string]any{"device": "ESP32_A", "region": "서울"})
	body = decode(t, ts.do(httptest.NewRequest(http.MethodGet, "/api/devices/ESP32_A/state", nil)))
	assert.Equal(t, 98.5, body["remainingCapacity"])
	assert.Equal(t, float64(1), body["lastScentCode"])
}

func TestGetDeviceLogs(t *testing.T) {
	ts := newTestServer(t)
	ts.postJSON(t, map[string]any{"device": "ESP32_A", "region": "서울"})
	ts.postJSON(t, map[string]any{"device": "ESP32_A", "mode": "emotion", "user_emotion": "4"})

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/devices/ESP32_A/logs?limit=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode(t, w)["logs"].([]any)
	require.Len(t, logs, 1)
	latest := logs[0].(map[string]any)
	assert.Equal(t, "Emotion_Mode", latest["mode"])
	assert.Equal(t, "BLOCKED", latest["status"])

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/devices/ESP32_A/logs?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDeviceLogs_DecisionPurgesCachedReads(t *testing.T) {
	ts := newTestServer(t)
	ts.postJSON(t, map[string]any{"device": "ESP32_A", "region": "서울"})

	logsOf := func() []any {
		w := ts.do(httptest.NewRequest(http.MethodGet, "/api/devices/ESP32_A/logs", nil))
		require.Equal(t, http.StatusOK, w.Code)
		return decode(t, w)["logs"].([]any)
	}

	assert.Len(t, logsOf(), 1)
	assert.Len(t, logsOf(), 1)

	ts.postJSON(t, map[string]any{"device": "ESP32_A", "mode": "emotion", "user_emotion": "4"})
	assert.Len(t, logsOf(), 2)
}

func TestGetRegions(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/regions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	regions := decode(t, w)["regions"].([]any)
	assert.Len(t, regions, 20)
	assert.Contains(t, regions, map[string]any{"name": "서울", "nx": "60", "ny": "127"})

	again := ts.do(httptest.NewRequest(http.MethodGet, "/api/regions", nil))
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
}

func TestGetMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.postJSON(t, map[string]any{"device": "ESP32_A", "action": "POLL"})

	body := decode(t, ts.do(httptest.NewRequest(http.MethodGet, "/api/metrics", nil)))
	assert.Equal(t, float64(1), body["decisions_total"])
	assert.Equal(t, float64(1), body["polls_empty_total"])
}
