package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jaehong-maker/Smart-Diffuser-Project/config"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/engine"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/region"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/store"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/voice"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/weather"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubWeather struct {
	obs weather.Observation
	err error
}

func (s *stubWeather) Fetch(ctx context.Context, coords region.Coords, baseDate, baseTime string) (weather.Observation, error) {
	return s.obs, s.err
}

type stubVoice struct {
	text     string
	err      error
	deviceID string
	audio    []byte
}

func (s *stubVoice) Transcribe(ctx context.Context, deviceID string, audio []byte) (voice.Transcript, error) {
	s.deviceID = deviceID
	s.audio = audio
	return voice.Transcript{Text: s.text, ClipKey: "voice/" + deviceID + "/clip.wav"}, s.err
}

type testServer struct {
	router  *gin.Engine
	store   store.Store
	weather *stubWeather
	voice   *stubVoice
	now     time.Time
}

type serverSetup struct {
	deps   engine.Deps
	push   *webpush.Options
	server config.ServerConfig
}

type serverOption func(*serverSetup)

func withoutWeather() serverOption {
	return func(s *serverSetup) { s.deps.Weather = nil }
}

func withoutVoice() serverOption {
	return func(s *serverSetup) { s.deps.Voice = nil }
}

func withVAPID(key string) serverOption {
	return func(s *serverSetup) { s.push = &webpush.Options{VAPIDPublicKey: key} }
}

func withRateLimit(perSec float64, burst int) serverOption {
	return func(s *serverSetup) {
		s.server.RateLimitPerSec = perSec
		s.server.RateLimitBurst = burst
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	s, err := store.NewBoltStore(filepath.Join(t.TempDir(), "api.db"), 100)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ts := &testServer{
		store:   s,
		weather: &stubWeather{obs: weather.Observation{Temperature: "12.5", Label: weather.LabelClear, Humidity: "30"}},
		voice:   &stubVoice{},
		now:     time.Date(2026, 5, 4, 14, 0, 0, 0, time.FixedZone("KST", 9*60*60)),
	}

	catalog := region.NewCatalog(nil)
	setup := serverSetup{
		deps: engine.Deps{
			States:  s,
			Mailbox: s,
			Weather: ts.weather,
			Voice:   ts.voice,
			Catalog: catalog,
			Now:     func() time.Time { return ts.now },
		},
		server: config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 30},
	}
	for _, opt := range opts {
		opt(&setup)
	}

	policy := engine.Policy{CooldownMinutes: 0.33, ConsumptionPerSec: 0.5, MaxCapacity: 100, HumidityThreshold: 50}
	h := NewHandler(engine.New(policy, setup.deps), s, catalog, setup.push)
	ts.router = NewRouter(h, setup.server)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) postJSON(t *testing.T, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/diffuser", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := ts.do(req)
	return w, decode(t, w)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
