package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutSubscription_BadRequest(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(httptest.NewRequest(http.MethodPut, "/api/subscriptions", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())

	w = ts.do(httptest.NewRequest(http.MethodPut, "/api/subscriptions", strings.NewReader(`{"endpoint":"https://push.example/x"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	endpoint := "https://push.example/send/abc%3D%3D"

	put := httptest.NewRequest(http.MethodPut, "/api/subscriptions", strings.NewReader(
		`{"endpoint":"`+endpoint+`","p256dh":"key","auth":"secret","subscribed_devices":["ESP32_A","ESP32_B"]}`))
	put.Header.Set("Content-Type", "application/json")
	w := ts.do(put)
	require.Equal(t, http.StatusCreated, w.Code)

	// The endpoint is matched raw, so it is sent without further escaping.
	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/subscriptions?endpoint="+endpoint, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscribed_devices":["ESP32_A","ESP32_B"]}`, w.Body.String())

	del := httptest.NewRequest(http.MethodDelete, "/api/subscriptions", strings.NewReader(`{"endpoint":"`+endpoint+`"}`))
	del.Header.Set("Content-Type", "application/json")
	w = ts.do(del)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/subscriptions?endpoint="+endpoint, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSubscription_MissingEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/subscriptions?other="+url.QueryEscape("x"), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/vapid_public_key", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ts = newTestServer(t, withVAPID("BPublicKey"))
	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/vapid_public_key", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"BPublicKey","ttl_seconds":0}`, w.Body.String())
}

func TestRawQueryParam(t *testing.T) {
	v, ok := rawQueryParam("a=1&endpoint=https://x/y%3D&b=2", "endpoint")
	assert.True(t, ok)
	assert.Equal(t, "https://x/y%3D", v)

	_, ok = rawQueryParam("a=1", "endpoint")
	assert.False(t, ok)
}
