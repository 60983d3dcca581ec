package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"go-skin-inspector/internal/analyzer"
	"go-skin-inspector/internal/catalog"
	"go-skin-inspector/internal/config"
	"go-skin-inspector/internal/device"
	"go-skin-inspector/internal/logger"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/internal/observer"
	"go-skin-inspector/internal/service"
	"go-skin-inspector/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeChat struct {
	configured bool
	questions  []string
}

func (f *fakeChat) SendMessage(_ context.Context, text string) models.ChatResponse {
	f.questions = append(f.questions, text)
	return models.ChatResponse{Message: "echo: " + text}
}

func (f *fakeChat) Configured() bool { return f.configured }

type testAPI struct {
	handler  http.Handler
	camera   *device.SyntheticCamera
	registry *service.Registry
	chat     *fakeChat
	events   *observer.EventPublisher
}

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 4 << 20,
		UploadMaxDimension: 256,
		ChatRateLimit:      0.001,
		ChatRateBurst:      2,
	}
}

func newTestAPI(t *testing.T, hub *Hub) *testAPI {
	t.Helper()
	events := observer.NewEventPublisher()
	if hub != nil {
		events.Subscribe(hub)
	}
	cam := device.NewSyntheticCamera(device.SyntheticOptions{Width: 80, Height: 60})
	registry := service.NewRegistry(service.RegistryOptions{
		Devices:     cam,
		SettleDelay: time.Millisecond,
		Events:      events,
	})
	t.Cleanup(registry.CloseAll)

	cat := catalog.Default()
	diag, err := analyzer.NewMockDiagnosis(cat, analyzer.DefaultOptions().WithLatency(0))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics, err := observer.NewMetricsObserver(reg)
	require.NoError(t, err)
	events.Subscribe(metrics)

	chat := &fakeChat{configured: true}
	h := NewHandler(Dependencies{
		Config:    testConfig(),
		Catalog:   cat,
		Registry:  registry,
		Diagnosis: service.NewDiagnosisService(registry, diag, events),
		Chat:      chat,
		Hub:       hub,
		Gatherer:  reg,
	})
	return &testAPI{handler: h, camera: cam, registry: registry, chat: chat, events: events}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(120 + x), B: 110, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataURL(t *testing.T) string {
	return media.EncodedImage{Data: pngBytes(t), MIMEType: "image/png"}.DataURL()
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, typ string) {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	resp := decode[models.ErrorResponse](t, w)
	assert.Equal(t, typ, resp.Type)
	assert.NotEmpty(t, resp.Message)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)
	w := api.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "available", body["status"])
	assert.Equal(t, true, body["chat_configured"])
}

func TestConditions(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodGet, "/api/v1/conditions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[models.ConditionListResponse](t, w)
	assert.Equal(t, catalog.Default().Len(), all.Count)

	w = api.do(t, http.MethodGet, "/api/v1/conditions?risk=high", nil)
	require.Equal(t, http.StatusOK, w.Code)
	high := decode[models.ConditionListResponse](t, w)
	require.NotEmpty(t, high.Conditions)
	for _, c := range high.Conditions {
		assert.Equal(t, models.RiskHigh, c.Risk)
	}

	assertError(t, api.do(t, http.MethodGet, "/api/v1/conditions?risk=extreme", nil), http.StatusBadRequest, "validation")

	w = api.do(t, http.MethodGet, "/api/v1/conditions/melanoma", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Melanoma", decode[models.Condition](t, w).Name)

	w = api.do(t, http.MethodGet, "/api/v1/conditions/melanomma", nil)
	assertError(t, w, http.StatusNotFound, "not_found")
	assert.Contains(t, w.Body.String(), "did you mean melanoma")

	w = api.do(t, http.MethodGet, "/api/v1/conditions/search?q=carcinoma", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, decode[models.ConditionListResponse](t, w).Count, 2)

	w = api.do(t, http.MethodGet, "/api/v1/conditions/search?q=melanomma", nil)
	require.Equal(t, http.StatusOK, w.Code)
	miss := decode[models.ConditionListResponse](t, w)
	assert.Zero(t, miss.Count)
	assert.Equal(t, []string{"melanoma"}, miss.Suggestions)
}

func TestCameraFlow(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Kind: "camera", Facing: "user", Activate: true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	s := decode[models.SessionResponse](t, w)
	assert.Equal(t, "live_active", s.State)
	assert.Equal(t, "front", s.Device)
	assert.True(t, s.HasStream)
	base := "/api/v1/sessions/" + s.ID

	w = api.do(t, http.MethodGet, base+"/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = api.do(t, http.MethodPost, base+"/switch", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s = decode[models.SessionResponse](t, w)
	assert.Equal(t, "live_active", s.State)
	assert.Equal(t, "rear", s.Device)
	assert.Equal(t, 1, api.camera.OpenStreams())

	w = api.do(t, http.MethodPost, base+"/capture", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s = decode[models.SessionResponse](t, w)
	assert.Equal(t, "reviewing", s.State)
	assert.False(t, s.HasStream)
	assert.Equal(t, 80, s.PendingWidth)
	assert.Equal(t, 0, api.camera.OpenStreams())

	w = api.do(t, http.MethodGet, base+"/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	assertError(t, api.do(t, http.MethodPost, base+"/analyze", nil), http.StatusConflict, "invalid_state")

	w = api.do(t, http.MethodPost, base+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code)
	s = decode[models.SessionResponse](t, w)
	assert.Equal(t, "accepted", s.State)
	assert.True(t, s.HasCaptured)

	w = api.do(t, http.MethodPost, base+"/analyze", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[models.DiagnosisResult](t, w)
	assert.GreaterOrEqual(t, result.Confidence, analyzer.MinConfidence)
	assert.LessOrEqual(t, result.Confidence, analyzer.MaxConfidence)
	assert.NotEmpty(t, result.Condition.ID)

	w = api.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assertError(t, api.do(t, http.MethodGet, base, nil), http.StatusNotFound, "not_found")
}

func TestCameraFlow_RetakeRestartsCamera(t *testing.T) {
	api := newTestAPI(t, nil)

	s := decode[models.SessionResponse](t, api.do(t, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Kind: "camera", Activate: true}))
	base := "/api/v1/sessions/" + s.ID
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, base+"/capture", nil).Code)

	w := api.do(t, http.MethodPost, base+"/retake", nil)
	require.Equal(t, http.StatusOK, w.Code)
	s = decode[models.SessionResponse](t, w)
	assert.Equal(t, "live_active", s.State)
	assert.False(t, s.HasPending)
	assert.Equal(t, 1, api.camera.OpenStreams())

	w = api.do(t, http.MethodPost, base+"/deactivate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", decode[models.SessionResponse](t, w).State)
	assert.Equal(t, 0, api.camera.OpenStreams())
}

func TestCameraFlow_PermissionDenied(t *testing.T) {
	api := newTestAPI(t, nil)
	api.camera.Deny(true)

	w := api.do(t, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Kind: "camera", Activate: true})
	assertError(t, w, http.StatusForbidden, "device_access_denied")
	assert.Contains(t, w.Body.String(), "granted camera permissions")
	assert.Zero(t, api.registry.Len())
	assert.Zero(t, api.camera.OpenStreams())
}

func TestSessionErrors(t *testing.T) {
	api := newTestAPI(t, nil)

	assertError(t, api.do(t, http.MethodGet, "/api/v1/sessions/nope", nil), http.StatusNotFound, "not_found")
	assertError(t, api.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{"kind": "scanner"}), http.StatusBadRequest, "validation")

	cam := decode[models.SessionResponse](t, api.do(t, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Kind: "camera"}))
	base := "/api/v1/sessions/" + cam.ID
	assertError(t, api.do(t, http.MethodPost, base+"/capture", nil), http.StatusConflict, "invalid_state")
	assertError(t, api.do(t, http.MethodPost, base+"/accept", nil), http.StatusConflict, "invalid_state")
	assertError(t, api.do(t, http.MethodGet, base+"/pending", nil), http.StatusConflict, "invalid_state")
	assertError(t, api.do(t, http.MethodPost, base+"/file", models.ImageRequest{DataURL: dataURL(t)}), http.StatusConflict, "invalid_state")

	up := decode[models.SessionResponse](t, api.do(t, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Kind: "upload"}))
	assertError(t, api.do(t, http.MethodPost, "/api/v1/sessions/"+up.ID+"/activate", nil), http.StatusConflict, "invalid_state")
}

func TestUploadFlow(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Kind: "upload"})
	require.Equal(t, http.StatusCreated, w.Code)
	s := decode[models.SessionResponse](t, w)
	base := "/api/v1/sessions/" + s.ID

	w = api.do(t, http.MethodPost, base+"/file", models.ImageRequest{DataURL: dataURL(t)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s = decode[models.SessionResponse](t, w)
	assert.Equal(t, "reviewing", s.State)
	assert.Equal(t, 32, s.PendingWidth)
	assert.Equal(t, 24, s.PendingHeight)

	w = api.do(t, http.MethodPost, base+"/retake", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", decode[models.SessionResponse](t, w).State)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "forearm.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, base+"/file", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "reviewing", decode[models.SessionResponse](t, w).State)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, base+"/accept", nil).Code)
	w = api.do(t, http.MethodPost, base+"/analyze", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSelectFile_Errors(t *testing.T) {
	api := newTestAPI(t, nil)
	s := decode[models.SessionResponse](t, api.do(t, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Kind: "upload"}))
	path := "/api/v1/sessions/" + s.ID + "/file"

	notImage := media.EncodedImage{Data: []byte("hello"), MIMEType: "text/plain"}.DataURL()
	assertError(t, api.do(t, http.MethodPost, path, models.ImageRequest{DataURL: notImage}), http.StatusUnprocessableEntity, "decode_failure")
	assertError(t, api.do(t, http.MethodPost, path, models.ImageRequest{DataURL: "data:image/png,raw"}), http.StatusBadRequest, "validation")
	assertError(t, api.do(t, http.MethodPost, path, models.ImageRequest{URL: "https://example.com/a.png"}), http.StatusBadRequest, "validation")
	assertError(t, api.do(t, http.MethodPost, path, models.ImageRequest{URL: "https://example.com/a.png", DataURL: dataURL(t)}), http.StatusBadRequest, "validation")
	assertError(t, api.do(t, http.MethodPost, path, models.ImageRequest{}), http.StatusBadRequest, "validation")

	// failures leave the session selectable
	w := api.do(t, http.MethodGet, "/api/v1/sessions/"+s.ID, nil)
	assert.Equal(t, "idle", decode[models.SessionResponse](t, w).State)
}

func TestAnalyzeImage(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodPost, "/api/v1/analyze", models.ImageRequest{DataURL: dataURL(t)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[models.DiagnosisResult](t, w)
	_, err := catalog.Default().Get(result.Condition.ID)
	assert.NoError(t, err)
	_, err = time.Parse(time.RFC3339, result.Timestamp)
	assert.NoError(t, err)

	assertError(t, api.do(t, http.MethodPost, "/api/v1/analyze", models.ImageRequest{}), http.StatusBadRequest, "validation")
}

func TestChat(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodPost, "/api/v1/chat", models.ChatRequest{Message: "What is a mole?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "echo: What is a mole?", decode[models.ChatResponse](t, w).Message)

	assertError(t, api.do(t, http.MethodPost, "/api/v1/chat", map[string]string{}), http.StatusBadRequest, "validation")

	// burst of two per client is spent by now
	w = api.do(t, http.MethodPost, "/api/v1/chat", models.ChatRequest{Message: "again"})
	assertError(t, w, http.StatusTooManyRequests, "rate_limited")
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, []string{"What is a mole?"}, api.chat.questions)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t, nil)
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Kind: "upload"}).Code)

	w := api.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "skin_inspector_sessions_active 1"), w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t, nil)
	w := api.do(t, http.MethodOptions, "/api/v1/chat", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
