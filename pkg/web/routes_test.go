package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

type stubWarns map[string]uint64

func (s stubWarns) Current(_ context.Context, guildID, userID string) (uint64, error) {
	if guildID == "broken" {
		return 0, errors.New("boom")
	}
	return s[guildID+"/"+userID], nil
}

type stubConfigs struct{ threshold int }

func (s stubConfigs) GetGuildPolicyConfig(_ context.Context, guildID string) (*models.GuildPolicyConfig, error) {
	return &models.GuildPolicyConfig{GuildID: guildID, WarnThreshold: s.threshold}, nil
}

type stubBot struct{}

func (stubBot) IsReady() bool   { return true }
func (stubBot) GuildCount() int { return 4 }

func newTestServer(t *testing.T, opts Options, api API) *Server {
	t.Helper()
	s, err := NewServer(opts)
	require.NoError(t, err)
	gin.SetMode(gin.TestMode)
	SetupAPIRoutes(s, api)
	return s
}

func do(s *Server, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{}, API{})
	w := do(s, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, Options{}, API{
		Bot:         stubBot{},
		StoreStatus: func() (string, bool) { return "Conectado", true },
		StartTime:   time.Now().Add(-time.Minute),
	})
	w := do(s, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	bot := body["bot"].(map[string]interface{})
	assert.Equal(t, true, bot["isOnline"])
	assert.EqualValues(t, 4, bot["guilds"])
	db := body["database"].(map[string]interface{})
	assert.Equal(t, "Conectado", db["status"])
	assert.NotEmpty(t, body["uptime"])
}

func TestStatusWithoutDependencies(t *testing.T) {
	s := newTestServer(t, Options{}, API{})
	body := decode(t, do(s, http.MethodGet, "/api/status", nil))

	assert.Equal(t, false, body["bot"].(map[string]interface{})["isOnline"])
	assert.Equal(t, false, body["database"].(map[string]interface{})["isOnline"])
}

func TestWarnsEndpoint(t *testing.T) {
	api := API{
		Warns:   stubWarns{"g1/7": 2},
		Configs: stubConfigs{threshold: 5},
	}
	s := newTestServer(t, Options{}, api)

	w := do(s, http.MethodGet, "/api/guilds/g1/warns/7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["warnCount"])
	assert.EqualValues(t, 3, body["threshold"])

	w = do(s, http.MethodGet, "/api/guilds/broken/warns/7", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWarnsEndpointUnavailable(t *testing.T) {
	s := newTestServer(t, Options{}, API{})
	w := do(s, http.MethodGet, "/api/guilds/g1/warns/7", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWarnsEndpointToken(t *testing.T) {
	s := newTestServer(t, Options{}, API{Warns: stubWarns{}, Token: "secret"})

	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/guilds/g1/warns/7", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/guilds/g1/warns/7",
		map[string]string{"Authorization": "Bearer nope"}).Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/guilds/g1/warns/7",
		map[string]string{"Authorization": "Bearer secret"}).Code)

	// the token only guards the guild routes
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/health", nil).Code)
}

func TestAllowedHosts(t *testing.T) {
	s := newTestServer(t, Options{AllowedHosts: `^(.+\.)?miau\.media$`}, API{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Host = "api.miau.media"
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Host = "evil.example"
	w = httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInvalidAllowedHosts(t *testing.T) {
	_, err := NewServer(Options{AllowedHosts: "("})
	assert.Error(t, err)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Options{RateLimit: RateLimitConfig{Window: time.Minute, MaxRequests: 2}}, API{})

	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/health", nil).Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(s, http.MethodGet, "/api/health", nil).Code)
}

func TestErrorHandlers(t *testing.T) {
	s := newTestServer(t, Options{}, API{})

	w := do(s, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.EqualValues(t, 404, decode(t, w)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{}, API{})
	w := do(s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
