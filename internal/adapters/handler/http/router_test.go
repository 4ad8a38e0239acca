package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	adapterHTTP "github.com/comitanigiacomo/kanso-report-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-report-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/report"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/services"
)

func newTestRouter(tokens *services.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := services.NewReportService(report.NewEngine(report.Config{}), stubGenerator{reply: okReply},
		repository.NewInMemoryReportRepository(), nil, zap.NewNop(), services.ReportConfig{})

	deps := adapterHTTP.RouterDependencies{
		ReportHandler: adapterHTTP.NewReportHandler(svc, nil, zap.NewNop()),
		StartTime:     time.Now(),
	}
	if tokens != nil {
		deps.TokenValidator = tokens
	}
	return adapterHTTP.NewRouter(deps)
}

func TestRouter(t *testing.T) {
	t.Run("Success: Health reports disabled backends", func(t *testing.T) {
		router := newTestRouter(nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"disabled"`)
		assert.Contains(t, w.Body.String(), `"redis":"disabled"`)
	})

	t.Run("Success: Metrics are exposed", func(t *testing.T) {
		router := newTestRouter(nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})

	t.Run("Success: Preflight is answered without auth", func(t *testing.T) {
		router := newTestRouter(services.NewTokenService("secret", "kanso", time.Hour))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodOptions, "/api/v1/reports/generate", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Fail: API requires a token when auth is configured", func(t *testing.T) {
		router := newTestRouter(services.NewTokenService("secret", "kanso", time.Hour))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/reports/10/latest", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Success: Valid token reaches the handler", func(t *testing.T) {
		tokens := services.NewTokenService("secret", "kanso", time.Hour)
		router := newTestRouter(tokens)
		token, err := tokens.GenerateToken("batch-runner")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/reports/10/latest", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
