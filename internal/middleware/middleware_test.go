package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/azizur-rahaman/skillflow-sub002/internal/service"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/logger"
)

func TestRequireOwnerStoresHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireOwner())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, Owner(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(logger.OwnerHeader, "  learner-7 ")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if got := recorder.Body.String(); got != "learner-7" {
		t.Fatalf("unexpected owner: %q", got)
	}
}

func TestRequireOwnerRejectsMissingOrOversizedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireOwner())
	router.GET("/", func(c *gin.Context) {
		t.Fatal("handler must not run")
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(logger.OwnerHeader, strings.Repeat("x", maxOwnerIDLength+1))
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestOwnerWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := Owner(c); got != "" {
		t.Fatalf("expected empty owner, got %q", got)
	}
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/sessions/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/def", nil))

	if got := metrics.Snapshot().RequestsTotal; got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}
}

func TestMetricsLabelsUnmatchedAndSkipsScrapeRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics, "/metrics"))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.POST("/sessions/:id/mint", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/sessions/abc/mint", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin/setup.php", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if got := metrics.Snapshot().RequestsTotal; got != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", got)
	}

	scrape := httptest.NewRecorder()
	router.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()
	if !strings.Contains(body, `path="/sessions/:id/mint"`) {
		t.Fatalf("route pattern label missing:\n%s", body)
	}
	if !strings.Contains(body, `path="unmatched"`) {
		t.Fatalf("unmatched label missing:\n%s", body)
	}
	if strings.Contains(body, "wp-admin") {
		t.Fatalf("raw path leaked into labels")
	}
	if strings.Contains(body, `path="/metrics"`) {
		t.Fatalf("scrape route should not be recorded")
	}
}

func TestMetricsNilServicePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Metrics(nil))
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}
