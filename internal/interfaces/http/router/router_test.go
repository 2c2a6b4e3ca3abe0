package router

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hydrospark/backend/internal/interfaces/http/dto"
	"github.com/hydrospark/backend/internal/interfaces/http/handler"
	"github.com/hydrospark/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	t.Run("defaults to v1", func(t *testing.T) {
		r := NewRouter(gin.New())
		assert.Equal(t, "v1", r.apiVersion)
		assert.Empty(t, r.registrars)
	})

	t.Run("custom api version", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
		NewRouter(engine, WithAPIVersion("v2")).Register(g).Setup()

		w := serve(engine, "GET", "/api/v2/test/ping")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", w.Body.String())
	})
}

func TestRouterSetup_NoRoute(t *testing.T) {
	engine := gin.New()
	NewRouter(engine).Setup()

	w := serve(engine, "GET", "/api/v1/nothing")
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeRouteNotFound)
}

func TestDomainGroup(t *testing.T) {
	t.Run("describes itself", func(t *testing.T) {
		assert.Equal(t, "billing /bills", NewDomainGroup("billing", "/bills").String())
	})

	t.Run("registers each verb", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "list") })
		g.POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") })
		g.PUT("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "updated "+c.Param("id")) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "list", serve(engine, "GET", "/api/v1/test/items").Body.String())
		assert.Equal(t, http.StatusCreated, serve(engine, "POST", "/api/v1/test/items").Code)
		assert.Equal(t, "updated 7", serve(engine, "PUT", "/api/v1/test/items/7").Body.String())
	})

	t.Run("arbitrary methods", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("test", "/test").
			Handle(http.MethodDelete, "/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) }).
			RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusNoContent, serve(engine, "DELETE", "/api/v1/test/items/1").Code)
	})

	t.Run("chained calls", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("test", "/test").
			GET("/a", func(c *gin.Context) { c.String(http.StatusOK, "a") }).
			POST("/b", func(c *gin.Context) { c.String(http.StatusOK, "b") }).
			RegisterRoutes(engine.Group(""))

		assert.Equal(t, "a", serve(engine, "GET", "/test/a").Body.String())
		assert.Equal(t, "b", serve(engine, "POST", "/test/b").Body.String())
	})
}

func TestRegisterAll(t *testing.T) {
	engine := gin.New()
	NewRouter(engine).RegisterAll(Handlers{
		Customer:  handler.NewCustomerHandler(nil),
		Usage:     handler.NewUsageHandler(nil),
		Analytics: handler.NewAnalyticsHandler(nil),
		Anomaly:   handler.NewAnomalyHandler(nil),
		Forecast:  handler.NewForecastHandler(nil),
		Billing:   handler.NewBillingHandler(nil),
	}).Setup()

	var got []string
	for _, r := range engine.Routes() {
		got = append(got, r.Method+" "+r.Path)
	}
	sort.Strings(got)

	want := []string{
		"GET /api/v1/analytics/customers/:id",
		"GET /api/v1/anomalies",
		"GET /api/v1/bills",
		"GET /api/v1/bills/:id",
		"GET /api/v1/bills/summary",
		"GET /api/v1/customers",
		"GET /api/v1/customers/:id",
		"GET /api/v1/forecasts/customers/:id",
		"GET /api/v1/forecasts/customers/:id/bill",
		"GET /api/v1/usage/customers/:id",
		"POST /api/v1/anomalies/:id/review",
		"POST /api/v1/anomalies/detect",
		"POST /api/v1/bills/:id/pay",
		"POST /api/v1/bills/:id/send",
		"POST /api/v1/bills/generate",
		"POST /api/v1/customers",
		"POST /api/v1/usage",
		"POST /api/v1/usage/correct",
		"PUT /api/v1/customers/:id/cycle",
	}
	assert.Equal(t, want, got)
}
