package router

import (
	"github.com/hydrospark/backend/internal/interfaces/http/handler"
)

// Handlers are the endpoint groups exposed under /api/<version>
type Handlers struct {
	Customer  *handler.CustomerHandler
	Usage     *handler.UsageHandler
	Analytics *handler.AnalyticsHandler
	Anomaly   *handler.AnomalyHandler
	Forecast  *handler.ForecastHandler
	Billing   *handler.BillingHandler
}

// DomainGroups builds one route group per domain
func (h Handlers) DomainGroups() []*DomainGroup {
	customers := NewDomainGroup("customer", "/customers")
	customers.POST("", h.Customer.Register)
	customers.GET("", h.Customer.List)
	customers.GET("/:id", h.Customer.Get)
	customers.PUT("/:id/cycle", h.Customer.ChangeCycle)

	usage := NewDomainGroup("usage", "/usage")
	usage.POST("", h.Usage.Record)
	usage.POST("/correct", h.Usage.Correct)
	usage.GET("/customers/:id", h.Usage.List)

	analytics := NewDomainGroup("analytics", "/analytics")
	analytics.GET("/customers/:id", h.Analytics.GetCustomerAnalytics)

	anomalies := NewDomainGroup("anomaly", "/anomalies")
	anomalies.GET("", h.Anomaly.List)
	anomalies.POST("/detect", h.Anomaly.Detect)
	anomalies.POST("/:id/review", h.Anomaly.Review)

	forecasts := NewDomainGroup("forecast", "/forecasts")
	forecasts.GET("/customers/:id", h.Forecast.GetForecast)
	forecasts.GET("/customers/:id/bill", h.Forecast.GetForecastedBill)

	bills := NewDomainGroup("billing", "/bills")
	bills.POST("/generate", h.Billing.Generate)
	bills.GET("/summary", h.Billing.Summary)
	bills.GET("", h.Billing.List)
	bills.GET("/:id", h.Billing.Get)
	bills.POST("/:id/send", h.Billing.Send)
	bills.POST("/:id/pay", h.Billing.Pay)

	return []*DomainGroup{customers, usage, analytics, anomalies, forecasts, bills}
}

// RegisterAll adds every domain group to r
func (r *Router) RegisterAll(h Handlers) *Router {
	for _, g := range h.DomainGroups() {
		r.Register(g)
	}
	return r
}
