package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registrations_total",
		Help: "Total number of accounts registered",
	})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logins_total",
		Help: "Total number of login attempts",
	}, []string{"outcome"})

	CatalogImportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_imports_total",
		Help: "Total number of successful price-list imports",
	})

	CatalogImportFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_import_failures_total",
		Help: "Total number of failed price-list imports",
	}, []string{"reason"})

	CatalogImportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_import_duration_seconds",
		Help:    "Latency of price-list imports",
		Buckets: prometheus.DefBuckets,
	})

	BasketUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "basket_updates_total",
		Help: "Total number of accepted basket batches",
	})

	BasketRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "basket_rejections_total",
		Help: "Total number of rejected basket batches",
	}, []string{"reason"})

	OrdersConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_confirmed_total",
		Help: "Total number of baskets confirmed into placed orders",
	})

	OrderConfirmFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_confirm_failures_total",
		Help: "Total number of rejected order confirmations",
	}, []string{"reason"})

	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of notification emails dispatched",
	}, []string{"type"})

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Total number of notification emails that failed to send",
	}, []string{"type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
