package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Registry = prometheus.NewRegistry()

var (
	OrdersCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cafe",
		Name:      "orders_created_total",
		Help:      "Orders persisted, by payment method and order type.",
	}, []string{"payment_method", "order_type"})

	OrderRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cafe",
		Name:      "order_rejections_total",
		Help:      "Order creations and status updates refused, by reason.",
	}, []string{"reason"})

	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cafe",
		Name:      "order_transitions_total",
		Help:      "Applied order status updates, by source and target status.",
	}, []string{"from", "to"})

	CatalogCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cafe",
		Name:      "catalog_cache_requests_total",
		Help:      "Product list cache lookups, by result.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		OrdersCreated, OrderRejections, Transitions, CatalogCache,
	)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
