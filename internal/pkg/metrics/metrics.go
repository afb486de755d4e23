// internal/pkg/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "figures"

// Reservation 结果标签
const (
	ResultOK          = "ok"
	ResultOutOfStock  = "out_of_stock"
	ResultUnavailable = "unavailable"
	ResultFailed      = "failed"
)

// Collector 汇总预占核心的所有 Prometheus 指标。
type Collector struct {
	Orders               *prometheus.CounterVec
	Reservations         *prometheus.CounterVec
	Releases             *prometheus.CounterVec
	CompensationFailures prometheus.Counter
	OrderDuration        prometheus.Histogram
}

// New 创建并在 reg 上注册所有指标。reg 为 nil 时使用默认注册表。
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Order attempts by final outcome.",
		}, []string{"outcome"}),
		Reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Atomic reserve calls by figure type and result.",
		}, []string{"type", "result"}),
		Releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "releases_total",
			Help:      "Compensating release calls by result.",
		}, []string{"result"}),
		CompensationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensation_failures_total",
			Help:      "Orders whose reserved stock could not be released. Alert on any increase.",
		}),
		OrderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_duration_seconds",
			Help:      "Wall time of a full order attempt.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(c.Orders, c.Reservations, c.Releases, c.CompensationFailures, c.OrderDuration)
	return c
}

// ObserveOrder 记录一次订单尝试的结果和耗时。
func (c *Collector) ObserveOrder(outcome string, started time.Time) {
	if c == nil {
		return
	}
	c.Orders.WithLabelValues(outcome).Inc()
	c.OrderDuration.Observe(time.Since(started).Seconds())
}

func (c *Collector) ObserveReservation(typeKey, result string) {
	if c == nil {
		return
	}
	c.Reservations.WithLabelValues(typeKey, result).Inc()
}

func (c *Collector) ObserveRelease(result string) {
	if c == nil {
		return
	}
	c.Releases.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveCompensationFailure() {
	if c == nil {
		return
	}
	c.CompensationFailures.Inc()
}
