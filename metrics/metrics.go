// Package metrics provides Prometheus metrics for the feed core
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TicksProcessed 按类型统计已合入快照的 tick 数。
	TicksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feed",
		Name:      "ticks_processed_total",
		Help:      "Ticks folded into snapshots, by kind",
	}, []string{"kind"})

	// TicksDropped 订阅已退订后到达的 tick 数。
	TicksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feed",
		Name:      "ticks_dropped_total",
		Help:      "Ticks dropped because the subscription is not live",
	})

	// LiveSubscriptions 当前活跃订阅数。
	LiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "feed",
		Name:      "live_subscriptions",
		Help:      "Currently live market data subscriptions",
	})

	// StatusCodes 按分类统计收到的状态码。
	StatusCodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feed",
		Name:      "status_codes_total",
		Help:      "Inbound status messages by classification",
	}, []string{"class"})

	// ObserverErrors 观察者回调 panic/超时次数。
	ObserverErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feed",
		Name:      "observer_errors_total",
		Help:      "Observer callbacks that panicked or exceeded the budget",
	})

	// RTVolumeParseErrors 无法解析的 rtVolume 复合串。
	RTVolumeParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feed",
		Name:      "rtvolume_parse_errors_total",
		Help:      "Malformed real-time volume strings",
	})

	// WSReconnects 网关 websocket 重连次数。
	WSReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feed",
		Name:      "ws_reconnects_total",
		Help:      "Gateway websocket reconnects",
	})
)

// StartMetricsServer 启动Prometheus指标服务器
func StartMetricsServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}
