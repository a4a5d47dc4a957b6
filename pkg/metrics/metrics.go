// Package metrics 暴露 Prometheus 指标
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mssql-openapi/pkg/models"
)

const namespace = "mssql_openapi"

type Metrics struct {
	reg *prometheus.Registry

	requests    *prometheus.CounterVec
	reqDuration *prometheus.HistogramVec
	syncRuns    *prometheus.CounterVec
	syncItems   *prometheus.CounterVec
	syncSeconds prometheus.Histogram
	lastSuccess prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "请求总数",
		}, []string{"route", "method", "status"}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "请求耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "同步执行次数",
		}, []string{"trigger", "result"}),
		syncItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_items_total",
			Help:      "同步记录数",
		}, []string{"outcome"}),
		syncSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "同步耗时",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_last_success_timestamp_seconds",
			Help:      "最近一次成功同步的时间",
		}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.reqDuration, m.syncRuns, m.syncItems, m.syncSeconds, m.lastSuccess,
	)
	return m
}

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Middleware 记录请求数与耗时，路由取注册时的模板
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.reqDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// SyncFinished 同步结束回调
func (m *Metrics) SyncFinished(_ context.Context, run *models.SyncRun) {
	result := "success"
	if !run.Succeeded() {
		result = "failed"
	}
	m.syncRuns.WithLabelValues(run.Trigger, result).Inc()
	m.syncItems.WithLabelValues("created").Add(float64(run.Created))
	m.syncItems.WithLabelValues("updated").Add(float64(run.Updated))
	m.syncItems.WithLabelValues("skipped").Add(float64(run.Skipped))
	m.syncItems.WithLabelValues("failed").Add(float64(len(run.Errors)))
	m.syncSeconds.Observe(run.Duration().Seconds())
	if run.Succeeded() {
		m.lastSuccess.Set(float64(run.FinishedAt.Unix()))
	}
}
