// Package monitoring 提供Prometheus指标
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fraud"

// Metrics 服务指标集合
type Metrics struct {
	registry *prometheus.Registry

	predictions        *prometheus.CounterVec
	probability        prometheus.Histogram
	predictionDuration prometheus.Histogram
	scoreCache         *prometheus.CounterVec
	modelReloads       *prometheus.CounterVec
	modelGeneration    prometheus.Gauge
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics 创建指标集合，使用独立的registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Number of predictions by verdict",
		}, []string{"verdict"}),
		probability: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_probability",
			Help:      "Distribution of predicted fraud probabilities",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10), // 0.1 .. 1.0
		}),
		predictionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent scoring one transaction",
			Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		scoreCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_cache_total",
			Help:      "Score cache lookups by result",
		}, []string{"result"}),
		modelReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_reloads_total",
			Help:      "Model reload attempts by result",
		}, []string{"result"}),
		modelGeneration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_generation",
			Help:      "Generation number of the active model",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path", "status"}),
	}
}

// ObservePrediction 记录一次预测
func (m *Metrics) ObservePrediction(verdict string, probability float64, cached bool, duration time.Duration) {
	m.predictions.WithLabelValues(verdict).Inc()
	m.probability.Observe(probability)
	m.predictionDuration.Observe(duration.Seconds())
	if cached {
		m.scoreCache.WithLabelValues("hit").Inc()
	} else {
		m.scoreCache.WithLabelValues("miss").Inc()
	}
}

// ObserveModelReload 记录模型重载结果
func (m *Metrics) ObserveModelReload(err error) {
	if err != nil {
		m.modelReloads.WithLabelValues("error").Inc()
		return
	}
	m.modelReloads.WithLabelValues("success").Inc()
}

func (m *Metrics) SetModelGeneration(generation uint64) {
	m.modelGeneration.Set(float64(generation))
}

// ObserveHTTPRequest 记录HTTP请求
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// Handler 返回/metrics处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
