package metrics

import (
	"errors"
	"time"

	"github.com/hupe1980/ngtgo"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ngt"

var _ ngtgo.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector records index operations as Prometheus metrics.
type PrometheusCollector struct {
	opLatency   *prometheus.HistogramVec
	ops         *prometheus.CounterVec
	batchItems  *prometheus.CounterVec
	searchSize  prometheus.Histogram
	buildLinked prometheus.Counter
}

// NewPrometheusCollector creates the collector and registers its metrics
// with reg. A nil reg leaves the metrics unregistered.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	c := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of index operations",
			Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total index operations processed",
		}, []string{"op", "status"}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Objects submitted through batch inserts",
		}, []string{"status"}),
		searchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_result_size",
			Help:      "Requested number of search results",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		buildLinked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_linked_objects_total",
			Help:      "Objects linked into the graph by index builds",
		}),
	}

	if reg == nil {
		return c, nil
	}

	for _, col := range []prometheus.Collector{c.opLatency, c.ops, c.batchItems, c.searchSize, c.buildLinked} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (c *PrometheusCollector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, s).Inc()
}

// RecordInsert implements ngtgo.MetricsCollector.
func (c *PrometheusCollector) RecordInsert(d time.Duration, err error) {
	c.observe("insert", d, err)
}

// RecordBatchInsert implements ngtgo.MetricsCollector.
func (c *PrometheusCollector) RecordBatchInsert(count, failed int, d time.Duration) {
	var err error
	if failed > 0 {
		err = errBatchFailures
	}
	c.observe("batch_insert", d, err)
	c.batchItems.WithLabelValues("ok").Add(float64(count - failed))
	c.batchItems.WithLabelValues("error").Add(float64(failed))
}

// RecordSearch implements ngtgo.MetricsCollector.
func (c *PrometheusCollector) RecordSearch(size int, d time.Duration, err error) {
	c.observe("search", d, err)
	if size > 0 {
		c.searchSize.Observe(float64(size))
	}
}

// RecordRemove implements ngtgo.MetricsCollector.
func (c *PrometheusCollector) RecordRemove(d time.Duration, err error) {
	c.observe("remove", d, err)
}

// RecordBuild implements ngtgo.MetricsCollector.
func (c *PrometheusCollector) RecordBuild(linked int, d time.Duration, err error) {
	c.observe("build", d, err)
	if linked > 0 {
		c.buildLinked.Add(float64(linked))
	}
}

var errBatchFailures = errors.New("batch had failures")
