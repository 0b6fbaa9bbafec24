// Package metrics provides a Prometheus implementation of ngtgo.MetricsCollector.
//
// Register the collector against any prometheus.Registerer and pass it to
// the index with ngtgo.WithMetricsCollector:
//
//	c, err := metrics.NewPrometheusCollector(prometheus.DefaultRegisterer)
//	if err != nil {
//		return err
//	}
//	idx, err := ngtgo.Open(ctx, path, ngtgo.WithMetricsCollector(c))
package metrics
