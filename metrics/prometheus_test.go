package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/ngtgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counters returns the value of every counter sample in the registry keyed
// by family name and joined label values.
func counters(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			key := f.GetName()
			for _, l := range m.GetLabel() {
				key += "/" + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	c.RecordInsert(time.Millisecond, nil)
	c.RecordInsert(time.Millisecond, errors.New("boom"))
	c.RecordBatchInsert(10, 3, time.Millisecond)
	c.RecordSearch(20, time.Microsecond, nil)
	c.RecordRemove(time.Microsecond, nil)
	c.RecordBuild(42, time.Second, nil)

	got := counters(t, reg)
	assert.Equal(t, 1.0, got["ngt_operations_total/insert/ok"])
	assert.Equal(t, 1.0, got["ngt_operations_total/insert/error"])
	assert.Equal(t, 1.0, got["ngt_operations_total/batch_insert/error"])
	assert.Equal(t, 7.0, got["ngt_batch_items_total/ok"])
	assert.Equal(t, 3.0, got["ngt_batch_items_total/error"])
	assert.Equal(t, 1.0, got["ngt_operations_total/search/ok"])
	assert.Equal(t, 1.0, got["ngt_search_result_size"])
	assert.Equal(t, 1.0, got["ngt_operations_total/remove/ok"])
	assert.Equal(t, 42.0, got["ngt_build_linked_objects_total"])
	assert.Equal(t, 1.0, got["ngt_operation_latency_seconds/build/ok"])
}

func TestPrometheusCollectorDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	_, err = NewPrometheusCollector(reg)
	var are prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &are)

	c, err := NewPrometheusCollector(nil)
	require.NoError(t, err)
	c.RecordSearch(0, time.Microsecond, nil)
}

func TestPrometheusCollectorWithIndex(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	prop := ngtgo.NewProperty()
	require.NoError(t, prop.SetDimension(2))
	idx, err := ngtgo.CreateGraphAndTreeInMemory(prop, ngtgo.WithMetricsCollector(c))
	require.NoError(t, err)
	defer idx.Close()

	_, err = idx.Insert([]float32{1, 2})
	require.NoError(t, err)
	_, err = idx.Insert([]float32{1})
	require.Error(t, err)
	_, err = idx.Search([]float32{1, 2}, 1, 0, -1)
	require.NoError(t, err)

	got := counters(t, reg)
	assert.Equal(t, 1.0, got["ngt_operations_total/insert/ok"])
	assert.Equal(t, 1.0, got["ngt_operations_total/insert/error"])
	assert.Equal(t, 1.0, got["ngt_operations_total/search/ok"])
}
