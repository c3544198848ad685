// Package metrics stores application gauges and counters in an embedded
// tstorage time-series database under the workdir.
package metrics

import (
	"path"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
)

var (
	storage  tstorage.Storage
	mu       sync.Mutex
	counters = map[string]int64{}
)

// InitMetrics opens the metrics store under workdir/data/metrics.
func InitMetrics(workdir string) error {
	var err error
	storage, err = tstorage.NewStorage(
		tstorage.WithDataPath(path.Join(workdir, "data", "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithPartitionDuration(24*time.Hour),
	)
	return err
}

// SetGauge writes the current value of a gauge metric.
func SetGauge(name string, value int64) {
	if storage == nil {
		return
	}
	_ = storage.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: float64(value)},
		},
	})
}

// IncrCounter increments a monotonic counter and records the new total.
func IncrCounter(name string, delta int64) {
	mu.Lock()
	counters[name] += delta
	total := counters[name]
	mu.Unlock()
	SetGauge(name, total)
}

// Select returns data points for a metric in [start, end].
func Select(name string, start, end int64) ([]*tstorage.DataPoint, error) {
	if storage == nil {
		return nil, nil
	}
	return storage.Select(name, nil, start, end)
}

func Close() error {
	if storage == nil {
		return nil
	}
	return storage.Close()
}
