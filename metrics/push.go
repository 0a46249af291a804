package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
)

const (
	// DefaultTimeout is the default timeout for the remote write request.
	DefaultTimeout = 30 * time.Second
)

// PushConfig configures a PushRegistry.
type PushConfig struct {
	// URL is the base URL of the remote write endpoint (e.g., "http://localhost:8428").
	URL string
	// Prefix is prepended to every metric name, followed by an underscore.
	Prefix string
	// Job is the job label for all metrics.
	Job string
	// Instance is the instance label for all metrics.
	Instance string
	// Timeout is the HTTP client timeout. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// PushRegistry implements Registry for short-lived processes.
// Updates only touch in-memory values; Flush sends the current value of
// every series in a single remote write request.
type PushRegistry struct {
	cfg        PushConfig
	httpClient *http.Client

	mu     sync.Mutex
	series map[string]*pushSeries
}

// pushSeries is one named, labelled value awaiting Flush.
type pushSeries struct {
	name   string
	labels map[string]string
	value  float64
}

// NewPushRegistry creates a PushRegistry that writes to cfg.URL + "/api/v1/write".
func NewPushRegistry(cfg PushConfig) *PushRegistry {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &PushRegistry{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		series:     make(map[string]*pushSeries),
	}
}

// NewGauge creates a new push-based Gauge.
func (r *PushRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	return &pushMetric{registry: r, series: r.lookup(opts.Name, nil)}, nil
}

// NewCounter creates a new push-based Counter.
func (r *PushRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	return &pushMetric{registry: r, series: r.lookup(opts.Name, nil)}, nil
}

// NewCounterVec creates a new push-based CounterVec.
func (r *PushRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	return &pushCounterVec{registry: r, name: opts.Name, labels: labels}, nil
}

// lookup returns the series for name and labels, creating it on first use.
func (r *PushRegistry) lookup(name string, labels map[string]string) *pushSeries {
	key := seriesKey(name, labels)

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.series[key]; ok {
		return s
	}
	s := &pushSeries{name: name, labels: labels}
	r.series[key] = s
	return s
}

// Flush sends every series with its current value. Nothing is sent when no
// metric has been created.
func (r *PushRegistry) Flush(ctx context.Context) error {
	timeseries := r.snapshot()
	if len(timeseries) == 0 {
		return nil
	}

	data, err := proto.Marshal(&prompb.WriteRequest{Timeseries: timeseries})
	if err != nil {
		return fmt.Errorf("marshaling write request: %w", err)
	}
	compressed := snappy.Encode(nil, data)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL+"/api/v1/write", bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// snapshot converts every series to remote write format, sorted by key.
func (r *PushRegistry) snapshot() []prompb.TimeSeries {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.series))
	for k := range r.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now().UnixMilli()
	out := make([]prompb.TimeSeries, 0, len(keys))
	for _, k := range keys {
		s := r.series[k]
		out = append(out, prompb.TimeSeries{
			Labels:  r.promLabels(s),
			Samples: []prompb.Sample{{Value: s.value, Timestamp: now}},
		})
	}
	return out
}

func (r *PushRegistry) promLabels(s *pushSeries) []prompb.Label {
	name := s.name
	if r.cfg.Prefix != "" {
		name = r.cfg.Prefix + "_" + name
	}

	labels := make([]prompb.Label, 0, len(s.labels)+3)
	labels = append(labels, prompb.Label{Name: "__name__", Value: name})
	if r.cfg.Job != "" {
		labels = append(labels, prompb.Label{Name: "job", Value: r.cfg.Job})
	}
	if r.cfg.Instance != "" {
		labels = append(labels, prompb.Label{Name: "instance", Value: r.cfg.Instance})
	}

	names := make([]string, 0, len(s.labels))
	for k := range s.labels {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		labels = append(labels, prompb.Label{Name: k, Value: s.labels[k]})
	}
	return labels
}

// pushMetric implements Gauge and Counter on top of a buffered series.
type pushMetric struct {
	registry *PushRegistry
	series   *pushSeries
}

func (m *pushMetric) Set(v float64) {
	m.registry.mu.Lock()
	m.series.value = v
	m.registry.mu.Unlock()
}

func (m *pushMetric) Add(v float64) {
	m.registry.mu.Lock()
	m.series.value += v
	m.registry.mu.Unlock()
}

func (m *pushMetric) Inc() {
	m.Add(1)
}

// pushCounterVec implements CounterVec for push mode.
type pushCounterVec struct {
	registry *PushRegistry
	name     string
	labels   []string
}

func (c *pushCounterVec) With(labels prometheus.Labels) Counter {
	picked := make(map[string]string, len(c.labels))
	for _, l := range c.labels {
		picked[l] = labels[l]
	}
	return &pushMetric{registry: c.registry, series: c.registry.lookup(c.name, picked)}
}

// seriesKey builds a stable map key from a metric name and its labels.
func seriesKey(name string, labels map[string]string) string {
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return name + "{" + strings.Join(pairs, ",") + "}"
}
