// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metric wraps prometheus client_golang collectors behind the
// small Counter/Gauge/Averager/Registry interfaces the rest of this
// module programs against, so call sites never import prometheus
// directly.
package metric

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrMetricNotFound is returned when a metric is not found.
var ErrMetricNotFound = errors.New("metric not found")

// Averager tracks a running average, backed by a prometheus Summary so
// it is exported alongside registered counters and gauges.
type Averager interface {
	Observe(value float64)
	Read() float64
}

// averager wraps a prometheus Summary.
type averager struct {
	mu      sync.RWMutex
	sum     float64
	count   int64
	summary prometheus.Summary
}

// Observe adds a value to the average.
func (a *averager) Observe(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sum += value
	a.count++
	if a.summary != nil {
		a.summary.Observe(value)
	}
}

// Read returns the current average.
func (a *averager) Read() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// Counter tracks a monotonically increasing count.
type Counter interface {
	Inc()
	Add(delta int64)
	Read() int64
}

// counter wraps a prometheus Counter.
type counter struct {
	mu  sync.RWMutex
	n   int64
	ctr prometheus.Counter
}

// Inc increments the counter by 1.
func (c *counter) Inc() {
	c.Add(1)
}

// Add adds delta to the counter.
func (c *counter) Add(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n += delta
	if c.ctr != nil {
		c.ctr.Add(float64(delta))
	}
}

// Read returns the current count.
func (c *counter) Read() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.n
}

// Gauge tracks a value that can go up or down.
type Gauge interface {
	Set(value float64)
	Add(delta float64)
	Read() float64
}

// gauge wraps a prometheus Gauge.
type gauge struct {
	mu sync.RWMutex
	v  float64
	g  prometheus.Gauge
}

// Set sets the gauge to a specific value.
func (g *gauge) Set(value float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.v = value
	if g.g != nil {
		g.g.Set(value)
	}
}

// Add adds delta to the gauge.
func (g *gauge) Add(delta float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.v += delta
	if g.g != nil {
		g.g.Add(delta)
	}
}

// Read returns the current value.
func (g *gauge) Read() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.v
}

// Registry is a namespaced collection of metrics backed by a
// prometheus.Registerer.
type Registry interface {
	NewCounter(name, help string) Counter
	NewGauge(name, help string) Gauge
	NewAverager(name, help string) Averager
	GetCounter(name string) (Counter, error)
	GetGauge(name string) (Gauge, error)
	GetAverager(name string) (Averager, error)
}

// registry wraps a prometheus.Registerer and tracks metrics by name.
type registry struct {
	namespace string
	reg       prometheus.Registerer

	counters  sync.Map // map[string]Counter
	gauges    sync.Map // map[string]Gauge
	averagers sync.Map // map[string]Averager
}

// NewRegistry returns a Registry that registers its collectors under
// namespace against reg. A nil reg is valid; collectors then track
// state locally without being exported.
func NewRegistry(namespace string, reg prometheus.Registerer) Registry {
	return &registry{namespace: namespace, reg: reg}
}

// NewCounter creates and registers a new counter.
func (r *registry) NewCounter(name, help string) Counter {
	pc := prometheus.NewCounter(prometheus.CounterOpts{Namespace: r.namespace, Name: name, Help: help})
	if r.reg != nil {
		_ = r.reg.Register(pc)
	}
	c := &counter{ctr: pc}
	r.counters.Store(name, c)
	return c
}

// NewGauge creates and registers a new gauge.
func (r *registry) NewGauge(name, help string) Gauge {
	pg := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: r.namespace, Name: name, Help: help})
	if r.reg != nil {
		_ = r.reg.Register(pg)
	}
	g := &gauge{g: pg}
	r.gauges.Store(name, g)
	return g
}

// NewAverager creates and registers a new averager.
func (r *registry) NewAverager(name, help string) Averager {
	ps := prometheus.NewSummary(prometheus.SummaryOpts{Namespace: r.namespace, Name: name, Help: help})
	if r.reg != nil {
		_ = r.reg.Register(ps)
	}
	a := &averager{summary: ps}
	r.averagers.Store(name, a)
	return a
}

// GetCounter returns a previously created counter by name.
func (r *registry) GetCounter(name string) (Counter, error) {
	if v, ok := r.counters.Load(name); ok {
		return v.(Counter), nil
	}
	return nil, ErrMetricNotFound
}

// GetGauge returns a previously created gauge by name.
func (r *registry) GetGauge(name string) (Gauge, error) {
	if v, ok := r.gauges.Load(name); ok {
		return v.(Gauge), nil
	}
	return nil, ErrMetricNotFound
}

// GetAverager returns a previously created averager by name.
func (r *registry) GetAverager(name string) (Averager, error) {
	if v, ok := r.averagers.Load(name); ok {
		return v.(Averager), nil
	}
	return nil, ErrMetricNotFound
}
