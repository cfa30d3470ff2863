// Package prometheus provides Prometheus metrics reporting functionality.
// The reporter converts metrics records to Prometheus collectors on a private
// registry and exposes them via an HTTP endpoint or a push gateway.
package prometheus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linchenxuan/sinklog/log"
	"github.com/linchenxuan/sinklog/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	_defaultChanSize     = 100000
	_defaultMetricPath   = "/metrics"
	_defaultHealthPath   = "/health"
	_serviceName         = "exporter"
	_healthCheckInterval = 30 * time.Second
	_pushTimeout         = 5 * time.Second
)

var errAlreadyStarted = errors.New("prometheus reporter already started")

// ReporterConfig contains configuration for the Prometheus reporter.
type ReporterConfig struct {
	Tag               string            `mapstructure:"tag"`               // Instance tag
	PushAddr          string            `mapstructure:"pushAddr"`          // Push gateway address
	PushIntervalSec   int               `mapstructure:"pushIntervalSec"`   // Push interval in seconds
	PushJobName       string            `mapstructure:"pushJobName"`       // Push job name
	UsePush           bool              `mapstructure:"usePush"`           // Enable push mode
	HTTPListenAddr    string            `mapstructure:"httpListenAddr"`    // HTTP listen address, empty disables the server
	MetricPath        string            `mapstructure:"metricPath"`        // Metrics HTTP path
	ExtLabels         map[string]string `mapstructure:"extLabels"`         // Labels added to every metric
	ChanSize          int               `mapstructure:"chanSize"`          // Capacity of the record queue
	EnableHealthCheck bool              `mapstructure:"enableHealthCheck"` // Enable health check
	HealthCheckPath   string            `mapstructure:"healthCheckPath"`   // Health check path
}

func (c *ReporterConfig) setDefaults() {
	if c.MetricPath == "" {
		c.MetricPath = _defaultMetricPath
	}
	if c.HealthCheckPath == "" {
		c.HealthCheckPath = _defaultHealthPath
	}
	if c.ChanSize <= 0 {
		c.ChanSize = _defaultChanSize
	}
	if c.PushIntervalSec <= 0 {
		c.PushIntervalSec = 10
	}
}

// Reporter implements metrics.Reporter on top of client_golang.
//
// Report only enqueues the record; a single aggregation goroutine owns the
// collectors, so the logging path never blocks on Prometheus.
type Reporter struct {
	cfg      *ReporterConfig
	registry *prometheus.Registry
	factory  promauto.Factory

	metricsChan chan metrics.Record
	metrics     map[string]*metricWrapper // owned by the aggregation goroutine

	promSvr *http.Server
	addr    net.Addr
	pusher  *push.Pusher

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
	stopped atomic.Bool

	dropped         atomic.Uint64
	healthStatus    atomic.Int32 // 0 healthy, 1 unhealthy
	lastHealthCheck atomic.Int64 // unix nano
}

// NewReporter creates a reporter. Nothing runs until Start is called.
func NewReporter(cfg *ReporterConfig) *Reporter {
	if cfg == nil {
		cfg = &ReporterConfig{}
	}
	cfg.setDefaults()

	registry := prometheus.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	return &Reporter{
		cfg:         cfg,
		registry:    registry,
		factory:     promauto.With(registry),
		metricsChan: make(chan metrics.Record, cfg.ChanSize),
		metrics:     map[string]*metricWrapper{},
		ctx:         ctx,
		cancel:      cancel,
	}
}

// FactoryName implements plugin.Plugin.
func (x *Reporter) FactoryName() string {
	return _factoryName
}

// Registry returns the private registry holding the converted metrics.
func (x *Reporter) Registry() *prometheus.Registry {
	return x.registry
}

// Handler serves the registry in the Prometheus text format.
func (x *Reporter) Handler() http.Handler {
	return promhttp.HandlerFor(x.registry, promhttp.HandlerOpts{})
}

// Addr returns the address of the HTTP server, nil when it is not running.
func (x *Reporter) Addr() net.Addr {
	return x.addr
}

// Dropped returns the number of records discarded because the queue was full.
func (x *Reporter) Dropped() uint64 {
	return x.dropped.Load()
}

// Report implements metrics.Reporter. It never blocks and never logs: a full
// queue only increments the drop counter.
func (x *Reporter) Report(r metrics.Record) {
	if x.stopped.Load() {
		return
	}
	select {
	case x.metricsChan <- *r.Clone():
	default:
		x.dropped.Add(1)
	}
}

// Start launches the aggregation goroutine, and the HTTP server, pusher and
// health check when configured.
func (x *Reporter) Start() error {
	if !x.started.CompareAndSwap(false, true) {
		return errAlreadyStarted
	}

	x.startAggregate()
	if x.cfg.HTTPListenAddr != "" {
		if err := x.startHTTPSvr(); err != nil {
			x.Stop()
			return err
		}
	}
	if x.cfg.UsePush {
		x.startPusher()
	}
	x.startHealthCheck()
	return nil
}

// Stop terminates every goroutine started by Start and closes the HTTP server.
func (x *Reporter) Stop() {
	if !x.stopped.CompareAndSwap(false, true) {
		return
	}
	x.cancel()
	if x.promSvr != nil {
		if err := x.promSvr.Close(); err != nil {
			log.Error().Append("stop prometheus http server: ", err).End()
		}
	}
	x.wg.Wait()
}

func (x *Reporter) startAggregate() {
	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		for {
			select {
			case rc := <-x.metricsChan:
				x.merge(&rc)
			case <-x.ctx.Done():
				return
			}
		}
	}()
}

func (x *Reporter) startHTTPSvr() error {
	l, err := net.Listen("tcp", x.cfg.HTTPListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", x.cfg.HTTPListenAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(x.cfg.MetricPath, x.Handler())
	if x.cfg.EnableHealthCheck {
		mux.HandleFunc(x.cfg.HealthCheckPath, x.healthCheckHandler)
	}

	x.addr = l.Addr()
	x.promSvr = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		if err := x.promSvr.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Append("prometheus http server: ", err).End()
		}
	}()
	log.Info().Logf("prometheus http listening on %s%s", l.Addr(), x.cfg.MetricPath).End()
	return nil
}

func (x *Reporter) startPusher() {
	x.pusher = push.New(x.cfg.PushAddr, x.cfg.PushJobName).Gatherer(x.registry)
	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		t := time.NewTicker(time.Second * time.Duration(x.cfg.PushIntervalSec))
		defer t.Stop()
		for {
			select {
			case <-x.ctx.Done():
				return
			case <-t.C:
				ctx, cancel := context.WithTimeout(x.ctx, _pushTimeout)
				if err := x.pusher.PushContext(ctx); err != nil {
					log.Warn().Append("prometheus push: ", err).End()
				}
				cancel()
			}
		}
	}()
}

func (x *Reporter) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status, code := "healthy", http.StatusOK
	if x.healthStatus.Load() != 0 {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	response := map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   _serviceName,
		"dropped":   x.Dropped(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response)
}

func (x *Reporter) startHealthCheck() {
	if !x.cfg.EnableHealthCheck {
		return
	}
	x.lastHealthCheck.Store(time.Now().UnixNano())

	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		t := time.NewTicker(_healthCheckInterval)
		defer t.Stop()
		for {
			select {
			case <-x.ctx.Done():
				return
			case <-t.C:
				x.performHealthCheck()
			}
		}
	}()
}

// performHealthCheck marks the reporter unhealthy while its queue is more
// than 90% full.
func (x *Reporter) performHealthCheck() {
	chanUsage := float64(len(x.metricsChan)) / float64(cap(x.metricsChan))
	if chanUsage > 0.9 {
		if x.healthStatus.Swap(1) == 0 {
			log.Warn().Logf("prometheus reporter unhealthy, queue usage %.2f", chanUsage).End()
		}
	} else {
		x.healthStatus.Store(0)
	}
	x.lastHealthCheck.Store(time.Now().UnixNano())
}

// merge folds a record into the collector identified by its group, name and
// dimensions, creating the collector on first use.
func (x *Reporter) merge(rc *metrics.Record) {
	key := x.getFullName(rc)
	if m, exist := x.metrics[key]; exist {
		if err := m.merge(rc); err != nil {
			log.Error().Append("prometheus merge: ", err).End()
		}
		return
	}

	m, err := newMetricWrapper(x.factory, rc, x.cfg.ExtLabels)
	if err != nil {
		log.Error().Append("prometheus register: ", err).End()
		return
	}
	x.metrics[key] = m
}

// getFullName identifies a record by group, name and its final label set:
// the external labels not overridden by a dimension, then the dimensions.
func (x *Reporter) getFullName(rc *metrics.Record) string {
	var sb strings.Builder
	sb.Grow(128)
	sb.WriteString(rc.Metrics().Group())
	sb.WriteString("*")
	sb.WriteString(rc.Metrics().Name())
	sb.WriteString("*")
	sb.WriteString(labelsKey(x.cfg.ExtLabels, rc.Dimensions()))
	sb.WriteString("*")
	sb.WriteString(labelsKey(rc.Dimensions(), nil))
	return sb.String()
}

// labelsKey renders labels in key order, skipping the keys present in skip.
func labelsKey(labels map[string]string, skip map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		if _, ok := skip[k]; ok {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(":")
		sb.WriteString(labels[k])
		sb.WriteString(",")
	}
	return sb.String()
}
