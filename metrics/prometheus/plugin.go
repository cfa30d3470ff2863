package prometheus

import (
	"fmt"

	"github.com/linchenxuan/sinklog/metrics"
	"github.com/linchenxuan/sinklog/plugin"
)

const _factoryName = "prometheus"

// Register adds the prometheus reporter factory to m.
func Register(m *plugin.Manager) {
	m.RegisterFactory(&factory{})
}

type factory struct{}

// Type returns the plugin type.
func (f *factory) Type() plugin.Type {
	return plugin.Metrics
}

// Name returns the name of the plugin implementation.
func (f *factory) Name() string {
	return _factoryName
}

// ConfigType returns an empty struct that represents the plugin's configuration.
// This struct will be populated by the manager using mapstructure.
func (f *factory) ConfigType() any {
	return &ReporterConfig{}
}

// Setup starts a reporter and adds it to the process-wide reporter list.
func (f *factory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*ReporterConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T", cfgAny)
	}

	p := NewReporter(cfg)
	if err := p.Start(); err != nil {
		return nil, err
	}
	metrics.AddMetricsReporter(p)
	return p, nil
}

// Destroy removes the reporter from the reporter list and stops it.
func (f *factory) Destroy(p plugin.Plugin) {
	if prom, ok := p.(*Reporter); ok {
		metrics.RemoveMetricsReporter(prom)
		prom.Stop()
	}
}
