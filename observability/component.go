package observability

import (
	"context"
	"sync"

	"github.com/kbukum/repoauth/component"
)

// Component installs the providers on Start and flushes them on Stop.
type Component struct {
	cfg Config

	mu       sync.Mutex
	shutdown ShutdownFunc
	started  bool
}

var _ component.Component = (*Component)(nil)

// NewComponent creates an observability component.
func NewComponent(cfg Config) *Component {
	return &Component{cfg: cfg}
}

// Name returns the component name.
func (c *Component) Name() string {
	return "observability"
}

// Start installs the tracer and meter providers enabled in the config.
func (c *Component) Start(ctx context.Context) error {
	cfg := c.cfg
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	shutdown, err := Init(ctx, cfg)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = shutdown
	if err != nil {
		return err
	}
	c.started = true
	return nil
}

// Stop flushes pending telemetry.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	shutdown := c.shutdown
	c.shutdown = nil
	c.started = false
	c.mu.Unlock()
	if shutdown == nil {
		return nil
	}
	return shutdown(ctx)
}

// Health reports degraded when export is disabled.
func (c *Component) Health(_ context.Context) component.Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case !c.started:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case !c.cfg.Tracing && !c.cfg.Metrics:
		h.Status = component.StatusDegraded
		h.Message = "export disabled"
	}
	return h
}
