package httpclient

import (
	"context"
	"sync"

	"github.com/kbukum/repoauth/component"
	"github.com/kbukum/repoauth/repository"
)

// Component wraps a Client with lifecycle management.
type Component struct {
	location *repository.Location
	config   Config
	opts     []Option

	mu     sync.RWMutex
	client *Client
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a component. The client is created in Start.
func NewComponent(loc *repository.Location, cfg Config, opts ...Option) *Component {
	return &Component{location: loc, config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	return "httpclient"
}

// Start creates the client.
func (c *Component) Start(_ context.Context) error {
	client, err := New(c.location, c.config, c.opts...)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	return nil
}

// Stop closes idle connections.
func (c *Component) Stop(ctx context.Context) error {
	if client := c.Client(); client != nil {
		return client.Close(ctx)
	}
	return nil
}

// Health reports healthy once the client exists.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.Client() == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	} else if c.location != nil {
		h.Message = c.location.URL()
	}
	return h
}

// Client returns the client, or nil before Start.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}
