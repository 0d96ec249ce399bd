package consoleauth

import (
	"errors"
	"net/http"

	"github.com/hostwire/consoleauth/gateway"
	internalaudit "github.com/hostwire/consoleauth/internal/audit"
	internalmetrics "github.com/hostwire/consoleauth/internal/metrics"
	"github.com/hostwire/consoleauth/permission"
	"github.com/hostwire/consoleauth/session"
)

// Builder assembles an [Engine]. Configure it with the With methods and
// call [Builder.Build] exactly once.
type Builder struct {
	config Config

	httpClient *http.Client
	volatile   session.Storage
	durable    session.Storage
	table      *permission.Table
	auditSink  AuditSink

	built bool
}

// New creates a Builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the backend authentication service location.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.Gateway.BaseURL = baseURL
	return b
}

// WithHTTPClient overrides the gateway's HTTP client, e.g. for tests.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithVolatileStorage sets the session-scoped persistence tier. Defaults to
// in-memory storage.
func (b *Builder) WithVolatileStorage(storage session.Storage) *Builder {
	b.volatile = storage
	return b
}

// WithDurableStorage sets the remember-me persistence tier (SQLite, Redis,
// or any [session.Storage]). Without one, remember-me logins fall back to
// the volatile tier.
func (b *Builder) WithDurableStorage(storage session.Storage) *Builder {
	b.durable = storage
	return b
}

// WithPermissionTable replaces the default role catalog. The table is
// frozen during Build if the caller has not frozen it already.
func (b *Builder) WithPermissionTable(table *permission.Table) *Builder {
	b.table = table
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process metrics collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the Engine. A Builder is
// single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	client, err := gateway.NewClient(gateway.Config{
		BaseURL:    b.config.Gateway.BaseURL,
		Timeout:    b.config.Gateway.Timeout,
		UserAgent:  b.config.Gateway.UserAgent,
		HTTPClient: b.httpClient,
	})
	if err != nil {
		return nil, err
	}

	table := b.table
	if table == nil {
		table = permission.DefaultTable()
	} else {
		table.Freeze()
	}

	metrics := internalmetrics.New(internalmetrics.Config{
		Enabled:       b.config.Metrics.Enabled,
		EnableLatency: b.config.Metrics.EnableLatencyHistograms,
	})

	engine := &Engine{
		config:  b.config,
		gateway: client,
		store:   session.NewStore(b.volatile, b.durable),
		table:   table,
		machine: newLoginMachine(),
		refresh: &refreshCoordinator{},
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    b.config.Audit.Enabled,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
			OnDrop:     func() { metrics.Inc(internalmetrics.MetricAuditDropped) },
		}, b.auditSink),
		metrics: metrics,
	}

	b.built = true
	return engine, nil
}
