package consoleauth

import (
	"errors"
	"time"

	"github.com/hostwire/consoleauth/routeguard"
)

// Config defines the engine's tunable surface. Instances are configured
// during initialization and treated as immutable afterwards.
type Config struct {
	Gateway GatewayConfig
	Routes  routeguard.Paths
	Refresh RefreshConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
GATEWAY CONFIG
====================================
*/

// GatewayConfig locates the backend authentication service.
type GatewayConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig tunes the token refresh coordinator.
type RefreshConfig struct {
	// Timeout bounds the single in-flight refresh call. The winner runs on
	// its own deadline, detached from whichever request happened to trigger
	// it, so one cancelled caller cannot fail every waiter.
	Timeout time.Duration
	// ProactiveWindow refreshes tokens that expire within the window before
	// a request is sent, avoiding a guaranteed 401 round-trip.
	ProactiveWindow time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls in-process metrics collection.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			Timeout:   15 * time.Second,
			UserAgent: "consoleauth/1",
		},
		Routes: routeguard.DefaultPaths(),
		Refresh: RefreshConfig{
			Timeout:         10 * time.Second,
			ProactiveWindow: 30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}

func validateConfig(cfg Config) error {
	if cfg.Gateway.BaseURL == "" {
		return errors.New("config: gateway base URL required")
	}
	if cfg.Gateway.Timeout <= 0 {
		return errors.New("config: gateway timeout must be positive")
	}
	if cfg.Refresh.Timeout <= 0 {
		return errors.New("config: refresh timeout must be positive")
	}
	if cfg.Refresh.ProactiveWindow < 0 {
		return errors.New("config: proactive refresh window cannot be negative")
	}
	return nil
}
