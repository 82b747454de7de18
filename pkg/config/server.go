// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import "fmt"

// ServerConfig configures the `dominds serve` HTTP surface: a thin,
// contract-only adapter over the event bus plus the metrics endpoint.
type ServerConfig struct {
	// Host to bind to.
	Host string `yaml:"host,omitempty"`

	// Port to listen on.
	Port int `yaml:"port,omitempty"`

	// EnableMetrics exposes a Prometheus /metrics endpoint.
	EnableMetrics *bool `yaml:"enable_metrics,omitempty" jsonschema:"default=true"`

	// EnableEvents exposes /dialogs/{rootId}/events as a WebSocket.
	EnableEvents *bool `yaml:"enable_events,omitempty" jsonschema:"default=true"`

	// RunDir is the base directory under which per-dialog state lives
	// (".dialogs" by default, see the filesystem layout).
	RunDir string `yaml:"run_dir,omitempty"`

	// Mirror configures the optional SQL mirror index (component R).
	Mirror *MirrorConfig `yaml:"mirror,omitempty"`
}

// MirrorConfig configures the rebuildable SQL mirror index over the
// filesystem journal.
type MirrorConfig struct {
	// Enabled turns on the mirror. When false, listing dialogs falls back
	// to walking RunDir.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Database references an entry in the top-level databases section.
	Database string `yaml:"database,omitempty"`
}

// IsEnabled reports whether the SQL mirror is active.
func (c *MirrorConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// SetDefaults applies default values to ServerConfig.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.EnableMetrics == nil {
		enabled := true
		c.EnableMetrics = &enabled
	}
	if c.EnableEvents == nil {
		enabled := true
		c.EnableEvents = &enabled
	}
	if c.RunDir == "" {
		c.RunDir = ".dialogs"
	}
	if c.Mirror == nil {
		c.Mirror = &MirrorConfig{}
	}
}

// Validate checks the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RunDir == "" {
		return fmt.Errorf("run_dir is required")
	}
	if c.Mirror.IsEnabled() && c.Mirror.Database == "" {
		return fmt.Errorf("mirror.database is required when mirror.enabled is true")
	}
	return nil
}

// Address returns the HTTP listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MetricsEnabled reports whether /metrics should be registered.
func (c *ServerConfig) MetricsEnabled() bool {
	return c.EnableMetrics == nil || *c.EnableMetrics
}

// EventsEnabled reports whether the events WebSocket should be registered.
func (c *ServerConfig) EventsEnabled() bool {
	return c.EnableEvents == nil || *c.EnableEvents
}
