// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the dialog driving loop. A nil
// *Metrics is valid and every recording method becomes a no-op, so the
// driver can hold an always-present field regardless of whether metrics
// are enabled.
type Metrics struct {
	config   *MetricsConfig
	registry *prometheus.Registry

	drivingSteps             *prometheus.CounterVec
	toolCalls                *prometheus.CounterVec
	diligenceBudgetExhausted *prometheus.CounterVec
	pendingSubdialogs        *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance from configuration. It returns
// (nil, nil) when metrics are disabled, matching the nil-receiver no-op
// convention used by every recording method below.
func NewMetrics(cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	cfg.SetDefaults()

	m := &Metrics{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	m.drivingSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.config.Namespace,
			Subsystem:   "dialog",
			Name:        "driving_steps_total",
			Help:        "Total number of driving-loop steps taken across all dialogs",
			ConstLabels: m.config.ConstLabels,
		},
		[]string{"agent_id"},
	)

	m.toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.config.Namespace,
			Subsystem:   "dialog",
			Name:        "tool_calls_total",
			Help:        "Total number of tool calls dispatched by the driver",
			ConstLabels: m.config.ConstLabels,
		},
		[]string{"tool_name", "outcome"},
	)

	m.diligenceBudgetExhausted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.config.Namespace,
			Subsystem:   "dialog",
			Name:        "diligence_budget_exhausted_total",
			Help:        "Total number of times a dialog's diligence budget was exhausted",
			ConstLabels: m.config.ConstLabels,
		},
		[]string{"agent_id"},
	)

	m.pendingSubdialogs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.config.Namespace,
			Subsystem:   "dialog",
			Name:        "pending_subdialogs",
			Help:        "Number of subdialogs a root dialog is currently waiting on",
			ConstLabels: m.config.ConstLabels,
		},
		[]string{"root_id"},
	)

	m.registry.MustRegister(m.drivingSteps, m.toolCalls, m.diligenceBudgetExhausted, m.pendingSubdialogs)

	return m, nil
}

// RecordDrivingStep records one driving-loop step for agentID.
func (m *Metrics) RecordDrivingStep(agentID string) {
	if m == nil {
		return
	}
	m.drivingSteps.WithLabelValues(agentID).Inc()
}

// RecordToolCall records a tool dispatch. outcome is "ok", "tool_error", or
// "unknown_call" — matching the ERR_TOOL_EXECUTION / ERR_UNKNOWN_CALL
// distinction the driver surfaces to the model.
func (m *Metrics) RecordToolCall(toolName, outcome string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(toolName, outcome).Inc()
}

// RecordDiligenceBudgetExhausted records a dialog's auto-continuation loop
// hitting its round budget without the model voluntarily yielding control.
func (m *Metrics) RecordDiligenceBudgetExhausted(agentID string) {
	if m == nil {
		return
	}
	m.diligenceBudgetExhausted.WithLabelValues(agentID).Inc()
}

// SetPendingSubdialogs sets the number of subdialogs rootID is currently
// waiting on.
func (m *Metrics) SetPendingSubdialogs(rootID string, count int) {
	if m == nil {
		return
	}
	m.pendingSubdialogs.WithLabelValues(rootID).Set(float64(count))
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint. A nil
// receiver serves 503, so wiring it unconditionally into a mux is safe.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
