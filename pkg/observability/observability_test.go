package observability

import "testing"

func TestNewMetrics_Disabled(t *testing.T) {
	m, err := NewMetrics(&MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	if m != nil {
		t.Fatal("expected nil Metrics when disabled")
	}

	// Nil-receiver recording must never panic.
	m.RecordDrivingStep("root-agent")
	m.RecordToolCall("search", "ok")
	m.RecordDiligenceBudgetExhausted("root-agent")
	m.SetPendingSubdialogs("root-1", 3)

	if m.Handler() == nil {
		t.Error("Handler() should return a 503 handler even when disabled")
	}
	if m.Registry() != nil {
		t.Error("Registry() should be nil when disabled")
	}
}

func TestNewMetrics_Enabled(t *testing.T) {
	m, err := NewMetrics(&MetricsConfig{Enabled: true})
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	if m == nil {
		t.Fatal("expected non-nil Metrics when enabled")
	}

	m.RecordDrivingStep("root-agent")
	m.RecordToolCall("search", "ok")
	m.RecordToolCall("search", "tool_error")
	m.RecordDiligenceBudgetExhausted("root-agent")
	m.SetPendingSubdialogs("root-1", 2)

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, want := range []string{
		"dominds_dialog_driving_steps_total",
		"dominds_dialog_tool_calls_total",
		"dominds_dialog_diligence_budget_exhausted_total",
		"dominds_dialog_pending_subdialogs",
	} {
		if !names[want] {
			t.Errorf("missing metric family %q, got %v", want, names)
		}
	}
}

func TestMetricsConfig_SetDefaults(t *testing.T) {
	cfg := &MetricsConfig{Enabled: true}
	cfg.SetDefaults()

	if cfg.Endpoint != DefaultMetricsPath {
		t.Errorf("Endpoint = %q, want %q", cfg.Endpoint, DefaultMetricsPath)
	}
	if cfg.Namespace != DefaultServiceName {
		t.Errorf("Namespace = %q, want %q", cfg.Namespace, DefaultServiceName)
	}
}

func TestMetricsConfig_Validate(t *testing.T) {
	if err := (&MetricsConfig{Enabled: false}).Validate(); err != nil {
		t.Errorf("disabled config should always validate, got %v", err)
	}

	if err := (&MetricsConfig{Enabled: true, Endpoint: "/metrics"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := (&MetricsConfig{Enabled: true}).Validate(); err == nil {
		t.Error("expected error for enabled config with empty endpoint")
	}
}
