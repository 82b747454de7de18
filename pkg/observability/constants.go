package observability

const (
	DefaultServiceName = "dominds"
	DefaultMetricsPath = "/metrics"
)
