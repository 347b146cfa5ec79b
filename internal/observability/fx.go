package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		NewLogger,
		NewRegistry,
		func(reg *prometheus.Registry) prometheus.Registerer { return reg },
		NewHTTPMetrics,
		NewTelemetry,
		NewInstruments,
	),
)
