package reading

import (
	"github.com/railzwaylabs/metertrack/internal/reading/repository"
	"github.com/railzwaylabs/metertrack/internal/reading/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reading.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
