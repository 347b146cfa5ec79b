package baseline

import (
	"github.com/railzwaylabs/metertrack/internal/baseline/repository"
	"github.com/railzwaylabs/metertrack/internal/baseline/service"
	"go.uber.org/fx"
)

var Module = fx.Module("baseline.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
