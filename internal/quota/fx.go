package quota

import (
	"github.com/railzwaylabs/metertrack/internal/quota/service"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(service.NewService),
)
