package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// EnforceSchemaGate refuses to start serving until `metertrack migrate`
// has brought the schema up to date.
func EnforceSchemaGate(lc fx.Lifecycle, gate SchemaGate, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := gate.MustBeActive(ctx); err != nil {
				log.Error("schema gate closed, run `metertrack migrate` first", zap.Error(err))
				return fmt.Errorf("schema gate: %w", err)
			}
			return nil
		},
	})
}
