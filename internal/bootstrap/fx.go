package bootstrap

import "go.uber.org/fx"

// Module provides the schema gate and holds startup until it opens.
var Module = fx.Module("bootstrap",
	fx.Provide(NewSchemaGate),
	fx.Invoke(EnforceSchemaGate),
)
