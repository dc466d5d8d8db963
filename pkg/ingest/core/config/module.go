package config

import "go.uber.org/fx"

// Module provides the EnvironmentExpander. *Config itself is supplied by
// the application after LoadConfig.
var Module = fx.Options(
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
)
