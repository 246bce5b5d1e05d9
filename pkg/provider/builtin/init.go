package builtin

import (
	"github.com/AccelByte/extend-ads-policy/pkg/provider"
)

// RegisterBuiltinProviders registers all built-in provider types with the factory.
func RegisterBuiltinProviders() {
	provider.RegisterProviderType(SimulatedProviderType, func(config provider.Config) (provider.Provider, error) {
		return NewSimulated(config), nil
	})
}
