// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"fmt"

	"github.com/AccelByte/extend-ads-policy/pkg/placement"
	"github.com/AccelByte/extend-ads-policy/pkg/provider"
	providerBuiltin "github.com/AccelByte/extend-ads-policy/pkg/provider/builtin"
	"github.com/sirupsen/logrus"
)

// InitProviders creates the ad network registry from the placement config
// and selects the active backend.
//
// Provider configs live in the placement YAML (config/placements.yaml).
// To add a new ad network:
// 1. Create your backend in pkg/provider/builtin/ (see simulated.go)
// 2. Implement the Provider interface
// 3. Register the factory in pkg/provider/builtin/init.go
// 4. Add a provider entry to config/placements.yaml
// 5. Point AD_PROVIDER at its name
func InitProviders(placements *placement.Config, active string) (*provider.Registry, provider.Provider, error) {
	providerBuiltin.RegisterBuiltinProviders()

	configs := placements.Providers
	if len(configs) == 0 {
		// No providers declared: fall back to a single simulated backend so
		// the decision pipeline stays exercisable.
		configs = []provider.Config{{
			Name:    providerBuiltin.SimulatedProviderType,
			Type:    providerBuiltin.SimulatedProviderType,
			Enabled: true,
		}}
		logrus.Warnf("no providers configured, falling back to %q", providerBuiltin.SimulatedProviderType)
	}

	registry := provider.NewRegistry()
	if err := provider.RegisterProviders(registry, configs); err != nil {
		return nil, nil, fmt.Errorf("failed to register providers: %w", err)
	}

	logrus.Infof("registered %d ad providers", registry.Count())

	backend := registry.Get(active)
	if backend == nil {
		return nil, nil, fmt.Errorf("active provider %q not found in registry", active)
	}
	logrus.Infof("active ad provider: %s", backend.Name())

	return registry, backend, nil
}
