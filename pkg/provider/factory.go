package provider

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Factory is a function that creates a provider backend from a configuration.
type Factory func(config Config) (Provider, error)

// factories stores registered provider factories by type
var factories = make(map[string]Factory)

// RegisterProviderType registers a factory function for a provider type.
// This allows backend packages to register themselves without creating import cycles.
func RegisterProviderType(providerType string, factory Factory) {
	factories[providerType] = factory
	logrus.Debugf("registered provider type: %s", providerType)
}

// Create creates a provider instance based on the configuration.
// Returns an error if the provider type is unknown.
func Create(config Config) (Provider, error) {
	if !config.Enabled {
		logrus.Infof("skipping disabled provider: %s", config.Name)
		return nil, nil
	}

	logrus.Infof("creating provider: name=%s, type=%s", config.Name, config.Type)

	factory, exists := factories[config.Type]
	if !exists {
		return nil, fmt.Errorf("unknown provider type: %s", config.Type)
	}

	return factory(config)
}

// CreateAll creates multiple provider instances from a list of configurations.
// Returns all successfully created providers and any errors encountered.
func CreateAll(configs []Config) ([]Provider, []error) {
	var providers []Provider
	var errors []error

	for _, config := range configs {
		p, err := Create(config)
		if err != nil {
			errors = append(errors, fmt.Errorf("failed to create provider %s: %w", config.Name, err))
			continue
		}

		if p != nil {
			providers = append(providers, p)
		}
	}

	return providers, errors
}

// RegisterProviders registers multiple providers with the provided registry.
// This is a convenience function for service startup.
func RegisterProviders(registry *Registry, configs []Config) error {
	providers, errors := CreateAll(configs)

	if len(errors) > 0 {
		logrus.Warnf("encountered %d errors while creating providers", len(errors))
		for _, err := range errors {
			logrus.Warnf("provider creation error: %v", err)
		}
	}

	for _, p := range providers {
		if err := registry.Register(p); err != nil {
			return fmt.Errorf("failed to register provider %s: %w", p.Name(), err)
		}
	}

	logrus.Infof("registered %d providers", len(providers))
	return nil
}
