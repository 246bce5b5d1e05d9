package provider

// Config is the configuration for one ad provider backend.
// This is typically loaded from YAML configuration files.
type Config struct {
	Name       string                 `yaml:"name" json:"name"`
	Type       string                 `yaml:"type" json:"type"` // e.g., "simulated"
	Enabled    bool                   `yaml:"enabled" json:"enabled"`
	Parameters map[string]interface{} `yaml:"parameters" json:"parameters"` // Backend-specific parameters
}

// GetInt retrieves an integer value from parameters with a default.
func (c *Config) GetInt(key string, defaultValue int) int {
	if val, ok := c.Parameters[key]; ok {
		if intVal, ok := val.(int); ok {
			return intVal
		}
	}
	return defaultValue
}

// GetFloat retrieves a float value from parameters with a default.
func (c *Config) GetFloat(key string, defaultValue float64) float64 {
	if val, ok := c.Parameters[key]; ok {
		if floatVal, ok := val.(float64); ok {
			return floatVal
		}
	}
	return defaultValue
}

// GetString retrieves a string value from parameters with a default.
func (c *Config) GetString(key string, defaultValue string) string {
	if val, ok := c.Parameters[key]; ok {
		if strVal, ok := val.(string); ok {
			return strVal
		}
	}
	return defaultValue
}

// GetBool retrieves a boolean value from parameters with a default.
func (c *Config) GetBool(key string, defaultValue bool) bool {
	if val, ok := c.Parameters[key]; ok {
		if boolVal, ok := val.(bool); ok {
			return boolVal
		}
	}
	return defaultValue
}
