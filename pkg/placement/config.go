package placement

import (
	"fmt"
	"os"
	"strings"

	"github.com/AccelByte/extend-ads-policy/pkg/provider"
	"gopkg.in/yaml.v3"
)

// Screen names bound by the default placement table.
const (
	ScreenHome           = "home"
	ScreenSearch         = "search"
	ScreenEpisodeDetails = "episode_details"
	ScreenLibrary        = "library"
	ScreenNowPlaying     = "now_playing"
)

// Banner creative sizes accepted by Validate.
const (
	SizeBanner          = "BANNER"
	SizeMediumRectangle = "MEDIUM_RECTANGLE"
	SizeAdaptive        = "ADAPTIVE"
)

// Config represents the complete ad placement configuration.
type Config struct {
	Banners      []BannerPlacement `yaml:"banners"`
	Interstitial FormatPlacement   `yaml:"interstitial"`
	Audio        FormatPlacement   `yaml:"audio"`
	Providers    []provider.Config `yaml:"providers,omitempty"`
}

// BannerPlacement binds one screen to its banner slot.
type BannerPlacement struct {
	Screen     string `yaml:"screen"`
	AdUnit     string `yaml:"ad_unit"`
	TestAdUnit string `yaml:"test_ad_unit,omitempty"`
	Size       string `yaml:"size,omitempty"`
}

// FormatPlacement holds the ad unit for a full-screen or audio format.
type FormatPlacement struct {
	AdUnit     string `yaml:"ad_unit"`
	TestAdUnit string `yaml:"test_ad_unit,omitempty"`
}

// AdUnitFor returns the production ad unit, or the test unit when test mode
// is on and one is configured.
func (p BannerPlacement) AdUnitFor(testMode bool) string {
	if testMode && p.TestAdUnit != "" {
		return p.TestAdUnit
	}
	return p.AdUnit
}

// AdUnitFor returns the production ad unit, or the test unit when test mode
// is on and one is configured.
func (p FormatPlacement) AdUnitFor(testMode bool) string {
	if testMode && p.TestAdUnit != "" {
		return p.TestAdUnit
	}
	return p.AdUnit
}

// DefaultConfig returns the built-in placement table.
func DefaultConfig() *Config {
	return &Config{
		Banners: []BannerPlacement{
			{Screen: ScreenHome, AdUnit: "/173142088/nc_banner_home_bottom", TestAdUnit: "/6499/example/banner", Size: SizeBanner},
			{Screen: ScreenSearch, AdUnit: "/173142088/nc_banner_search_inline", TestAdUnit: "/6499/example/banner", Size: SizeBanner},
			{Screen: ScreenEpisodeDetails, AdUnit: "/173142088/nc_banner_episode_details_bottom", TestAdUnit: "/6499/example/banner", Size: SizeBanner},
			{Screen: ScreenLibrary, AdUnit: "/173142088/nc_banner_library_bottom", TestAdUnit: "/6499/example/banner", Size: SizeBanner},
			{Screen: ScreenNowPlaying, AdUnit: "/173142088/nc_banner_now_playing_companion", TestAdUnit: "/6499/example/banner", Size: SizeMediumRectangle},
		},
		Interstitial: FormatPlacement{
			AdUnit:     "/173142088/nc_video_interstitial",
			TestAdUnit: "/6499/example/interstitial",
		},
		Audio: FormatPlacement{
			AdUnit: "/173142088/nc_audio_preroll",
		},
	}
}

// LoadConfig loads placement configuration from a YAML file.
// Supports environment variable expansion in the form ${VAR_NAME} or ${VAR_NAME:default}.
// An empty path returns the built-in default table.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read placement file %s: %w", path, err)
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	// Parse YAML
	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML placements: %w", err)
	}

	// Banners without an explicit size get the standard one
	for i := range config.Banners {
		if config.Banners[i].Size == "" {
			config.Banners[i].Size = SizeBanner
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid placements: %w", err)
	}

	return &config, nil
}

// Validate validates the placement table for common errors.
func (c *Config) Validate() error {
	// Check for duplicate screens
	screens := make(map[string]bool)
	for _, b := range c.Banners {
		if b.Screen == "" {
			return fmt.Errorf("banner placement with empty screen found")
		}
		if screens[b.Screen] {
			return fmt.Errorf("duplicate banner screen: %s", b.Screen)
		}
		screens[b.Screen] = true

		if b.AdUnit == "" {
			return fmt.Errorf("banner placement %s has empty ad unit", b.Screen)
		}

		switch b.Size {
		case "", SizeBanner, SizeMediumRectangle, SizeAdaptive:
		default:
			return fmt.Errorf("banner placement %s has unknown size: %s", b.Screen, b.Size)
		}
	}

	if c.Interstitial.AdUnit == "" {
		return fmt.Errorf("interstitial placement has empty ad unit")
	}

	if c.Audio.AdUnit == "" {
		return fmt.Errorf("audio placement has empty ad unit")
	}

	// Check for duplicate provider names
	names := make(map[string]bool)
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider config with empty name found")
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate provider name: %s", p.Name)
		}
		names[p.Name] = true

		if p.Type == "" {
			return fmt.Errorf("provider %s has empty type", p.Name)
		}
	}

	return nil
}

// BannerFor returns the banner placement for a screen.
func (c *Config) BannerFor(screen string) (BannerPlacement, bool) {
	for _, b := range c.Banners {
		if b.Screen == screen {
			return b, true
		}
	}
	return BannerPlacement{}, false
}

// Screens returns the configured banner screens in table order.
func (c *Config) Screens() []string {
	screens := make([]string, 0, len(c.Banners))
	for _, b := range c.Banners {
		screens = append(screens, b.Screen)
	}
	return screens
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		// Support ${VAR:default} syntax
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
