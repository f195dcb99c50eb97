package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"mixmate/internal/models"
)

// AuthMethod represents different authentication methods platforms can use
type AuthMethod string

const (
	AuthMethodOAuth2 AuthMethod = "oauth2"
	AuthMethodJWT    AuthMethod = "jwt"
	AuthMethodAPIKey AuthMethod = "api_key"
)

// Platform names configured out of the box
var builtinPlatforms = []string{
	string(models.SourceSpotify),
	string(models.SourceYouTube),
	string(models.SourceAppleMusic),
	string(models.SourceTidal),
}

// PlatformConfig represents configuration for a single platform
type PlatformConfig struct {
	Name       string     `json:"name"`
	Enabled    bool       `json:"enabled"`
	AuthMethod AuthMethod `json:"auth_method"`

	// OAuth2 credentials (Spotify/Tidal client credentials, YouTube user consent)
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	TokenURL     string `json:"token_url,omitempty"`

	// JWT credentials (Apple Music developer token)
	KeyID   string `json:"key_id,omitempty"`
	TeamID  string `json:"team_id,omitempty"`
	KeyFile string `json:"key_file,omitempty"`

	// API key credentials (YouTube Data API)
	APIKey string `json:"api_key,omitempty"`

	BaseURL   string `json:"base_url,omitempty"`
	RateLimit int    `json:"rate_limit,omitempty"` // requests per minute
	Timeout   int    `json:"timeout,omitempty"`    // seconds
}

// TimeoutDuration returns the request timeout, defaulting to 10s
func (p *PlatformConfig) TimeoutDuration() time.Duration {
	if p.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.Timeout) * time.Second
}

// Config holds all configuration for the application
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	GinMode  string `envconfig:"GIN_MODE" default:"debug"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	BaseURL  string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	MongodbURL      string `envconfig:"MONGODB_URL" required:"true"`
	MongodbDatabase string `envconfig:"MONGODB_DATABASE" default:"mixmate"`
	ValkeyURL       string `envconfig:"VALKEY_URL" required:"true"`

	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`
	SpotifyRedirectURL  string `envconfig:"SPOTIFY_REDIRECT_URL"`

	YouTubeAPIKey       string `envconfig:"YOUTUBE_API_KEY"`
	YouTubeClientID     string `envconfig:"YOUTUBE_CLIENT_ID"`
	YouTubeClientSecret string `envconfig:"YOUTUBE_CLIENT_SECRET"`
	YouTubeRedirectURL  string `envconfig:"YOUTUBE_REDIRECT_URL"`

	AppleMusicKeyID   string `envconfig:"APPLE_MUSIC_KEY_ID"`
	AppleMusicTeamID  string `envconfig:"APPLE_MUSIC_TEAM_ID"`
	AppleMusicKeyFile string `envconfig:"APPLE_MUSIC_KEY_FILE"`

	TidalClientID     string `envconfig:"TIDAL_CLIENT_ID"`
	TidalClientSecret string `envconfig:"TIDAL_CLIENT_SECRET"`

	// Aggregation and export tuning
	SourceTimeout       time.Duration `envconfig:"SOURCE_TIMEOUT" default:"8s"`
	ExportConcurrency   int           `envconfig:"EXPORT_CONCURRENCY" default:"4"`
	ExportRatePerSecond float64       `envconfig:"EXPORT_RATE_PER_SECOND" default:"5"`

	// Platform configurations (dynamically loaded)
	Platforms map[string]*PlatformConfig `json:"-"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	cfg.Platforms = make(map[string]*PlatformConfig)

	if err := cfg.loadBuiltinPlatforms(); err != nil {
		return nil, fmt.Errorf("failed to load builtin platforms: %w", err)
	}

	if err := cfg.loadDynamicPlatforms(); err != nil {
		return nil, fmt.Errorf("failed to load dynamic platforms: %w", err)
	}

	return &cfg, nil
}

// loadBuiltinPlatforms loads configuration for known platforms
func (c *Config) loadBuiltinPlatforms() error {
	if c.SpotifyClientID != "" && c.SpotifyClientSecret != "" {
		c.Platforms["spotify"] = &PlatformConfig{
			Name:         "spotify",
			Enabled:      true,
			AuthMethod:   AuthMethodOAuth2,
			ClientID:     c.SpotifyClientID,
			ClientSecret: c.SpotifyClientSecret,
			TokenURL:     "https://accounts.spotify.com/api/token",
			BaseURL:      "https://api.spotify.com/v1",
			RateLimit:    100,
			Timeout:      10,
		}
	}

	if c.YouTubeAPIKey != "" {
		c.Platforms["youtube"] = &PlatformConfig{
			Name:         "youtube",
			Enabled:      true,
			AuthMethod:   AuthMethodAPIKey,
			APIKey:       c.YouTubeAPIKey,
			ClientID:     c.YouTubeClientID,
			ClientSecret: c.YouTubeClientSecret,
			BaseURL:      "https://youtube.googleapis.com/",
			RateLimit:    60,
			Timeout:      10,
		}
	}

	if c.AppleMusicKeyID != "" && c.AppleMusicTeamID != "" && c.AppleMusicKeyFile != "" {
		c.Platforms["apple_music"] = &PlatformConfig{
			Name:       "apple_music",
			Enabled:    true,
			AuthMethod: AuthMethodJWT,
			KeyID:      c.AppleMusicKeyID,
			TeamID:     c.AppleMusicTeamID,
			KeyFile:    c.AppleMusicKeyFile,
			BaseURL:    "https://api.music.apple.com/v1",
			RateLimit:  120,
			Timeout:    10,
		}
	}

	if c.TidalClientID != "" && c.TidalClientSecret != "" {
		c.Platforms["tidal"] = &PlatformConfig{
			Name:         "tidal",
			Enabled:      true,
			AuthMethod:   AuthMethodOAuth2,
			ClientID:     c.TidalClientID,
			ClientSecret: c.TidalClientSecret,
			TokenURL:     "https://auth.tidal.com/v1/oauth2/token",
			BaseURL:      "https://openapi.tidal.com/v2",
			RateLimit:    60,
			Timeout:      10,
		}
	}

	return nil
}

// loadDynamicPlatforms applies PLATFORM_<NAME>_* overrides for every builtin
// platform not already configured from the dedicated variables
func (c *Config) loadDynamicPlatforms() error {
	for _, name := range builtinPlatforms {
		if _, exists := c.Platforms[name]; exists {
			continue
		}
		platformCfg, err := ConfigFromEnvironment(name)
		if err != nil {
			return fmt.Errorf("platform %s: %w", name, err)
		}
		if platformCfg != nil {
			c.Platforms[name] = platformCfg
		}
	}
	return nil
}

// Validate fails when no music platform can be searched at all
func (c *Config) Validate() error {
	if len(c.GetEnabledPlatforms()) == 0 {
		return fmt.Errorf("%w: configure at least one of Spotify, YouTube, Apple Music or Tidal", models.ErrFatalConfig)
	}
	return nil
}

// GetPlatformConfig returns configuration for a specific platform
func (c *Config) GetPlatformConfig(platform string) (*PlatformConfig, bool) {
	config, exists := c.Platforms[platform]
	return config, exists
}

// GetEnabledPlatforms returns the enabled platform names in sorted order
func (c *Config) GetEnabledPlatforms() []string {
	var platforms []string
	for name, config := range c.Platforms {
		if config.Enabled {
			platforms = append(platforms, name)
		}
	}
	sort.Strings(platforms)
	return platforms
}

// ValidatePlatformConfig checks that a platform carries the credentials its
// auth method needs
func ValidatePlatformConfig(config *PlatformConfig) error {
	if config.Name == "" {
		return fmt.Errorf("platform name cannot be empty")
	}

	var missing []string
	switch config.AuthMethod {
	case AuthMethodOAuth2:
		if config.ClientID == "" {
			missing = append(missing, "client_id")
		}
		if config.ClientSecret == "" {
			missing = append(missing, "client_secret")
		}
	case AuthMethodJWT:
		if config.KeyID == "" {
			missing = append(missing, "key_id")
		}
		if config.TeamID == "" {
			missing = append(missing, "team_id")
		}
		if config.KeyFile == "" {
			missing = append(missing, "key_file")
		}
	case AuthMethodAPIKey:
		if config.APIKey == "" {
			missing = append(missing, "api_key")
		}
	default:
		return fmt.Errorf("%s: unsupported auth method %q", config.Name, config.AuthMethod)
	}
	if config.BaseURL == "" {
		missing = append(missing, "base_url")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%s (%s) is missing %s", config.Name, config.AuthMethod, strings.Join(missing, ", "))
	}
	return nil
}

// IsEnabled checks if a platform is enabled
func (c *Config) IsEnabled(platform string) bool {
	config, exists := c.GetPlatformConfig(platform)
	return exists && config.Enabled
}

// RedirectURL returns the OAuth redirect configured for a platform's user consent flow
func (c *Config) RedirectURL(platform string) string {
	switch platform {
	case "spotify":
		return c.SpotifyRedirectURL
	case "youtube":
		return c.YouTubeRedirectURL
	}
	return ""
}

// ConfigFromEnvironment creates a platform config from environment variables
// using a standardized naming convention: PLATFORM_<NAME>_<KEY>
func ConfigFromEnvironment(platformName string) (*PlatformConfig, error) {
	prefix := fmt.Sprintf("PLATFORM_%s", strings.ToUpper(platformName))

	var envConfig struct {
		Enabled    bool   `envconfig:"ENABLED" default:"false"`
		AuthMethod string `envconfig:"AUTH_METHOD" default:"api_key"`

		ClientID     string `envconfig:"CLIENT_ID"`
		ClientSecret string `envconfig:"CLIENT_SECRET"`
		TokenURL     string `envconfig:"TOKEN_URL"`

		KeyID   string `envconfig:"KEY_ID"`
		TeamID  string `envconfig:"TEAM_ID"`
		KeyFile string `envconfig:"KEY_FILE"`

		APIKey string `envconfig:"API_KEY"`

		BaseURL   string `envconfig:"BASE_URL"`
		RateLimit int    `envconfig:"RATE_LIMIT" default:"60"`
		Timeout   int    `envconfig:"TIMEOUT" default:"10"`
	}

	if err := envconfig.Process(prefix, &envConfig); err != nil {
		return nil, err
	}

	if !envConfig.Enabled {
		return nil, nil
	}

	config := &PlatformConfig{
		Name:         platformName,
		Enabled:      envConfig.Enabled,
		AuthMethod:   AuthMethod(envConfig.AuthMethod),
		ClientID:     envConfig.ClientID,
		ClientSecret: envConfig.ClientSecret,
		TokenURL:     envConfig.TokenURL,
		KeyID:        envConfig.KeyID,
		TeamID:       envConfig.TeamID,
		KeyFile:      envConfig.KeyFile,
		APIKey:       envConfig.APIKey,
		BaseURL:      envConfig.BaseURL,
		RateLimit:    envConfig.RateLimit,
		Timeout:      envConfig.Timeout,
	}

	return config, ValidatePlatformConfig(config)
}
