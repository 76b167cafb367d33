package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/noiseboard/noiseboard/pkg/api511"
	"github.com/noiseboard/noiseboard/pkg/ctdf"
	"github.com/noiseboard/noiseboard/pkg/predictions"
	"github.com/noiseboard/noiseboard/pkg/predictor"
	"github.com/noiseboard/noiseboard/pkg/util"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

const (
	DefaultBaudRate       = 300
	DefaultRenderInterval = time.Minute
	// DefaultRefreshEvery matches the default stop count so six stops stay inside 60 requests an hour.
	DefaultRefreshEvery = 6
	DefaultBurst        = 6
)

type Config struct {
	APIKey         string `yaml:"api_key"`
	LegacyToken    string `yaml:"legacy_token"`
	JSONEndpoint   string `yaml:"json_endpoint" validate:"omitempty,url"`
	LegacyEndpoint string `yaml:"legacy_endpoint" validate:"omitempty,url"`

	Serial  SerialConfig  `yaml:"serial"`
	Polling PollingConfig `yaml:"polling"`
	Cache   CacheConfig   `yaml:"cache"`

	Services []ctdf.ServiceConfig `yaml:"services" validate:"required,min=1,dive"`
}

type SerialConfig struct {
	// Device is the serial port of the sign. Empty runs the board on the console only.
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate" validate:"gt=0"`
}

type PollingConfig struct {
	RenderInterval  time.Duration           `yaml:"render_interval" validate:"gt=0"`
	RefreshEvery    int                     `yaml:"refresh_every" validate:"gte=1"`
	RequestTimeout  time.Duration           `yaml:"request_timeout" validate:"gt=0"`
	RequestsPerHour int                     `yaml:"requests_per_hour" validate:"gte=0"`
	Burst           int                     `yaml:"burst" validate:"gte=1"`
	Workers         int                     `yaml:"workers" validate:"gte=1"`
	OnFetchFailure  predictor.FailurePolicy `yaml:"on_fetch_failure"`
	DropDeparted    bool                    `yaml:"drop_departed"`
}

type CacheConfig struct {
	// TTL of cached upstream responses. Zero disables the cache.
	TTL time.Duration `yaml:"ttl" validate:"gte=0"`
}

func defaults() *Config {
	return &Config{
		JSONEndpoint:   api511.DefaultJSONEndpoint,
		LegacyEndpoint: api511.DefaultLegacyEndpoint,
		Serial: SerialConfig{
			BaudRate: DefaultBaudRate,
		},
		Polling: PollingConfig{
			RenderInterval:  DefaultRenderInterval,
			RefreshEvery:    DefaultRefreshEvery,
			RequestTimeout:  api511.DefaultTimeout,
			RequestsPerHour: api511.DefaultRequestsPerHour,
			Burst:           DefaultBurst,
			Workers:         predictor.DefaultWorkers,
			OnFetchFailure:  predictor.KeepStale,
		},
	}
}

// Default is the built in configuration with the embedded service catalog.
func Default() *Config {
	config := defaults()

	if err := yaml.Unmarshal(defaultCatalog, config); err != nil {
		panic(fmt.Sprintf("embedded catalog: %s", err))
	}

	return config
}

// LoadFile reads a YAML config over the built in defaults. Services listed in the file replace the
// embedded catalog entirely.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return config, nil
}

// Load builds the effective configuration: defaults, then the file at path if one is given, then the
// environment. The result is validated.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		var err error
		if config, err = LoadFile(path); err != nil {
			return nil, err
		}
	}

	config.ApplyEnvironment(util.GetEnvironmentVariables())

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) ApplyEnvironment(env map[string]string) {
	if value := env["NOISEBOARD_API_KEY"]; value != "" {
		c.APIKey = value
	}
	if value := env["NOISEBOARD_LEGACY_TOKEN"]; value != "" {
		c.LegacyToken = value
	}
	if value := env["NOISEBOARD_SERIAL_DEVICE"]; value != "" {
		c.Serial.Device = value
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, service := range c.Services {
		if seen[service.Headline()] {
			return fmt.Errorf("duplicate service %q", service.Headline())
		}
		seen[service.Headline()] = true
	}

	return nil
}

// RequireCredentials checks every configured feed has the key or token it needs. It runs after command
// line overrides are applied.
func (c *Config) RequireCredentials() error {
	var errs []error

	for _, service := range c.Services {
		switch service.APIVariant {
		case ctdf.APIVariantJSON:
			if c.APIKey == "" {
				errs = append(errs, fmt.Errorf("service %s needs an api key", service.Headline()))
			}
		case ctdf.APIVariantLegacyXML:
			if c.LegacyToken == "" {
				errs = append(errs, fmt.Errorf("service %s needs a legacy token", service.Headline()))
			}
		}
	}

	return errors.Join(errs...)
}

// ClientConfig is the upstream client configuration described by c.
func (c *Config) ClientConfig() api511.Config {
	return api511.Config{
		APIKey:         c.APIKey,
		LegacyToken:    c.LegacyToken,
		JSONEndpoint:   c.JSONEndpoint,
		LegacyEndpoint: c.LegacyEndpoint,
		Timeout:        c.Polling.RequestTimeout,
		Limiter:        api511.NewRequestLimiter(c.Polling.RequestsPerHour, c.Polling.Burst),
	}
}

func (c *Config) PredictorOptions() predictor.Options {
	return predictor.Options{
		Workers:   c.Polling.Workers,
		OnFailure: c.Polling.OnFetchFailure,
		Policy: predictions.Policy{
			DropDeparted: c.Polling.DropDeparted,
		},
	}
}
