package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is built once at process start and passed down; no other package
// reads application settings from the environment.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	SquareClientID     string `env:"SQUARE_CLIENT_ID,required"`
	SquareClientSecret string `env:"SQUARE_CLIENT_SECRET,required"`
	// Must exactly match the redirect URI registered with Square.
	SquareRedirectURI string `env:"SQUARE_REDIRECT_URI,required"`
	SquareBaseURL     string `env:"SQUARE_BASE_URL" envDefault:"https://connect.squareup.com"`

	// Deep link that hands control back to the mobile app after the flow.
	AppRedirectURI string `env:"APP_REDIRECT_URI" envDefault:"blucollarbookingsflutterapp://square-success"`

	// When true every exchange must carry a company UUID and tokens are
	// persisted per company. When false the relay is single-tenant: nothing
	// is persisted and tokens travel back embedded in the deep link.
	RequireCompanyUUID bool `env:"REQUIRE_COMPANY_UUID" envDefault:"true"`

	GoogleCloudProject string `env:"GOOGLE_CLOUD_PROJECT"`
	// Base64-encoded service-account JSON, or @/path/to/file.
	StoreCredentials string `env:"STORE_CREDENTIALS"`
	StoreEndpoint    string `env:"STORE_ENDPOINT"`
	LocationID       string `env:"LOCATION_ID"`
	QueueName        string `env:"QUEUE_NAME" envDefault:"default"`
}

func Parse() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing environment: %s", err)
	}

	if cfg.GoogleCloudProject != "" && cfg.StoreCredentials == "" {
		return Config{}, fmt.Errorf("store credentials are missing: set STORE_CREDENTIALS")
	}

	return cfg, nil
}

// ResolveStoreCredentials decodes the configured credentials into the raw
// service-account JSON accepted by the datastore client.
func (c Config) ResolveStoreCredentials() ([]byte, error) {
	if c.StoreCredentials == "" {
		return nil, nil
	}

	if strings.HasPrefix(c.StoreCredentials, "@") {
		payload, err := os.ReadFile(strings.TrimPrefix(c.StoreCredentials, "@"))
		if err != nil {
			return nil, fmt.Errorf("error reading store-credentials file: %s", err)
		}

		return payload, nil
	}

	payload, err := base64.StdEncoding.DecodeString(c.StoreCredentials)
	if err != nil {
		return nil, fmt.Errorf("error base64-decoding store-credentials: %s", err)
	}

	return payload, nil
}
