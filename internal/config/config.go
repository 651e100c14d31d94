package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the ordering backend.
type Config struct {
	HTTP     HTTPConfig
	Menu     MenuConfig
	Storage  StorageConfig
	RabbitMQ RabbitMQConfig
}

// HTTPConfig holds the HTTP server configuration.
type HTTPConfig struct {
	Port int
}

// MenuConfig points at the static menu catalog file.
type MenuConfig struct {
	Path string
}

// StorageConfig selects the durable order store. All fields are optional;
// when none is usable the service runs on the in-memory store.
type StorageConfig struct {
	// AzureConnectionString is a classic storage-account connection string.
	AzureConnectionString string
	// AzureAccountName enables identity-based access when no connection
	// string is present.
	AzureAccountName string
	// Container is the blob container holding order records.
	Container string
	// PostgresURL is a pgx connection string for the Postgres variant.
	PostgresURL string
}

// RabbitMQConfig holds the optional event publisher configuration.
type RabbitMQConfig struct {
	URL string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTP: HTTPConfig{Port: 8080},
		Menu: MenuConfig{Path: "menu.json"},
		Storage: StorageConfig{
			AzureConnectionString: os.Getenv("AZURE_STORAGE_CONNECTION_STRING"),
			AzureAccountName:      os.Getenv("AZURE_STORAGE_ACCOUNT"),
			Container:             "orders",
			PostgresURL:           os.Getenv("DATABASE_URL"),
		},
		RabbitMQ: RabbitMQConfig{URL: os.Getenv("RABBITMQ_URL")},
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT value %q: %w", v, err)
		}
		cfg.HTTP.Port = port
	}

	if v := os.Getenv("MENU_PATH"); v != "" {
		cfg.Menu.Path = v
	}

	if v := os.Getenv("ORDERS_CONTAINER"); v != "" {
		cfg.Storage.Container = v
	}

	return cfg, nil
}

// AzureServiceURL returns the blob endpoint for identity-based access.
func (c *StorageConfig) AzureServiceURL() string {
	return fmt.Sprintf("https://%s.blob.core.windows.net", c.AzureAccountName)
}
