package config

import (
	"fmt"

	"github.com/aqlhr/ingest/internal/db"
	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// StorageConfig points at the object storage API documents are
// downloaded from.
type StorageConfig struct {
	BaseURL    string
	ServiceKey string
}

// EmbedderConfig points at the embedding service used for best-effort
// vector generation. Disabled leaves documents without vectors, which is
// a valid state.
type EmbedderConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Model   string
}

// ImportConfig tunes the batch sizes of the row import pipeline.
type ImportConfig struct {
	BatchSize        int
	DiagnosticsChunk int
}

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig
	Database db.Config
	Storage  StorageConfig
	Embedder EmbedderConfig
	Import   ImportConfig
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: db.DefaultConfig(),
		Storage: StorageConfig{
			BaseURL: "http://localhost:54321",
		},
		Embedder: EmbedderConfig{
			Enabled: false,
			Model:   "text-embedding-3-small",
		},
		Import: ImportConfig{
			BatchSize:        300,
			DiagnosticsChunk: 500,
		},
	}
}

// Load reads config.yaml from configPath and applies environment
// overrides with the AQLHR_ prefix (e.g. AQLHR_DATABASE_HOST).
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("AQLHR")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.host")
	v.BindEnv("server.port")
	v.BindEnv("storage.base_url")
	v.BindEnv("storage.service_key")
	v.BindEnv("embedder.enabled")
	v.BindEnv("embedder.base_url")
	v.BindEnv("embedder.api_key")
	v.BindEnv("embedder.model")

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.host") {
		cfg.Server.Host = v.GetString("server.host")
	}
	if v.IsSet("server.port") {
		cfg.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("storage.base_url") {
		cfg.Storage.BaseURL = v.GetString("storage.base_url")
	}
	if v.IsSet("storage.service_key") {
		cfg.Storage.ServiceKey = v.GetString("storage.service_key")
	}
	if v.IsSet("embedder.enabled") {
		cfg.Embedder.Enabled = v.GetBool("embedder.enabled")
	}
	if v.IsSet("embedder.base_url") {
		cfg.Embedder.BaseURL = v.GetString("embedder.base_url")
	}
	if v.IsSet("embedder.api_key") {
		cfg.Embedder.APIKey = v.GetString("embedder.api_key")
	}
	if v.IsSet("embedder.model") {
		cfg.Embedder.Model = v.GetString("embedder.model")
	}
	if v.IsSet("import.batch_size") {
		cfg.Import.BatchSize = v.GetInt("import.batch_size")
	}
	if v.IsSet("import.diagnostics_chunk") {
		cfg.Import.DiagnosticsChunk = v.GetInt("import.diagnostics_chunk")
	}

	return cfg, nil
}
