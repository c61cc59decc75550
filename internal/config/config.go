// Package config loads the ledger tool configuration from YAML, the process
// environment and an optional .env file.
package config

import (
	"encoding/json"
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/rxtech-lab/argo-ledger/internal/cache"
	"github.com/rxtech-lab/argo-ledger/internal/ledger"
	"github.com/rxtech-lab/argo-ledger/internal/reconcile"
	"github.com/rxtech-lab/argo-ledger/internal/simulation"
	"github.com/rxtech-lab/argo-ledger/internal/version"
	"github.com/rxtech-lab/argo-ledger/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables that override values from the config file.
const (
	EnvLedgerPath = "LEDGER_PATH"
	EnvBackupDir  = "LEDGER_BACKUP_DIR"
	EnvLogLevel   = "LOG_LEVEL"
)

const (
	DefaultLedgerPath = "stats.txt"
	DefaultFooter     = "Если нашли ошибку = t.me/admin"
)

type Config struct {
	Version    string           `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=argo-ledger version this file was written for"`
	Ledger     LedgerConfig     `yaml:"ledger" json:"ledger" jsonschema:"title=Ledger,description=Location and layout of the ledger document"`
	Simulation SimulationConfig `yaml:"simulation" json:"simulation" jsonschema:"title=Simulation,description=Reference simulation parameters"`
	Cache      CacheConfig      `yaml:"cache" json:"cache" jsonschema:"title=Cache,description=Stats cache settings"`
	Log        LogConfig        `yaml:"log" json:"log" jsonschema:"title=Log,description=Logger settings"`
}

type LedgerConfig struct {
	Path      string `yaml:"path" json:"path" validate:"required" jsonschema:"title=Path,description=Path of the ledger text file"`
	BackupDir string `yaml:"backup_dir,omitempty" json:"backup_dir,omitempty" jsonschema:"title=Backup Directory,description=Directory for timestamped backups; defaults to the ledger directory"`
	Marker    string `yaml:"marker" json:"marker" validate:"required" jsonschema:"title=Marker,description=Separator line delimiting the summary block"`
	Footer    string `yaml:"footer,omitempty" json:"footer,omitempty" jsonschema:"title=Footer,description=Line written at the end of the summary header"`
}

type SimulationConfig struct {
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance" validate:"gt=0" jsonschema:"title=Initial Balance,description=Starting balance of the reference simulations,exclusiveMinimum=0"`
	RiskPercent    float64 `yaml:"risk_percent" json:"risk_percent" validate:"gt=0,lte=100" jsonschema:"title=Risk Percent,description=Share of the balance staked per trade,exclusiveMinimum=0,maximum=100"`
	Leverage       float64 `yaml:"leverage" json:"leverage" validate:"gt=0" jsonschema:"title=Leverage,description=Leverage applied to every trade,exclusiveMinimum=0"`
}

type CacheConfig struct {
	CustomTTL       time.Duration `yaml:"custom_ttl" json:"custom_ttl" validate:"gte=0" jsonschema:"title=Custom TTL,description=How long custom simulation results are kept (e.g. 10m)"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval" validate:"gte=0" jsonschema:"title=Cleanup Interval,description=How often expired simulation results are purged"`
	TradesPerPage   int           `yaml:"trades_per_page" json:"trades_per_page" validate:"gt=0" jsonschema:"title=Trades Per Page,description=Page size of the trade listing,minimum=1"`
}

type LogConfig struct {
	Level    string `yaml:"level" json:"level" validate:"oneof=debug info warn error" jsonschema:"title=Level,enum=debug,enum=info,enum=warn,enum=error"`
	Encoding string `yaml:"encoding" json:"encoding" validate:"oneof=json console" jsonschema:"title=Encoding,enum=json,enum=console"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cacheDefaults := cache.DefaultConfig()

	return Config{
		Ledger: LedgerConfig{
			Path:   DefaultLedgerPath,
			Marker: ledger.DefaultMarker,
			Footer: DefaultFooter,
		},
		Simulation: SimulationConfig{
			InitialBalance: simulation.ReferenceInitialBalance,
			RiskPercent:    simulation.ReferenceRiskPercent,
			Leverage:       simulation.ReferenceLeverage,
		},
		Cache: CacheConfig{
			CustomTTL:       cacheDefaults.CustomTTL,
			CleanupInterval: cacheDefaults.CleanupInterval,
			TradesPerPage:   cacheDefaults.TradesPerPage,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (if path is not
// empty), the given .env files and finally the process environment.
// Missing .env files are ignored; a missing config file is an error.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config %s", path)
		}
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}

		if err := godotenv.Load(file); err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to load env file %s", file)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLedgerPath); v != "" {
		c.Ledger.Path = v
	}

	if v := os.Getenv(EnvBackupDir); v != "" {
		c.Ledger.BackupDir = v
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate checks field constraints and, when set, that Version is compatible
// with the running build.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if err := version.Supports(c.Version); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidVersion, "config version is not supported", err)
	}

	return nil
}

// StatsCache returns the cache settings for cache.NewStatsCache.
func (c Config) StatsCache() cache.Config {
	return cache.Config{
		InitialBalance:  c.Simulation.InitialBalance,
		RiskPercent:     c.Simulation.RiskPercent,
		Leverage:        c.Simulation.Leverage,
		CustomTTL:       c.Cache.CustomTTL,
		CleanupInterval: c.Cache.CleanupInterval,
		TradesPerPage:   c.Cache.TradesPerPage,
	}
}

// Reconciler returns the settings for reconcile.NewReconciler.
func (c Config) Reconciler() reconcile.Config {
	return reconcile.Config{
		Marker: c.Ledger.Marker,
		Footer: c.Ledger.Footer,
	}
}

// GenerateSchema generates a JSON schema for Config
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{
					Type:    "string",
					Pattern: `^([0-9]+(\.[0-9]+)?(ns|us|ms|s|m|h))+$`,
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "argo-ledger-config"
	schema.Description = "Configuration schema for argo-ledger"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for Config
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
