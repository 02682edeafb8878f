package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName    string        `yaml:"serviceName"    envconfig:"SERVICE_NAME"`
	HTTPPort       string        `yaml:"httpPort"       envconfig:"HTTP_PORT"`
	DatabaseDriver string        `yaml:"databaseDriver" envconfig:"DATABASE_DRIVER"`
	PostgresDSN    string        `yaml:"postgresDsn"    envconfig:"POSTGRES_DSN"`
	SQLitePath     string        `yaml:"sqlitePath"     envconfig:"SQLITE_PATH"`
	KafkaBrokers   []string      `yaml:"kafkaBrokers"   envconfig:"KAFKA_BROKERS"`
	AuditLogDir    string        `yaml:"auditLogDir"    envconfig:"AUDIT_LOG_DIR"`
	VoterHashKey   string        `yaml:"voterHashSecret" envconfig:"VOTER_HASH_SECRET"`
	SigningSeed    string        `yaml:"signingSeed"    envconfig:"SIGNING_SEED"`
	TieBreak       []string      `yaml:"tieBreakCriteria" envconfig:"TIE_BREAK_CRITERIA"`
	PollInterval   time.Duration `yaml:"workerPollInterval" envconfig:"WORKER_POLL_INTERVAL"`

	EnableWindowCloser    bool `yaml:"enableWindowCloser"    envconfig:"ENABLE_WINDOW_CLOSER"`
	EnableDeadlineSweeper bool `yaml:"enableDeadlineSweeper" envconfig:"ENABLE_DEADLINE_SWEEPER"`
	EnableVerdictConsumer bool `yaml:"enableVerdictConsumer" envconfig:"ENABLE_VERDICT_CONSUMER"`
}

func defaults() Config {
	return Config{
		ServiceName:           "cau-eleitoral",
		HTTPPort:              "8080",
		DatabaseDriver:        DriverSQLite,
		SQLitePath:            "file:cau-eleitoral?mode=memory&cache=shared",
		KafkaBrokers:          []string{"localhost:9092"},
		TieBreak:              []string{"incumbency", "registration_order", "draw"},
		PollInterval:          5 * time.Second,
		EnableWindowCloser:    true,
		EnableDeadlineSweeper: true,
		EnableVerdictConsumer: true,
	}
}

// Load resolves configuration from defaults, the optional YAML file named by
// CONFIG_FILE and then the environment. Environment values win.
func Load() (Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

func LoadFile(configFile string) (Config, error) {
	cfg := defaults()

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("error processing environment: %w", err)
	}

	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	cfg.TieBreak = compact(cfg.TieBreak)
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: POSTGRES_DSN is required for the postgres driver", ErrInvalidConfig)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH is required for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.DatabaseDriver)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: WORKER_POLL_INTERVAL must be positive", ErrInvalidConfig)
	}
	return nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
