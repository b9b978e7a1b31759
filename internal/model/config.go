package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// BackendConfig selects and configures the relational store holding the
// three datasets.
type BackendConfig struct {
	// Driver is "postgres" (hosted backend) or "sqlite" (local file).
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN is the PostgreSQL connection string.
	DSN string `mapstructure:"dsn" yaml:"dsn"`

	// SQLitePath is the local database file, also used for preferences
	// and notification history regardless of Driver.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	// QueryTimeout bounds every hosted query.
	QueryTimeout time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`

	// ListenChannel, when set, is a PostgreSQL NOTIFY channel whose
	// payload names a dataset kind to re-poll immediately.
	ListenChannel string `mapstructure:"listen_channel" yaml:"listen_channel"`
}

// PollConfig holds the poll intervals of each dataset and of the
// workflow status view.
type PollConfig struct {
	Medications  time.Duration `mapstructure:"medications" yaml:"medications"`
	UnmetNeeds   time.Duration `mapstructure:"unmet_needs" yaml:"unmet_needs"`
	Tactics      time.Duration `mapstructure:"tactics" yaml:"tactics"`
	Workflows    time.Duration `mapstructure:"workflows" yaml:"workflows"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	Cooldown     time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
}

// Interval returns the poll interval configured for kind.
func (p PollConfig) Interval(kind DatasetKind) time.Duration {
	switch kind {
	case KindMedications:
		return p.Medications
	case KindUnmetNeeds:
		return p.UnmetNeeds
	case KindTactics:
		return p.Tactics
	}
	return 0
}

// WorkflowConfig points the dashboard at the workflow relay.
type WorkflowConfig struct {
	RelayURL       string   `mapstructure:"relay_url" yaml:"relay_url"`
	WorkflowIDs    []string `mapstructure:"workflow_ids" yaml:"workflow_ids"`
	ExecutionLimit int      `mapstructure:"execution_limit" yaml:"execution_limit"`
}

// UserConfig identifies the person using the dashboard.
type UserConfig struct {
	Email string `mapstructure:"email" yaml:"email"`
}

// NotificationsConfig controls the desktop notification adapter.
type NotificationsConfig struct {
	// Desktop is "auto" (ask on first use) or "denied".
	Desktop string `mapstructure:"desktop" yaml:"desktop"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	File   string `mapstructure:"file" yaml:"file"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// AppConfig is the top-level dashboard configuration.
type AppConfig struct {
	Backend       BackendConfig       `mapstructure:"backend" yaml:"backend"`
	Poll          PollConfig          `mapstructure:"poll" yaml:"poll"`
	Workflow      WorkflowConfig      `mapstructure:"workflow" yaml:"workflow"`
	User          UserConfig          `mapstructure:"user" yaml:"user"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
	MetricsAddr   string              `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/medistream/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "medistream")
}

// setDefaults registers the default of every key so missing keys and
// a missing file resolve to the same values.
func setDefaults(v *viper.Viper) {
	dir := configDir()

	v.SetDefault("backend.driver", DriverSQLite)
	v.SetDefault("backend.dsn", "")
	v.SetDefault("backend.sqlite_path", filepath.Join(dir, "medistream.db"))
	v.SetDefault("backend.query_timeout", "10s")
	v.SetDefault("backend.listen_channel", "")

	v.SetDefault("poll.medications", "30s")
	v.SetDefault("poll.unmet_needs", "30s")
	v.SetDefault("poll.tactics", "30s")
	v.SetDefault("poll.workflows", "10s")
	v.SetDefault("poll.fetch_timeout", "30s")
	v.SetDefault("poll.cooldown", "5s")

	v.SetDefault("workflow.relay_url", "http://localhost:8090")
	v.SetDefault("workflow.workflow_ids", []string{})
	v.SetDefault("workflow.execution_limit", 10)

	v.SetDefault("user.email", "")
	v.SetDefault("notifications.desktop", "auto")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dir, "medistream.log"))
	v.SetDefault("log.pretty", false)

	v.SetDefault("metrics_addr", "")
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults are used. Every key can be
// overridden with a MEDISTREAM_ environment variable
// (e.g. MEDISTREAM_BACKEND_DSN).
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("MEDISTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks the combinations viper cannot express.
func (c *AppConfig) Validate() error {
	switch c.Backend.Driver {
	case DriverSQLite:
	case DriverPostgres:
		// The DSN may also live in the keyring; main checks it after
		// resolving credentials.
	default:
		return fmt.Errorf("unknown backend.driver %q", c.Backend.Driver)
	}

	for _, kind := range Kinds() {
		if c.Poll.Interval(kind) <= 0 {
			return fmt.Errorf("poll.%s must be positive", kind)
		}
	}

	if len(c.Workflow.WorkflowIDs) > 3 {
		return fmt.Errorf("workflow.workflow_ids holds at most 3 ids, got %d", len(c.Workflow.WorkflowIDs))
	}

	return nil
}
