package relay

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileConfig is the relay's configuration file layout.
type FileConfig struct {
	Relay struct {
		Addr        string        `mapstructure:"addr"`
		UpstreamURL string        `mapstructure:"upstream_url"`
		APIKey      string        `mapstructure:"api_key"`
		Token       string        `mapstructure:"token"`
		Timeout     time.Duration `mapstructure:"timeout"`
	} `mapstructure:"relay"`
	Log struct {
		Level  string `mapstructure:"level"`
		Pretty bool   `mapstructure:"pretty"`
	} `mapstructure:"log"`
}

// LoadConfig reads path (optional) and MEDISTREAM_RELAY_* variables.
func LoadConfig(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetDefault("relay.addr", ":8090")
	v.SetDefault("relay.upstream_url", "")
	v.SetDefault("relay.api_key", "")
	v.SetDefault("relay.token", "")
	v.SetDefault("relay.timeout", "15s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetEnvPrefix("MEDISTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(*os.PathError); !ok {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	var cfg FileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Relay.UpstreamURL == "" {
		return nil, fmt.Errorf("relay.upstream_url is required")
	}
	if cfg.Relay.APIKey == "" {
		return nil, fmt.Errorf("relay.api_key is required")
	}
	return &cfg, nil
}

// Server builds the relay Config out of the file configuration.
func (c *FileConfig) Server() Config {
	return Config{
		UpstreamURL: c.Relay.UpstreamURL,
		APIKey:      c.Relay.APIKey,
		Token:       c.Relay.Token,
		Timeout:     c.Relay.Timeout,
	}
}
