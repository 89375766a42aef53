package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the scaffoldctl configuration.
type Config struct {
	APIURL      string `mapstructure:"api_url" yaml:"api_url"`
	Token       string `mapstructure:"token" yaml:"token"`
	ProjectID   string `mapstructure:"project_id" yaml:"project_id"`
	AdminSecret string `mapstructure:"admin_secret" yaml:"admin_secret,omitempty"`
	// PEM used by `token` to sign development tokens.
	KeyPath string `mapstructure:"key_path" yaml:"key_path,omitempty"`

	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	MaxAttempts     int `mapstructure:"max_attempts" yaml:"max_attempts"`
	HTTPTimeoutSec  int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".scaffold", "config.yaml"), nil
}

// LoadConfig reads cfgFile (default ~/.scaffold/config.yaml), then SCAFFOLD_*
// environment variables on top. A missing file is not an error.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCAFFOLD")
	v.AutomaticEnv()

	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("token", "")
	v.SetDefault("project_id", "")
	v.SetDefault("admin_secret", "")
	v.SetDefault("key_path", filepath.Join(os.TempDir(), "scaffold-dev-jwt.pem"))
	v.SetDefault("poll_interval_sec", 2)
	v.SetDefault("max_attempts", 90)
	v.SetDefault("http_timeout_sec", 30)

	path := cfgFile
	if path == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// SaveConfig writes c to cfgFile (default ~/.scaffold/config.yaml).
func SaveConfig(c *Config, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	// holds the bearer token
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
