package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the per-directory config file name.
	ConfigFileName = ".fleetdash.yaml"
	// GlobalConfigDir is the directory for global config, relative to home.
	GlobalConfigDir = ".config/fleetdash"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. FLEETDASH_DASHBOARD_URL.
	EnvPrefix = "FLEETDASH"
)

// Load reads config from the specified path. Environment overrides apply
// on top of the file.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'fleetdash init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .fleetdash.yaml in the current directory
// 3. .fleetdash.yaml in parent directories (stops at home)
// 4. ~/.config/fleetdash/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir || (home != "" && dir == home) {
			break
		}
		dir = parent
	}

	if home != "" {
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads the config found by Find(explicit), or defaults plus
// environment overrides when there is no file. The returned path is empty
// when no file was used.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

// GlobalConfigPath returns ~/.config/fleetdash/config.yaml.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(GlobalConfigDir, GlobalConfigFile)
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// newViper creates a viper instance with defaults registered for every key
// so that environment overrides resolve.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults mirrors DefaultConfig in viper's key space.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("dashboard.url", d.Dashboard.URL)
	v.SetDefault("dashboard.token", d.Dashboard.Token)
	v.SetDefault("dashboard.transport", d.Dashboard.Transport)
	v.SetDefault("dashboard.timeout", d.Dashboard.Timeout.String())
	v.SetDefault("refresh", d.Refresh.String())
	v.SetDefault("online_window", d.OnlineWindow.String())
	v.SetDefault("display.show_flag", d.Display.ShowFlag)
	v.SetDefault("display.show_net_transfer", d.Display.ShowNetTransfer)
	v.SetDefault("display.layout", d.Display.Layout)
	v.SetDefault("display.sort", d.Display.Sort)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.retention", d.History.Retention.String())
	v.SetDefault("local.enabled", d.Local.Enabled)
	v.SetDefault("local.name", d.Local.Name)
}

// parseConfig converts viper state into a Config with paths expanded.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		where := "your config"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+where)
	}

	cfg.Dashboard.URL = strings.TrimRight(strings.TrimSpace(cfg.Dashboard.URL), "/")
	cfg.History.Path = ExpandTilde(Expand(cfg.History.Path))

	return cfg, nil
}
