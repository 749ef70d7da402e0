package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Transport values for DashboardConfig.Transport.
const (
	TransportWebSocket = "ws"
	TransportPoll      = "poll"
)

// Layout values for DisplayConfig.Layout.
const (
	LayoutCard   = "card"
	LayoutInline = "inline"
)

// Config represents the complete fleetdash configuration file.
type Config struct {
	Version      int             `yaml:"version" json:"version" mapstructure:"version" validate:"gte=0"`
	Dashboard    DashboardConfig `yaml:"dashboard" json:"dashboard" mapstructure:"dashboard"`
	Refresh      time.Duration   `yaml:"refresh" json:"refresh" mapstructure:"refresh"`
	OnlineWindow time.Duration   `yaml:"online_window" json:"online_window" mapstructure:"online_window"`
	Display      DisplayConfig   `yaml:"display" json:"display" mapstructure:"display"`
	History      HistoryConfig   `yaml:"history" json:"history" mapstructure:"history"`
	Local        LocalConfig     `yaml:"local" json:"local" mapstructure:"local"`
}

// DashboardConfig points at the monitoring dashboard API.
type DashboardConfig struct {
	// URL is the dashboard base URL, e.g. https://status.example.com.
	URL string `yaml:"url" json:"url" mapstructure:"url" validate:"omitempty,url"`

	// Token is sent as a bearer token when set.
	Token string `yaml:"token,omitempty" json:"token,omitempty" mapstructure:"token"`

	// Transport is "ws" for the live stream or "poll" for REST polling.
	Transport string `yaml:"transport" json:"transport" mapstructure:"transport" validate:"oneof=ws poll"`

	// Timeout bounds each REST request and the stream handshake.
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
}

// DisplayConfig controls what the fleet views show.
type DisplayConfig struct {
	ShowFlag        bool   `yaml:"show_flag" json:"show_flag" mapstructure:"show_flag"`
	ShowNetTransfer bool   `yaml:"show_net_transfer" json:"show_net_transfer" mapstructure:"show_net_transfer"`
	Layout          string `yaml:"layout" json:"layout" mapstructure:"layout" validate:"oneof=card inline"`
	Sort            string `yaml:"sort" json:"sort" mapstructure:"sort" validate:"oneof=default name cpu mem expiry"`
}

// HistoryConfig controls the local sample store.
type HistoryConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Path      string        `yaml:"path" json:"path" mapstructure:"path"`
	Retention time.Duration `yaml:"retention" json:"retention" mapstructure:"retention"`
}

// LocalConfig adds this machine to the fleet as an extra server.
type LocalConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Name    string `yaml:"name" json:"name" mapstructure:"name"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Dashboard: DashboardConfig{
			Transport: TransportWebSocket,
			Timeout:   10 * time.Second,
		},
		Refresh:      2 * time.Second,
		OnlineWindow: 30 * time.Second,
		Display: DisplayConfig{
			ShowFlag:        true,
			ShowNetTransfer: false,
			Layout:          LayoutCard,
			Sort:            "default",
		},
		History: HistoryConfig{
			Enabled:   false,
			Path:      "~/" + GlobalConfigDir + "/history.db",
			Retention: 24 * time.Hour,
		},
		Local: LocalConfig{
			Enabled: false,
			Name:    "localhost",
		},
	}
}
