package cli

import (
	"fmt"
	"io"

	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// maskedToken replaces the dashboard token in `config show`.
const maskedToken = "********"

// ConfigShowOutput is the --json payload of `fleetdash config show`.
type ConfigShowOutput struct {
	Path   string         `json:"path,omitempty"`
	Config *config.Config `json:"config"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the fleetdash config",
	Long: `Inspect or change the config file fleetdash uses.

Examples:
  fleetdash config path
  fleetdash config show
  fleetdash config set display.layout inline`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a dotted key in the config file, keeping its comments and layout.
The change is rejected when the result doesn't validate.

Examples:
  fleetdash config set display.sort expiry
  fleetdash config set history.enabled true
  fleetdash config set refresh 5s`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return configSetCommand(cmd.OutOrStdout(), args[0], args[1])
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowCommand(cmd.OutOrStdout())
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configPathCommand(cmd.OutOrStdout())
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func configSetCommand(w io.Writer, key, value string) error {
	path, err := config.Find(configFlag)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"Config file not found",
			"Run 'fleetdash init' to create one")
	}

	if err := config.SetValue(path, key, value); err != nil {
		return err
	}

	if machineMode {
		return WriteJSONSuccess(w, map[string]string{"path": path, "key": key, "value": value})
	}
	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, path)
	return nil
}

func configShowCommand(w io.Writer) error {
	cfg, path, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return err
	}
	if cfg.Dashboard.Token != "" {
		cfg.Dashboard.Token = maskedToken
	}

	if machineMode {
		return WriteJSONSuccess(w, ConfigShowOutput{Path: path, Config: cfg})
	}

	if path == "" {
		fmt.Fprintln(w, "# no config file found; showing defaults and environment")
	} else {
		fmt.Fprintf(w, "# %s\n", path)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
	}
	return enc.Close()
}

func configPathCommand(w io.Writer) error {
	path, err := config.Find(configFlag)
	if err != nil {
		return err
	}
	if machineMode {
		return WriteJSONSuccess(w, map[string]string{"path": path})
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"Config file not found",
			fmt.Sprintf("Run 'fleetdash init' to create %s, or 'fleetdash init --global' for %s",
				config.ConfigFileName, config.GlobalConfigPath()))
	}
	fmt.Fprintln(w, path)
	return nil
}
