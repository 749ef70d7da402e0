package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	monitorIntervalFlag string
	monitorLayoutFlag   string
	monitorSortFlag     string
	monitorFilterFlag   string
	listOfflineFlag     bool
	listSortFlag        string
	historyLimitFlag    int
	initURLFlag         string
	initTokenFlag       string
	initTransportFlag   string
	initForce           bool
	initGlobal          bool
	initNonInteractive  bool
)

// monitorCmd starts the TUI fleet dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard of every server in the fleet",
	Long: `Start an interactive dashboard showing every server the dashboard
reports: status, CPU, memory, disk, network speed, uptime and billing.

With dashboard.transport set to ws, frames are streamed over WebSocket and
the view redraws on every tick. Otherwise the REST API is polled.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  r           Force refresh
  s           Cycle sort order (default/name/cpu/mem/expiry)
  l           Toggle card / inline layout
  up/k        Select previous server
  down/j      Select next server
  Enter       Expand selected server details
  Esc         Collapse / go back
  ?           Show help

Examples:
  fleetdash monitor
  fleetdash monitor --filter tokyo-1,fra-2
  fleetdash monitor --layout inline --interval 5s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorCommand(monitorIntervalFlag, monitorLayoutFlag, monitorSortFlag, monitorFilterFlag)
	},
}

// listCmd prints a one-shot fleet table
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "status"},
	Short:   "Print a snapshot of the fleet",
	Long: `Fetch the fleet once over REST and print it as a table, or as JSON
with --json.

Examples:
  fleetdash list
  fleetdash list --offline
  fleetdash list --sort expiry --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCommand(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), listOptions{
			Offline: listOfflineFlag,
			Sort:    listSortFlag,
		})
	},
}

// noteCmd parses a server's public note
var noteCmd = &cobra.Command{
	Use:   "note <json|->",
	Short: "Explain a server's public note",
	Long: `Parse a public note the way the dashboard does and print the billing
and plan details it carries. Pass - to read the note from stdin.

Examples:
  fleetdash note '{"billingDataMod":{"endDate":"2026-01-01","amount":"5$/Month"}}'
  pbpaste | fleetdash note -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return noteCommand(cmd.OutOrStdout(), cmd.InOrStdin(), args[0], time.Now())
	},
}

// historyCmd prints recorded samples for one server
var historyCmd = &cobra.Command{
	Use:   "history [server]",
	Short: "Show recorded usage for a server",
	Long: `Print the samples fleetdash recorded for a server while the dashboard
was open. Requires history.enabled. Without a server name, lists the servers
that have samples.

Examples:
  fleetdash history
  fleetdash history tokyo-1 --limit 50`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return historyCommand(cmd.OutOrStdout(), name, historyLimitFlag)
	},
}

// initCmd creates a config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a fleetdash config file",
	Long: `Create a config file pointing at your dashboard.

Runs an interactive form unless --non-interactive is set, CI is set, or
stdin isn't a terminal. The connection is tested before the file is saved.

Examples:
  fleetdash init
  fleetdash init --global
  fleetdash init --url https://status.example.com --non-interactive`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(InitOptions{
			URL:            initURLFlag,
			Token:          initTokenFlag,
			Transport:      initTransportFlag,
			Overwrite:      initForce,
			NonInteractive: initNonInteractive,
			Global:         initGlobal,
			Path:           configFlag,
			Out:            cmd.OutOrStdout(),
		})
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for fleetdash.

Examples:
  # Bash
  fleetdash completion bash > /etc/bash_completion.d/fleetdash

  # Zsh
  fleetdash completion zsh > "${fpath[1]}/_fleetdash"

  # Fish
  fleetdash completion fish > ~/.config/fish/completions/fleetdash.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		}
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown shell '%s'", args[0]),
			"Supported shells: bash, zsh, fish, powershell")
	},
}

func init() {
	monitorCmd.Flags().StringVar(&monitorIntervalFlag, "interval", "", "refresh interval (e.g., 2s, 5s, 1m; default from config)")
	monitorCmd.Flags().StringVar(&monitorLayoutFlag, "layout", "", "card or inline (default from config)")
	monitorCmd.Flags().StringVar(&monitorSortFlag, "sort", "", "default, name, cpu, mem or expiry")
	monitorCmd.Flags().StringVar(&monitorFilterFlag, "filter", "", "only show these servers (comma-separated)")

	listCmd.Flags().BoolVar(&listOfflineFlag, "offline", false, "only show offline or expired servers")
	listCmd.Flags().StringVar(&listSortFlag, "sort", "", "default, name, cpu, mem or expiry")

	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "number of samples to show")

	initCmd.Flags().StringVar(&initURLFlag, "url", "", "dashboard base URL")
	initCmd.Flags().StringVar(&initTokenFlag, "token", "", "API token (optional)")
	initCmd.Flags().StringVar(&initTransportFlag, "transport", "", "ws or poll (default ws)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write to ~/.config/fleetdash/config.yaml")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "skip prompts and use flags and environment")

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}

// stdinIsTerminal reports whether fleetdash can prompt.
func stdinIsTerminal() bool {
	return isTerminal(os.Stdin)
}
