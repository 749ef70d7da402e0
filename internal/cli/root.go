package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	configFlag  string
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "fleetdash",
	Short: "Terminal dashboard for a Nezha-style server fleet",
	Long: `fleetdash watches the servers reported by a Nezha-style monitoring
dashboard. It streams or polls the dashboard API, shows every server's
usage, traffic and billing in a live terminal dashboard, and prints the
same data as tables or JSON for scripts.

Get started:
  fleetdash init          # point fleetdash at your dashboard
  fleetdash monitor       # open the live dashboard
  fleetdash list --json   # one-shot snapshot for scripts`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	DisableSuggestions: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyGlobalFlags()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"config file (default: .fleetdash.yaml, then ~/"+config.GlobalConfigDir+"/"+config.GlobalConfigFile+")")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "print machine-readable JSON")
}

// applyGlobalFlags turns colors off for --no-color, NO_COLOR and --json.
func applyGlobalFlags() {
	if noColorFlag || machineMode || os.Getenv("NO_COLOR") != "" {
		ui.DisableColors()
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stdout, os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err as a JSON envelope in machine mode, otherwise as
// a structured message with a command suggestion when one fits.
func reportError(stdout, stderr io.Writer, err error) {
	if machineMode {
		_ = WriteJSONFromError(stdout, err)
		return
	}

	if isUnknownCommandError(err) {
		msg := err.Error()
		if name := extractUnknownCommand(err); name != "" {
			if suggestions := rootCmd.SuggestionsFor(name); len(suggestions) > 0 {
				msg += "\n\nDid you mean this?\n\t" + strings.Join(suggestions, "\n\t")
			}
		}
		fmt.Fprintf(stderr, "%s %s\n\nRun 'fleetdash --help' for usage.\n", ui.SymbolFail, msg)
		return
	}

	var fdErr *errors.Error
	if stderrors.As(err, &fdErr) {
		fmt.Fprint(stderr, fdErr.Error())
		return
	}
	fmt.Fprintf(stderr, "%s %v\n", ui.SymbolFail, err)
}

// isUnknownCommandError reports whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unknown command") || strings.Contains(msg, "unknown flag")
}

// extractUnknownCommand pulls "foo" out of `unknown command "foo" for "fleetdash"`.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
