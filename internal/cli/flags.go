package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/monitor"
	"golang.org/x/term"
)

// ParseInterval parses a refresh interval flag. An empty flag returns
// fallback; anything shorter than config.MinRefresh is rejected.
func ParseInterval(flag string, fallback time.Duration) (time.Duration, error) {
	if flag == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid interval", flag),
			"Try something like 2s, 5s, or 1m.")
	}
	if d < config.MinRefresh {
		return 0, errors.New(errors.ErrConfig,
			"Interval too short",
			fmt.Sprintf("Minimum interval is %s to avoid hammering the dashboard", config.MinRefresh))
	}
	return d, nil
}

// ParseFilter splits a comma-separated list of server names.
func ParseFilter(flag string) []string {
	var names []string
	for _, name := range strings.Split(flag, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// displayOptions merges the config's display section with flag overrides.
// Empty flags keep the configured value.
func displayOptions(cfg *config.Config, layoutFlag, sortFlag string) (monitor.DisplayOptions, error) {
	layout := cfg.Display.Layout
	if layoutFlag != "" {
		layout = layoutFlag
	}
	if layout != config.LayoutCard && layout != config.LayoutInline {
		return monitor.DisplayOptions{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown layout '%s'", layout),
			"Use card or inline.")
	}

	order := cfg.Display.Sort
	if sortFlag != "" {
		order = sortFlag
	}
	parsed := monitor.ParseSortOrder(order)
	if parsed.String() != order {
		return monitor.DisplayOptions{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown sort order '%s'", order),
			"Use default, name, cpu, mem, or expiry.")
	}

	return monitor.DisplayOptions{
		ShowFlag:        cfg.Display.ShowFlag,
		ShowNetTransfer: cfg.Display.ShowNetTransfer,
		Layout:          monitor.ParseLayout(layout),
		Sort:            parsed,
		OnlineWindow:    cfg.OnlineWindow,
	}, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
