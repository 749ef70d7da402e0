package cli

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/fleetdash/internal/client"
	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/monitor"
	"github.com/rileyhilliard/fleetdash/internal/storage"
)

// debugLogFile receives log output while the dashboard owns the terminal.
const debugLogFile = "fleetdash-debug.log"

// siteTitleTimeout bounds the settings lookup before the dashboard opens.
const siteTitleTimeout = 3 * time.Second

// monitorCommand starts the TUI fleet dashboard.
func monitorCommand(intervalFlag, layoutFlag, sortFlag, filterFlag string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.RequireSource(cfg); err != nil {
		return err
	}

	interval, err := ParseInterval(intervalFlag, cfg.Refresh)
	if err != nil {
		return err
	}
	display, err := displayOptions(cfg, layoutFlag, sortFlag)
	if err != nil {
		return err
	}

	// The alt screen owns stdout and stderr, so log lines go to a file or nowhere.
	if os.Getenv(logger.DebugEnv) != "" {
		f, err := tea.LogToFile(debugLogFile, "fleetdash")
		if err == nil {
			defer f.Close()
		}
	} else {
		log.SetOutput(io.Discard)
	}
	lg := logger.NewEnvLogger("[monitor]")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sources, err := fleetSources(ctx, cfg, lg, true)
	if err != nil {
		return err
	}

	collectorOpts := []monitor.CollectorOption{
		monitor.WithTimeout(cfg.Dashboard.Timeout),
		monitor.WithOnlineWindow(cfg.OnlineWindow),
		monitor.WithLogger(lg),
	}
	opts := monitor.Options{
		Interval: interval,
		Display:  display,
		Filter:   ParseFilter(filterFlag),
		Title:    siteTitle(ctx, cfg, lg),
		Log:      lg,
	}

	if cfg.History.Enabled {
		store, err := storage.Open(cfg.History.Path, lg)
		if err != nil {
			return err
		}
		defer store.Close()

		collectorOpts = append(collectorOpts,
			monitor.WithRecorder(storage.NewRecorder(store, cfg.History.Retention, lg)))
		opts.Seed = store
	}

	collector := monitor.NewCollector(sources, collectorOpts...)
	model := monitor.NewModel(collector, opts)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// siteTitle asks the dashboard for its site name, falling back to
// "fleetdash" when there is no dashboard or it doesn't answer quickly.
func siteTitle(ctx context.Context, cfg *config.Config, log logger.Logger) string {
	if cfg.Dashboard.URL == "" {
		return "fleetdash"
	}

	ctx, cancel := context.WithTimeout(ctx, siteTitleTimeout)
	defer cancel()

	setting, err := client.NewClient(cfg.Dashboard.URL, cfg.Dashboard.Token, siteTitleTimeout, log).Setting(ctx)
	if err != nil || setting.SiteName == "" {
		log.Debug("no site name: %v", err)
		return "fleetdash"
	}
	return setting.SiteName
}

// loadConfig loads the config named by --config, or the one found by the
// usual search, and validates it.
func loadConfig() (*config.Config, error) {
	cfg, _, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
