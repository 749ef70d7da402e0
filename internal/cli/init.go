package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/fleetdash/internal/client"
	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/ui"
)

// connectionTestTimeout bounds the settings request made before saving.
const connectionTestTimeout = 10 * time.Second

// InitOptions holds options for the init command.
type InitOptions struct {
	URL            string // Dashboard base URL
	Token          string // API token, optional
	Transport      string // ws or poll
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use flags and environment
	Global         bool   // Write the global config instead of ./.fleetdash.yaml
	Path           string // Explicit target path, overrides Global
	Out            io.Writer
}

// initValues are the answers collected by flags, environment, or the form.
type initValues struct {
	url       string
	token     string
	transport string
	layout    string
	local     bool
	history   bool
}

// getInitDefaults fills unset options from FLEETDASH_* variables and turns
// prompting off under CI or without a terminal.
func getInitDefaults(opts InitOptions) InitOptions {
	if opts.URL == "" {
		opts.URL = os.Getenv("FLEETDASH_DASHBOARD_URL")
	}
	if opts.Token == "" {
		opts.Token = os.Getenv("FLEETDASH_DASHBOARD_TOKEN")
	}
	if opts.Transport == "" {
		opts.Transport = config.TransportWebSocket
	}
	if os.Getenv("FLEETDASH_NON_INTERACTIVE") != "" || os.Getenv("CI") != "" {
		opts.NonInteractive = true
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return opts
}

// initTarget returns where init writes the config.
func initTarget(opts InitOptions) string {
	switch {
	case opts.Path != "":
		return opts.Path
	case opts.Global:
		return config.GlobalConfigPath()
	default:
		return filepath.Join(".", config.ConfigFileName)
	}
}

// Init creates a config file pointing at a dashboard.
func Init(opts InitOptions) error {
	opts = getInitDefaults(opts)
	if !opts.NonInteractive && !stdinIsTerminal() {
		opts.NonInteractive = true
	}
	out := opts.Out
	configPath := initTarget(opts)

	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", configPath)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	vals := initValues{
		url:       strings.TrimRight(strings.TrimSpace(opts.URL), "/"),
		token:     opts.Token,
		transport: opts.Transport,
		layout:    config.LayoutCard,
	}

	if opts.NonInteractive {
		if vals.url == "" {
			return errors.New(errors.ErrConfig,
				"Dashboard URL is required in non-interactive mode",
				"Provide --url or set FLEETDASH_DASHBOARD_URL")
		}
	} else {
		fmt.Fprint(out, ui.RenderHeader(ui.HeaderInfo{
			Version: formatVersion(version),
			Tagline: "Point fleetdash at your dashboard",
			Target:  configPath,
		}))
		if err := runInitForm(&vals); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Check terminal compatibility or use --non-interactive")
		}
		vals.url = strings.TrimRight(strings.TrimSpace(vals.url), "/")
	}

	cfg := config.DefaultConfig()
	cfg.Dashboard.URL = vals.url
	cfg.Dashboard.Token = vals.token
	cfg.Dashboard.Transport = vals.transport
	cfg.Display.Layout = vals.layout
	cfg.Local.Enabled = vals.local
	cfg.History.Enabled = vals.history

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if err := testConnection(out, cfg, opts.NonInteractive); err != nil {
		return err
	}

	if err := config.Save(cfg, configPath); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Created %s\n\n", ui.SymbolSuccess, configPath)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  fleetdash list       # check the fleet")
	fmt.Fprintln(out, "  fleetdash monitor    # open the live dashboard")
	return nil
}

func runInitForm(vals *initValues) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Dashboard URL").
				Description("Base address of the monitoring dashboard").
				Placeholder("https://status.example.com").
				Value(&vals.url).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("dashboard URL is required")
					}
					if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
						return fmt.Errorf("use an http:// or https:// address")
					}
					return nil
				}),
			huh.NewInput().
				Title("API token (optional)").
				Description("Sent as a bearer token; leave empty for public dashboards").
				EchoMode(huh.EchoModePassword).
				Value(&vals.token),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transport").
				Options(
					huh.NewOption("WebSocket stream (live)", config.TransportWebSocket),
					huh.NewOption("REST polling", config.TransportPoll),
				).
				Value(&vals.transport),
			huh.NewSelect[string]().
				Title("Layout").
				Options(
					huh.NewOption("Cards", config.LayoutCard),
					huh.NewOption("Inline rows", config.LayoutInline),
				).
				Value(&vals.layout),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Include this machine as a server?").
				Value(&vals.local),
			huh.NewConfirm().
				Title("Record usage history locally?").
				Description("Keeps a day of samples for sparklines and 'fleetdash history'").
				Value(&vals.history),
		),
	)
	return form.Run()
}

// testConnection fetches the dashboard settings. In interactive mode a
// failure can be saved anyway.
func testConnection(out io.Writer, cfg *config.Config, nonInteractive bool) error {
	fmt.Fprintln(out)
	spinner := ui.NewSpinner("Testing connection to "+cfg.Dashboard.URL, out)
	spinner.Start()

	ctx, cancel := context.WithTimeout(context.Background(), connectionTestTimeout)
	defer cancel()

	c := client.NewClient(cfg.Dashboard.URL, cfg.Dashboard.Token, connectionTestTimeout, logger.NewEnvLogger("[init]"))
	setting, err := c.Setting(ctx)
	if err == nil {
		spinner.Success()
		if setting.SiteName != "" {
			fmt.Fprintf(out, "  %s\n", ui.MutedStyle().Render(fmt.Sprintf("Connected to %s (dashboard %s)", setting.SiteName, setting.Version)))
		}
		fmt.Fprintln(out)
		return nil
	}

	spinner.Fail()
	code := errors.ErrAPI
	if errors.IsCode(err, errors.ErrAuth) {
		code = errors.ErrAuth
	}
	failure := errors.WrapWithCode(err, code,
		fmt.Sprintf("Couldn't reach the dashboard at '%s'", cfg.Dashboard.URL),
		"Check the URL and token, then try again.")
	if nonInteractive {
		return failure
	}

	fmt.Fprintf(out, "\n%s Connection to '%s' failed: %v\n\n", ui.SymbolFail, cfg.Dashboard.URL, err)
	var saveAnyway bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save config anyway? (You can fix the connection later)").
				Value(&saveAnyway),
		),
	)
	if formErr := form.Run(); formErr != nil || !saveAnyway {
		return failure
	}
	return nil
}
