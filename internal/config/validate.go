package config

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rileyhilliard/fleetdash/internal/errors"
)

// MinRefresh is the shortest refresh interval accepted.
const MinRefresh = 500 * time.Millisecond

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Report fields by their YAML names so messages match the file.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// Validate checks the config and returns a structured error for the first problem.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but fleetdash only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade fleetdash to the latest release.")
	}

	if err := validate.Struct(cfg); err != nil {
		return translateValidationError(err)
	}

	if cfg.Dashboard.URL != "" {
		if err := validateDashboardURL(cfg.Dashboard.URL); err != nil {
			return err
		}
	}

	if cfg.Refresh < MinRefresh {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh of %s is too short", cfg.Refresh),
			fmt.Sprintf("Use at least %s so the dashboard isn't hammered.", MinRefresh))
	}

	if cfg.Dashboard.Timeout <= 0 {
		return errors.New(errors.ErrConfig,
			"dashboard.timeout must be positive",
			"Try something like 10s.")
	}

	if cfg.OnlineWindow <= 0 {
		return errors.New(errors.ErrConfig,
			"online_window must be positive",
			"The dashboard's own default is 30s.")
	}

	if cfg.History.Enabled {
		if strings.TrimSpace(cfg.History.Path) == "" {
			return errors.New(errors.ErrConfig,
				"history.path is empty but history is enabled",
				"Set history.path, e.g. ~/.config/fleetdash/history.db")
		}
		if cfg.History.Retention < 0 {
			return errors.New(errors.ErrConfig,
				"history.retention can't be negative",
				"Use 0 to keep everything, or a duration like 24h.")
		}
	}

	return nil
}

// RequireSource checks that there is something to monitor: a dashboard
// URL, the local machine, or both.
func RequireSource(cfg *Config) error {
	if cfg.Dashboard.URL == "" && !cfg.Local.Enabled {
		return errors.New(errors.ErrConfig,
			"No dashboard configured",
			"Run 'fleetdash init', set FLEETDASH_DASHBOARD_URL, or enable local.enabled.")
	}
	return nil
}

func validateDashboardURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("dashboard.url '%s' isn't a valid URL", raw),
			"Use the full address, e.g. https://status.example.com")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("dashboard.url scheme '%s' isn't supported", u.Scheme),
			"Use http:// or https://; the WebSocket address is derived from it.")
	}
	return nil
}

func translateValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.WrapWithCode(err, errors.ErrConfig, "Invalid config", "Check your config file.")
	}

	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "oneof":
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s '%v' isn't a valid choice", field, fe.Value()),
			fmt.Sprintf("Pick one of: %s", strings.ReplaceAll(fe.Param(), " ", ", ")))
	case "url":
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s '%v' isn't a valid URL", field, fe.Value()),
			"Use the full address, e.g. https://status.example.com")
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s failed the '%s' check", field, fe.Tag()),
			"Check your config file.")
	}
}
