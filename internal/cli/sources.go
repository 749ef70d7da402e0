package cli

import (
	"context"

	"github.com/rileyhilliard/fleetdash/internal/client"
	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/local"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/monitor"
)

// Source names shown in error footers and the SOURCE column.
const (
	sourceDashboard = "dashboard"
	sourceLocal     = "local"
)

// fleetSources builds the collector inputs for cfg. When live is true and
// the dashboard transport is ws, the dashboard is read from a WebSocket
// stream that runs until ctx is cancelled; otherwise it is polled over REST.
func fleetSources(ctx context.Context, cfg *config.Config, log logger.Logger, live bool) ([]monitor.NamedSource, error) {
	var sources []monitor.NamedSource

	if cfg.Dashboard.URL != "" {
		src, err := dashboardSource(ctx, cfg, log, live)
		if err != nil {
			return nil, err
		}
		sources = append(sources, monitor.NamedSource{Name: sourceDashboard, Source: src})
	}

	if cfg.Local.Enabled {
		sources = append(sources, monitor.NamedSource{
			Name:   sourceLocal,
			Source: local.New(cfg.Local.Name, log),
		})
	}

	return sources, nil
}

func dashboardSource(ctx context.Context, cfg *config.Config, log logger.Logger, live bool) (client.Source, error) {
	if !live || cfg.Dashboard.Transport != config.TransportWebSocket {
		return client.NewClient(cfg.Dashboard.URL, cfg.Dashboard.Token, cfg.Dashboard.Timeout, log), nil
	}

	stream, err := client.NewStream(cfg.Dashboard.URL, cfg.Dashboard.Token, cfg.Dashboard.Timeout, log)
	if err != nil {
		return nil, err
	}

	// The dashboard reads the latest frame through Fetch on its own tick, so
	// the channel only needs draining.
	frames := stream.Start(ctx)
	go func() {
		for f := range frames {
			log.Debug("stream frame: %d servers, %d online", len(f.Servers), f.Online)
		}
	}()

	return stream, nil
}
