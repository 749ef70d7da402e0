// Package client talks to the dashboard's v1 API: a REST client for one-shot
// fetches and a WebSocket stream for live frames.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
)

// API paths, relative to the dashboard base URL.
const (
	ServersPath = "/api/v1/server"
	SettingPath = "/api/v1/setting"
	StreamPath  = "/api/v1/ws/server"
)

// DefaultTimeout applies when NewClient is given a zero timeout.
const DefaultTimeout = 10 * time.Second

// Source produces a frame of server snapshots on demand. The REST client,
// the stream and the local host source all implement it.
type Source interface {
	Fetch(ctx context.Context) (nezha.Frame, error)
}

// Client is a REST client for the dashboard API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        logger.Logger
	now        func() time.Time
}

// Setting is the subset of /api/v1/setting the CLI shows.
type Setting struct {
	SiteName string
	Version  string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// NewClient creates a client for baseURL. token is sent as a bearer token
// when non-empty.
func NewClient(baseURL, token string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.OrDefault(log),
		now:        time.Now,
	}
}

// BaseURL returns the dashboard base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Servers fetches every server the caller can see. The returned time is the
// local clock at the moment the response arrived; the REST endpoint carries
// no server clock.
func (c *Client) Servers(ctx context.Context) ([]nezha.ServerSnapshot, time.Time, error) {
	var servers []nezha.ServerSnapshot
	if err := c.get(ctx, ServersPath, &servers); err != nil {
		return nil, time.Time{}, err
	}
	return servers, c.now(), nil
}

// Fetch implements Source by polling Servers.
func (c *Client) Fetch(ctx context.Context) (nezha.Frame, error) {
	servers, now, err := c.Servers(ctx)
	if err != nil {
		return nezha.Frame{}, err
	}
	online := 0
	for _, s := range servers {
		if nezha.Normalize(s, now).Online {
			online++
		}
	}
	return nezha.Frame{Now: now, Online: online, Servers: servers}, nil
}

// Setting fetches the dashboard's public settings.
func (c *Client) Setting(ctx context.Context) (Setting, error) {
	var raw struct {
		Config struct {
			SiteName string `json:"site_name"`
		} `json:"config"`
		Version string `json:"version"`
	}
	if err := c.get(ctx, SettingPath, &raw); err != nil {
		return Setting{}, err
	}
	return Setting{SiteName: raw.Config.SiteName, Version: raw.Version}, nil
}

func (c *Client) get(ctx context.Context, path string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrAPI,
			"Couldn't build request for "+path,
			"Check dashboard.url in your config")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debug("GET %s", req.URL.Redacted())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrAPI,
			"Couldn't reach the dashboard at "+c.baseURL,
			"Check the URL and that the dashboard is running")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrAPI, "Failed to read response from "+path, "")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		code, suggestion := errors.ErrAPI, ""
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			code = errors.ErrAuth
			suggestion = "Set dashboard.token (or FLEETDASH_DASHBOARD_TOKEN) to a valid token"
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return errors.New(code,
			fmt.Sprintf("Dashboard returned %d for %s: %s", resp.StatusCode, path, msg),
			suggestion)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return errors.WrapWithCode(err, errors.ErrAPI,
			"Dashboard response for "+path+" isn't valid JSON",
			"Check that dashboard.url points at a v1 dashboard")
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request was not successful"
		}
		return errors.New(errors.ErrAPI, "Dashboard error: "+msg, "")
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return errors.WrapWithCode(err, errors.ErrAPI,
			"Unexpected data shape from "+path,
			"Check that dashboard.url points at a v1 dashboard")
	}
	return nil
}
