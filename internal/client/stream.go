package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
	"golang.org/x/time/rate"
)

// DefaultReconnectInterval is the minimum gap between stream connection attempts.
const DefaultReconnectInterval = 3 * time.Second

// wireFrame is one message on the server stream.
type wireFrame struct {
	Now     nezha.Timestamp        `json:"now"`
	Online  int                    `json:"online"`
	Servers []nezha.ServerSnapshot `json:"servers"`
}

// Stream keeps a WebSocket subscription to the dashboard open and remembers
// the most recent frame. Dropped connections are re-dialed, no faster than
// the reconnect limiter allows, until the context passed to Start ends.
type Stream struct {
	url     string
	header  http.Header
	dialer  *websocket.Dialer
	limiter *rate.Limiter
	log     logger.Logger
	now     func() time.Time

	mu      sync.RWMutex
	latest  nezha.Frame
	have    bool
	lastErr error
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithReconnectInterval sets the minimum gap between connection attempts.
func WithReconnectInterval(d time.Duration) StreamOption {
	return func(s *Stream) {
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewStream prepares a stream for the dashboard at baseURL. Nothing is
// dialed until Start.
func NewStream(baseURL, token string, timeout time.Duration, log logger.Logger, opts ...StreamOption) (*Stream, error) {
	wsURL, err := WebSocketURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	s := &Stream{
		url:     wsURL,
		header:  header,
		dialer:  &websocket.Dialer{Proxy: http.ProxyFromEnvironment, HandshakeTimeout: timeout},
		limiter: rate.NewLimiter(rate.Every(DefaultReconnectInterval), 1),
		log:     logger.OrDefault(log),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WebSocketURL derives the stream address from a dashboard base URL:
// http becomes ws and https becomes wss.
func WebSocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "", errors.New(errors.ErrStream,
			"Can't derive a stream address from '"+baseURL+"'",
			"Use the full dashboard address, e.g. https://status.example.com")
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.New(errors.ErrStream,
			"Unsupported scheme '"+u.Scheme+"' in dashboard URL",
			"Use http:// or https://")
	}
	u.Path = strings.TrimRight(u.Path, "/") + StreamPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// URL returns the WebSocket address the stream dials.
func (s *Stream) URL() string {
	return s.url
}

// Start runs the stream in the background. Each decoded frame is delivered
// on the returned channel; when the reader falls behind, older frames are
// dropped in favor of newer ones. The channel closes once ctx is done.
func (s *Stream) Start(ctx context.Context) <-chan nezha.Frame {
	out := make(chan nezha.Frame, 1)
	go func() {
		defer close(out)
		for {
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			err := s.session(ctx, out)
			if ctx.Err() != nil {
				return
			}
			s.setErr(err)
			s.log.Warn("stream disconnected: %v", err)
		}
	}()
	return out
}

// Fetch implements Source by returning the latest frame. It fails until the
// first frame has arrived and while the connection is down.
func (s *Stream) Fetch(ctx context.Context) (nezha.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nezha.Frame{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastErr != nil {
		return nezha.Frame{}, s.lastErr
	}
	if !s.have {
		return nezha.Frame{}, errors.New(errors.ErrStream, "Waiting for the first frame from "+s.url, "")
	}
	return s.latest, nil
}

// Err returns the error that ended the last connection, if any.
func (s *Stream) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// session dials once and reads until the connection drops or ctx ends.
func (s *Stream) session(ctx context.Context, out chan nezha.Frame) error {
	s.log.Debug("dialing %s", s.url)
	conn, resp, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		msg := "Couldn't open the server stream at " + s.url
		if resp != nil {
			msg += " (" + resp.Status + ")"
		}
		return errors.WrapWithCode(err, errors.ErrStream, msg,
			"Check dashboard.url, or set dashboard.transport: poll")
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller gives up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	s.log.Info("stream connected to %s", s.url)
	s.setErr(nil)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrStream, "Server stream closed", "")
		}

		frame, ok := s.decode(message)
		if !ok {
			continue
		}
		s.store(frame)
		deliver(out, frame)
	}
}

func (s *Stream) decode(message []byte) (nezha.Frame, bool) {
	var wf wireFrame
	if err := json.Unmarshal(message, &wf); err != nil {
		s.log.Warn("skipping malformed stream frame: %v", err)
		return nezha.Frame{}, false
	}
	now := wf.Now.Time
	if wf.Now.IsZero() {
		now = s.now()
	}
	return nezha.Frame{Now: now, Online: wf.Online, Servers: wf.Servers}, true
}

func (s *Stream) store(f nezha.Frame) {
	s.mu.Lock()
	s.latest = f
	s.have = true
	s.mu.Unlock()
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// deliver sends f without blocking, replacing a frame nobody has read yet.
// There is a single sender, so the second send always has room.
func deliver(out chan nezha.Frame, f nezha.Frame) {
	select {
	case out <- f:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- f
}
