// Package bridge maintains the connection to the out-of-process hotkey
// helper so shortcuts keep working while the application is unfocused.
//
// The client walks a small state machine:
//
//	Disconnected → Handshaking → Connected → Ready
//
// and drops back to Disconnected on any stream error, discarding the
// bearer token (a fresh handshake always requests a new one). From
// Disconnected the loop retries every 3 seconds with an immediate first
// attempt, and a stable stream that drops re-handshakes immediately
// instead of waiting out a tick. Combo pushes to the helper are debounced over a 200ms window
// and only sent once the stream has delivered its ready frame. Combos
// received from the helper are re-normalized and dispatched through the
// same registry and trigger lock as in-app key events, so the two
// sources cannot double-fire one physical press.
package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotkeys/internal/dispatch"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// Connection defaults. The timings mirror what the helper expects: a
// short absolute bound on the handshake so a dead helper never hangs
// the caller, a slow retry cadence, and a sync debounce wide enough to
// coalesce a burst of registrations into one push.
const (
	DefaultBaseURL          = "http://127.0.0.1:17976"
	DefaultHandshakeTimeout = 2 * time.Second
	DefaultRetryInterval    = 3 * time.Second
	DefaultSyncDebounce     = 200 * time.Millisecond
)

// State is the bridge connection state.
type State int

const (
	StateDisconnected State = iota
	StateHandshaking
	StateConnected
	StateReady
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	case StateReady:
		return "ready"
	default:
		return "disconnected"
	}
}

// Opts configures a [Client]. Registry is required; everything else
// falls back to the defaults above.
type Opts struct {
	BaseURL          string
	Registry         *dispatch.Registry
	Logger           *log.Logger
	HTTPClient       *http.Client
	HandshakeTimeout time.Duration
	RetryInterval    time.Duration
	SyncDebounce     time.Duration
}

// Client connects to a running helper, keeps its combo set in sync and
// relays triggered combos into the shared dispatch registry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	registry   *dispatch.Registry
	logger     *log.Logger

	handshakeTimeout time.Duration
	retryInterval    time.Duration
	syncDebounce     time.Duration

	mu        sync.Mutex
	state     State
	token     string
	syncTimer *time.Timer
}

// NewClient creates a bridge client. It performs no I/O until Run.
func NewClient(opts Opts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.SyncDebounce <= 0 {
		opts.SyncDebounce = DefaultSyncDebounce
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HTTPClient == nil {
		// No client-level timeout: it would sever the long-lived event
		// stream. The handshake and config pushes bound themselves per
		// request instead.
		opts.HTTPClient = &http.Client{}
	}

	return &Client{
		baseURL:          strings.TrimRight(opts.BaseURL, "/"),
		httpClient:       opts.HTTPClient,
		registry:         opts.Registry,
		logger:           opts.Logger,
		handshakeTimeout: opts.HandshakeTimeout,
		retryInterval:    opts.RetryInterval,
		syncDebounce:     opts.SyncDebounce,
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Token returns the current session token, empty while disconnected.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Run drives the connection loop: an immediate first attempt, then a
// retry every retry interval while disconnected. When an established
// stream drops, the next handshake fires immediately instead of waiting
// out a tick; a session must outlive the handshake timeout to count, so
// a flapping helper still falls back to the interval. Blocks until ctx
// is cancelled.
func (c *Client) Run(ctx context.Context) error {
	for {
		start := time.Now()
		streamed := c.connectOnce(ctx)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if streamed && time.Since(start) >= c.handshakeTimeout {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryInterval):
		}
	}
}

// RequestSync schedules a combo push to the helper. Each call resets
// the debounce timer, so a burst of registrations coalesces into one
// POST carrying the set as it stands at send time. While the stream is
// not ready this is a no-op: the push that follows the ready frame
// always carries the full current set.
func (c *Client) RequestSync() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduleSyncLocked()
}

func (c *Client) scheduleSyncLocked() {
	if c.state != StateReady {
		return
	}
	if c.syncTimer != nil {
		c.syncTimer.Stop()
	}
	c.syncTimer = time.AfterFunc(c.syncDebounce, c.pushConfig)
}

// connectOnce runs a full session: handshake, then the event stream
// until it fails. Any exit discards the token and reports Disconnected.
// Reports whether the session got past the handshake and onto the
// stream.
func (c *Client) connectOnce(ctx context.Context) bool {
	c.setState(StateHandshaking)

	token, err := c.handshake(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		c.logger.Debugf("bridge: handshake failed: %v", err)
		return false
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.setState(StateConnected)
	c.logger.Infof("bridge: connected to %s", c.baseURL)

	err = c.stream(ctx)

	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	c.setState(StateDisconnected)

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warnf("bridge: stream closed: %v", err)
	}
	return true
}

// handshake asks the helper for a session token, bounded by the
// handshake timeout so a dead helper fails fast instead of hanging.
func (c *Client) handshake(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/hello", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrHelperUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: handshake status %d", shared.ErrHelperUnavailable, resp.StatusCode)
	}

	var payload struct {
		OK    bool   `json:"ok"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: malformed hello response: %v", shared.ErrHelperUnavailable, err)
	}
	if !payload.OK || payload.Token == "" {
		return "", fmt.Errorf("%w: hello response missing token", shared.ErrHelperUnavailable)
	}

	return payload.Token, nil
}

// stream holds the event stream open, parsing SSE lines: comments are
// keepalives, data lines accumulate until a blank line terminates the
// frame. Returns nil when the helper closes the stream cleanly.
func (c *Client) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token())
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrHelperUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: events status %d", shared.ErrHelperUnavailable, resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	var data []string

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				c.handleFrame(ctx, strings.Join(data, "\n"))
				data = data[:0]
			}
		case strings.HasPrefix(line, ":"):
			// keepalive comment
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	return scanner.Err()
}

// handleFrame routes one event payload: the ready frame unlocks config
// pushes, combo frames dispatch through the shared registry.
func (c *Client) handleFrame(ctx context.Context, data string) {
	var frame struct {
		Ready bool   `json:"ready"`
		Combo string `json:"combo"`
	}
	if err := json.Unmarshal([]byte(data), &frame); err != nil {
		c.logger.Debugf("bridge: dropping malformed frame %q: %v", data, err)
		return
	}

	switch {
	case frame.Ready:
		c.setState(StateReady)
		c.logger.Info("bridge: helper ready")
		c.RequestSync()
	case frame.Combo != "":
		c.logger.Debugf("bridge: combo %s", frame.Combo)
		c.registry.Dispatch(ctx, frame.Combo)
	}
}

// pushConfig sends the registry's current combo set to the helper. Runs
// on the debounce timer; the set is read at send time so registrations
// made during the window ride along.
func (c *Client) pushConfig() {
	c.mu.Lock()
	c.syncTimer = nil
	token := c.token
	ready := c.state == StateReady
	c.mu.Unlock()

	if !ready || token == "" {
		return
	}

	combos := c.registry.Combos()
	payload, err := shared.MarshalJSON(map[string][]string{"combos": combos}, false)
	if err != nil {
		c.logger.Errorf("bridge: encoding config failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.handshakeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/config", bytes.NewReader(payload))
	if err != nil {
		c.logger.Errorf("bridge: building config request failed: %v", err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnf("bridge: config push failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warnf("bridge: config push status %d", resp.StatusCode)
		return
	}

	c.logger.Debugf("bridge: pushed %d combos", len(combos))
}

// setState transitions the state machine, stopping any pending sync
// when leaving Ready.
func (c *Client) setState(next State) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	if next != StateReady && c.syncTimer != nil {
		c.syncTimer.Stop()
		c.syncTimer = nil
	}
	c.mu.Unlock()

	if prev != next {
		c.logger.Debugf("bridge: %s -> %s", prev, next)
	}
}

// Trigger performs a one-shot handshake and asks a running helper to
// synthesize a combo event, the path behind the CLI trigger command.
func Trigger(ctx context.Context, baseURL, comboText string) error {
	client := NewClient(Opts{BaseURL: baseURL})

	token, err := client.handshake(ctx)
	if err != nil {
		return err
	}

	payload, err := shared.MarshalJSON(map[string]string{"combo": comboText}, false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, client.handshakeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+"/trigger", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrHelperUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		return fmt.Errorf("%w: helper is not watching %q", shared.ErrComboNotFound, comboText)
	default:
		return fmt.Errorf("%w: trigger status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
}
