package helper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotkeys/internal/combo"
	"github.com/desertthunder/spotkeys/internal/server"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// DefaultHost and DefaultPort are where bridge clients look for the
// helper during the handshake.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 17976
)

// keepaliveInterval is how often a comment line is written to idle
// event streams so clients and proxies keep the connection open.
const keepaliveInterval = 5 * time.Second

// shutdownTimeout bounds the graceful drain on exit.
const shutdownTimeout = 5 * time.Second

// Server speaks the hotkey relay protocol over loopback HTTP.
//
// A fresh bearer token is generated per process; /hello hands it out
// and every other endpoint requires it.
type Server struct {
	host    string
	port    int
	token   string
	broker  *Broker
	capture Capturer
	logger  *log.Logger

	mu     sync.RWMutex
	combos map[string]struct{}
}

// NewServer creates a helper server bound to host:port. Zero values
// fall back to the defaults above.
func NewServer(host string, port int, logger *log.Logger) (*Server, error) {
	token, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("token generation: %w", err)
	}

	if host == "" {
		host = DefaultHost
	}
	if port <= 0 {
		port = DefaultPort
	}

	return &Server{
		host:   host,
		port:   port,
		token:  token,
		broker: NewBroker(),
		logger: logger,
		combos: make(map[string]struct{}),
	}, nil
}

// SetCapturer attaches the OS capture backend. Call before Run. Without
// one the server still speaks the full protocol (combos are accepted
// and /trigger works), which is the degraded mode for hosts where
// global capture is unavailable.
func (s *Server) SetCapturer(capture Capturer) {
	s.capture = capture
}

// Token returns the bearer token issued for this session.
func (s *Server) Token() string { return s.token }

// URL returns the base address clients should dial.
func (s *Server) URL() string { return fmt.Sprintf("http://%s:%d", s.host, s.port) }

// Broadcast pushes a triggered combo to every connected event stream.
func (s *Server) Broadcast(comboText string) {
	s.logger.Debugf("broadcast: %s (%d clients)", comboText, s.broker.Clients())
	s.broker.Publish(Frame{Combo: comboText})
}

// Handler assembles the route table with CORS and bearer auth applied.
// Split from Run so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	router := server.NewBasicRouter()
	router.Use(server.CORSMiddleware(), server.BearerMiddleware(s.token, "/hello"))
	router.Handler(s)
	return router
}

// Run serves the protocol until ctx is cancelled, then drains open
// connections and releases any OS capture registrations.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: s.Handler(),
		// Request contexts descend from ctx so cancellation also ends
		// long-lived event streams, letting Shutdown finish promptly.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		errs <- httpServer.ListenAndServe()
	}()

	s.logger.Infof("helper listening on %s", s.URL())
	s.logger.Infof("session token: %s", s.token)

	select {
	case err := <-errs:
		if s.capture != nil {
			s.capture.Close()
		}
		return fmt.Errorf("helper server: %w", err)
	case <-ctx.Done():
	}

	if s.capture != nil {
		s.capture.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("helper shutdown: %w", err)
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Routes implements [server.Handler]. The catch-all pattern turns
// unknown paths into JSON 404s instead of ServeMux plain-text ones.
func (s *Server) Routes() []string {
	return []string{"/hello", "/events", "/config", "/trigger", "/"}
}

// ServeHTTP dispatches by path, then method. Auth and CORS have already
// run in the middleware chain by the time this is reached.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/hello":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleHello(w, r)
	case "/events":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleEvents(w, r)
	case "/config":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleConfig(w, r)
	case "/trigger":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleTrigger(w, r)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleHello(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "token": s.token})
}

// handleEvents holds the connection open, writing the ready frame
// first, then trigger frames and periodic keepalive comments.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	frames, unsubscribe := s.broker.Subscribe()
	defer unsubscribe()

	// The ready frame tells the client the helper will accept config.
	writeFrame(w, Frame{Ready: true})
	flusher.Flush()

	s.logger.Infof("events: client connected (total %d)", s.broker.Clients())
	defer s.logger.Info("events: client disconnected")

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, open := <-frames:
			if !open {
				return
			}
			writeFrame(w, frame)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// handleConfig replaces the watched combo set. Entries are normalized
// on the way in so the set the capturer sees matches what clients can
// later trigger, regardless of how they were spelled.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Combos []string `json:"combos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	next := make(map[string]struct{}, len(payload.Combos))
	for _, text := range payload.Combos {
		if normalized := combo.Normalize(text); normalized != "" {
			next[normalized] = struct{}{}
		}
	}

	watched := make([]string, 0, len(next))
	for c := range next {
		watched = append(watched, c)
	}
	sort.Strings(watched)

	s.mu.Lock()
	s.combos = next
	s.mu.Unlock()

	if s.capture != nil {
		if err := s.capture.Replace(watched); err != nil {
			s.logger.Warnf("capture: %v", err)
		}
	}

	s.logger.Infof("combos updated: %s", strings.Join(watched, ", "))
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(watched)})
}

// handleTrigger synthesizes an event for a watched combo, the testing
// path for hosts where OS capture is unavailable.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Combo string `json:"combo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	normalized := combo.Normalize(payload.Combo)

	s.mu.RLock()
	_, registered := s.combos[normalized]
	s.mu.RUnlock()

	if !registered {
		s.writeError(w, http.StatusBadRequest, "combo not registered")
		return
	}

	s.Broadcast(normalized)
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := shared.MarshalJSON(payload, false)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
