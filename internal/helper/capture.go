package helper

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.design/x/hotkey"

	"github.com/desertthunder/spotkeys/internal/combo"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// Capturer owns OS-level global hotkey registrations for the helper.
type Capturer interface {
	// Replace swaps the full set of watched combos. Combos the OS
	// rejects are skipped; the returned error names them.
	Replace(combos []string) error
	// Close releases every registration and stops the watchers.
	Close()
}

// HotkeyCapturer registers combos with the OS through
// golang.design/x/hotkey and publishes one event per physical press.
type HotkeyCapturer struct {
	publish func(comboText string)
	logger  *log.Logger

	mu      sync.Mutex
	entries map[string]*captureEntry
	closed  bool
}

type captureEntry struct {
	hk   *hotkey.Hotkey
	stop chan struct{}
}

// NewHotkeyCapturer creates a capturer that reports triggered combos
// through publish. No registrations exist until Replace is called.
func NewHotkeyCapturer(publish func(comboText string), logger *log.Logger) *HotkeyCapturer {
	return &HotkeyCapturer{
		publish: publish,
		logger:  logger,
		entries: make(map[string]*captureEntry),
	}
}

// Replace unregisters the current set and registers the given combos.
// Combos that cannot be bound are logged and skipped so one bad entry
// never blocks the rest; they are reported in the returned error.
func (c *HotkeyCapturer) Replace(combos []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return shared.ErrHelperUnavailable
	}

	c.unregisterLocked()

	var skipped []string
	for _, text := range combos {
		entry, err := c.register(text)
		if err != nil {
			c.logger.Warnf("capture: skipping %s: %v", text, err)
			skipped = append(skipped, text)
			continue
		}
		c.entries[text] = entry
		c.logger.Debugf("capture: registered %s", text)
	}

	if len(skipped) > 0 {
		return fmt.Errorf("%w: %s", shared.ErrInvalidCombo, strings.Join(skipped, ", "))
	}
	return nil
}

// Close releases all registrations. The capturer cannot be reused.
func (c *HotkeyCapturer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unregisterLocked()
	c.closed = true
}

func (c *HotkeyCapturer) register(text string) (*captureEntry, error) {
	mods, key := combo.Split(text)
	if key == "" {
		return nil, fmt.Errorf("missing non-modifier key")
	}

	hkKey, ok := keyFor(key)
	if !ok {
		return nil, fmt.Errorf("unsupported key %q", key)
	}

	hkMods := make([]hotkey.Modifier, 0, len(mods))
	for _, mod := range mods {
		m, ok := modifierFor(mod)
		if !ok {
			return nil, fmt.Errorf("unsupported modifier %q", mod)
		}
		hkMods = append(hkMods, m)
	}

	// On darwin Register dispatches to the main OS thread, which the
	// helper's main parks via mainthread.Init; calling from an HTTP
	// handler goroutine is fine.
	hk := hotkey.New(hkMods, hkKey)
	if err := hk.Register(); err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	go c.watch(text, hk, stop)
	return &captureEntry{hk: hk, stop: stop}, nil
}

// watch publishes one event per physical press: after a keydown fires,
// further keydown events (OS auto-repeat) are swallowed until the
// matching keyup rearms the combo.
func (c *HotkeyCapturer) watch(text string, hk *hotkey.Hotkey, stop chan struct{}) {
armed:
	for {
		select {
		case <-stop:
			return
		case <-hk.Keydown():
			c.publish(text)
			for {
				select {
				case <-stop:
					return
				case <-hk.Keyup():
					continue armed
				case <-hk.Keydown():
				}
			}
		}
	}
}

func (c *HotkeyCapturer) unregisterLocked() {
	for text, entry := range c.entries {
		close(entry.stop)
		entry.hk.Unregister()
		delete(c.entries, text)
	}
}
