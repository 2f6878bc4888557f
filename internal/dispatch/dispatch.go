// package dispatch routes triggered key combos to registered callbacks.
//
// A [Registry] owns the combo → callback table shared by every trigger
// source: the in-app event source and the helper bridge both resolve combos
// through the same registry and the same [TriggerLock], so a physical key
// press observed twice within the debounce window executes its callback
// exactly once.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotkeys/internal/combo"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// DefaultLockTTL is how long a combo stays debounced after it fires.
const DefaultLockTTL = 500 * time.Millisecond

// Callback runs when a registered combo fires. Errors are logged, never propagated.
type Callback func(ctx context.Context) error

// Registration pairs a canonical combo with its callback.
type Registration struct {
	Original string
	Combo    string
	Callback Callback
}

// EventSource feeds in-app key events into a registry. Implementations start
// capture when the first combo is registered and stop when the last one is removed.
type EventSource interface {
	Start() error
	Stop()
}

// TriggerLock is a per-combo execution gate with automatic expiry.
//
// A combo acquired at time T stays held until T+ttl; there is no manual
// release. Holding for the full window is what debounces the same physical
// press arriving from two sources, and the expiry guarantees a callback that
// hangs or panics cannot permanently wedge its combo.
type TriggerLock struct {
	mu   sync.Mutex
	held map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewTriggerLock creates a TriggerLock with the given expiry window.
// Non-positive ttl falls back to [DefaultLockTTL].
func NewTriggerLock(ttl time.Duration) *TriggerLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &TriggerLock{
		held: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TryAcquire attempts to take the gate for a combo. Returns false while a
// prior acquisition is still inside its expiry window.
func (l *TriggerLock) TryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if heldAt, ok := l.held[key]; ok && l.now().Sub(heldAt) < l.ttl {
		return false
	}

	l.held[key] = l.now()
	return true
}

// RegistryOpts configures a [Registry].
type RegistryOpts struct {
	Lock     *TriggerLock
	Source   EventSource
	Logger   *log.Logger
	OnChange func(combos []string)
}

// Registry maps canonical combos to registrations and dispatches triggers.
type Registry struct {
	mu        sync.RWMutex
	regs      map[string]Registration
	lock      *TriggerLock
	source    EventSource
	listening bool
	logger    *log.Logger
	onChange  func(combos []string)
}

// NewRegistry creates a Registry with the provided options.
func NewRegistry(opts RegistryOpts) *Registry {
	if opts.Lock == nil {
		opts.Lock = NewTriggerLock(DefaultLockTTL)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Registry{
		regs:     make(map[string]Registration),
		lock:     opts.Lock,
		source:   opts.Source,
		logger:   opts.Logger,
		onChange: opts.OnChange,
	}
}

// Lock exposes the registry's trigger lock so other trigger sources can share
// its debounce discipline.
func (r *Registry) Lock() *TriggerLock {
	return r.lock
}

// Register normalizes a combo and stores its callback, replacing any prior
// registration for the same canonical combo. Returns the canonical form.
// The in-app event source starts on the first registration.
func (r *Registry) Register(comboText string, cb Callback) (string, error) {
	key := combo.Normalize(comboText)
	if key == "" || cb == nil {
		return "", fmt.Errorf("%w: empty combo or callback", shared.ErrInvalidCombo)
	}
	if _, k := combo.Split(key); k == "" {
		return "", fmt.Errorf("%w: %q has no non-modifier key", shared.ErrInvalidCombo, comboText)
	}

	r.mu.Lock()
	r.regs[key] = Registration{Original: comboText, Combo: key, Callback: cb}
	startSource := !r.listening && r.source != nil
	if startSource {
		r.listening = true
	}
	r.mu.Unlock()

	if startSource {
		if err := r.source.Start(); err != nil {
			r.logger.Warnf("in-app event source failed to start: %v", err)
		}
	}

	r.notify()
	return key, nil
}

// Unregister removes a combo's registration, reporting whether one existed.
// The in-app event source stops once no registrations remain.
func (r *Registry) Unregister(comboText string) bool {
	key := combo.Normalize(comboText)

	r.mu.Lock()
	_, existed := r.regs[key]
	delete(r.regs, key)
	stopSource := existed && len(r.regs) == 0 && r.listening
	if stopSource {
		r.listening = false
	}
	r.mu.Unlock()

	if stopSource {
		r.source.Stop()
	}

	if existed {
		r.notify()
	}
	return existed
}

// Clear removes every registration and stops the event source.
func (r *Registry) Clear() {
	r.mu.Lock()
	had := len(r.regs) > 0
	r.regs = make(map[string]Registration)
	stopSource := r.listening
	if stopSource {
		r.listening = false
	}
	r.mu.Unlock()

	if stopSource {
		r.source.Stop()
	}

	if had {
		r.notify()
	}
}

// Combos returns the registered canonical combos, sorted.
func (r *Registry) Combos() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	combos := make([]string, 0, len(r.regs))
	for key := range r.regs {
		combos = append(combos, key)
	}
	sort.Strings(combos)
	return combos
}

// Len returns the number of active registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.regs)
}

// Dispatch resolves a combo and runs its callback, returning true when a
// callback was started. A combo still inside its debounce window is silently
// dropped. Callback panics and errors are logged; they never reach the caller.
func (r *Registry) Dispatch(ctx context.Context, comboText string) bool {
	key := combo.Normalize(comboText)

	r.mu.RLock()
	reg, ok := r.regs[key]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debugf("no registration for combo %v", key)
		return false
	}

	if !r.lock.TryAcquire(key) {
		r.logger.Debugf("combo %v debounced", key)
		return false
	}

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Errorf("combo %v callback panicked: %v", key, rec)
			}
		}()

		if err := reg.Callback(ctx); err != nil {
			r.logger.Errorf("combo %v callback failed: %v", key, err)
		}
	}()

	return true
}

// notify invokes the change hook with the current combo set, outside the lock.
func (r *Registry) notify() {
	if r.onChange == nil {
		return
	}
	r.onChange(r.Combos())
}
