package debugger

import (
	"fmt"
	"sync"

	"github.com/justina-lang/justina/vars"
)

// WatchType represents the type of watchpoint.
// NOTE: the current implementation can only detect value changes, not
// distinguish a read from a write. All watchpoint types behave the same
// way - they trigger when the watched expression's value differs from its
// previously observed value.
type WatchType int

const (
	WatchWrite     WatchType = iota // Trigger on write (currently same as WatchReadWrite)
	WatchRead                       // Trigger on read (currently same as WatchReadWrite)
	WatchReadWrite                  // Trigger on read or write (value change detection)
)

// Watchpoint monitors a variable or array-element expression for changes.
type Watchpoint struct {
	ID         int
	Type       WatchType
	Expression string // variable/array-element expression being watched, e.g. "total" or "a(2)"
	Enabled    bool
	LastValue  string // signature of the last observed value; see valueSignature
	HitCount   int
}

// WatchpointManager manages all watchpoints.
type WatchpointManager struct {
	mu          sync.RWMutex
	watchpoints map[int]*Watchpoint
	nextID      int
}

// NewWatchpointManager creates a new watchpoint manager.
func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{
		watchpoints: make(map[int]*Watchpoint),
		nextID:      1,
	}
}

// AddWatchpoint adds a new watchpoint on expression.
func (wm *WatchpointManager) AddWatchpoint(wpType WatchType, expression string) *Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp := &Watchpoint{
		ID:         wm.nextID,
		Type:       wpType,
		Expression: expression,
		Enabled:    true,
	}

	wm.watchpoints[wp.ID] = wp
	wm.nextID++

	return wp
}

// DeleteWatchpoint removes a watchpoint by ID.
func (wm *WatchpointManager) DeleteWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.watchpoints[id]; !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	delete(wm.watchpoints, id)
	return nil
}

// EnableWatchpoint enables a watchpoint by ID.
func (wm *WatchpointManager) EnableWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	wp.Enabled = true
	return nil
}

// DisableWatchpoint disables a watchpoint by ID.
func (wm *WatchpointManager) DisableWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	wp.Enabled = false
	return nil
}

// GetWatchpoint gets a watchpoint by ID.
func (wm *WatchpointManager) GetWatchpoint(id int) *Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return wm.watchpoints[id]
}

// GetAllWatchpoints returns all watchpoints.
func (wm *WatchpointManager) GetAllWatchpoints() []*Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	result := make([]*Watchpoint, 0, len(wm.watchpoints))
	for _, wp := range wm.watchpoints {
		result = append(result, wp)
	}

	return result
}

// Resolver evaluates a watched expression against the program's current
// variable state. Debugger.evalExpression (routing through the real
// parser/eval immediate-mode machinery) is the production implementation.
type Resolver func(expression string) (vars.Value, error)

// CheckWatchpoints checks all enabled watchpoints and returns the first
// whose value has changed since it was last observed.
// NOTE: this uses value-change detection, not true read/write tracking;
// the watchpoint Type field is currently not enforced.
func (wm *WatchpointManager) CheckWatchpoints(resolve Resolver) (*Watchpoint, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	for _, wp := range wm.watchpoints {
		if !wp.Enabled {
			continue
		}

		v, err := resolve(wp.Expression)
		if err != nil {
			continue
		}

		sig := valueSignature(v)
		if sig != wp.LastValue {
			wp.HitCount++
			wp.LastValue = sig
			return wp, true
		}
	}

	return nil, false
}

// InitializeWatchpoint records the current value of a watchpoint's
// expression as its baseline, so the next CheckWatchpoints call only fires
// on an actual change.
func (wm *WatchpointManager) InitializeWatchpoint(id int, resolve Resolver) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	v, err := resolve(wp.Expression)
	if err != nil {
		return fmt.Errorf("failed to initialize watchpoint: %w", err)
	}
	wp.LastValue = valueSignature(v)

	return nil
}

// Clear removes all watchpoints.
func (wm *WatchpointManager) Clear() {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wm.watchpoints = make(map[int]*Watchpoint)
}

// Count returns the number of watchpoints.
func (wm *WatchpointManager) Count() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return len(wm.watchpoints)
}

// valueSignature turns a vars.Value into a comparable string so
// CheckWatchpoints can detect a change without depending on Value's
// internal representation (a string value's heap pointer can change on
// every reassignment even when its contents don't).
func valueSignature(v vars.Value) string {
	switch v.Kind {
	case vars.KindString:
		if v.Str == nil {
			return "s:"
		}
		return "s:" + v.Str.Value()
	case vars.KindFloat:
		return fmt.Sprintf("f:%v", v.Float)
	default:
		return fmt.Sprintf("l:%v", v.Long)
	}
}
