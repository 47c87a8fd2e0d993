package mission

import (
	"sync"
)

// Status is a snapshot of a running mission.
type Status struct {
	Tick       int
	SimTime    float64
	State      State
	Detected   int
	Deliveries int
	FieldSize  int
}

// Context publishes the latest Status of a mission to readers on other goroutines.
type Context struct {
	mu     sync.RWMutex
	status Status
}

// NewContext creates a Context reporting SEARCHING at tick 0.
func NewContext() *Context {
	return &Context{status: Status{State: StateSearching}}
}

// Status returns the latest snapshot.
func (mc *Context) Status() Status {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.status
}

func (mc *Context) set(s Status) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.status = s
}
