// Package memengine provides an in-memory slmp.Engine with call counters and fault hooks.
package memengine

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-slmp/device"
	"github.com/arloliu/go-slmp/slmp"
)

var (
	// ErrNotConnected is returned by transfers on a handle that is not connected.
	ErrNotConnected = errors.New("memengine: not connected")

	// ErrFreed is returned by every call on a freed handle.
	ErrFreed = errors.New("memengine: handle freed")
)

// FaultFunc decides whether a transfer at addr of count registers fails. A nil return lets the
// transfer through.
type FaultFunc func(addr device.Address, count int) error

// Engine is an slmp.Engine backed by an slmp.Memory.
type Engine struct {
	mem *slmp.Memory

	mu            sync.RWMutex
	sessionErr    error
	connectErr    error
	disconnectErr error
	readFault     FaultFunc
	writeFault    FaultFunc
	lastParams    slmp.SessionParams

	sessions    atomic.Int64
	connects    atomic.Int64
	disconnects atomic.Int64
	frees       atomic.Int64
	reads       atomic.Int64
	writes      atomic.Int64
}

var _ slmp.Engine = (*Engine)(nil)

// New creates an engine over an empty memory.
func New() *Engine {
	return NewWithMemory(slmp.NewMemory())
}

// NewWithMemory creates an engine over mem.
func NewWithMemory(mem *slmp.Memory) *Engine {
	return &Engine{mem: mem}
}

// Memory returns the backing memory.
func (e *Engine) Memory() *slmp.Memory { return e.mem }

// FailNewSession makes NewSession return err. A nil err clears the fault.
func (e *Engine) FailNewSession(err error) {
	e.mu.Lock()
	e.sessionErr = err
	e.mu.Unlock()
}

// FailConnect makes Connect return err. A nil err clears the fault.
func (e *Engine) FailConnect(err error) {
	e.mu.Lock()
	e.connectErr = err
	e.mu.Unlock()
}

// FailDisconnect makes Disconnect return err. A nil err clears the fault.
func (e *Engine) FailDisconnect(err error) {
	e.mu.Lock()
	e.disconnectErr = err
	e.mu.Unlock()
}

// SetReadFault installs fn as the read fault hook.
func (e *Engine) SetReadFault(fn FaultFunc) {
	e.mu.Lock()
	e.readFault = fn
	e.mu.Unlock()
}

// SetWriteFault installs fn as the write fault hook.
func (e *Engine) SetWriteFault(fn FaultFunc) {
	e.mu.Lock()
	e.writeFault = fn
	e.mu.Unlock()
}

// FailAt returns a FaultFunc that fails with err every transfer starting at addr.
func FailAt(addr string, err error) FaultFunc {
	target := device.MustParse(addr)
	return func(a device.Address, _ int) error {
		if a.Kind() == target.Kind() && a.Offset() == target.Offset() {
			return err
		}
		return nil
	}
}

// LastParams returns the parameters of the most recent NewSession call.
func (e *Engine) LastParams() slmp.SessionParams {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.lastParams
}

// Sessions returns the number of NewSession calls.
func (e *Engine) Sessions() int64 { return e.sessions.Load() }

// Connects returns the number of Connect calls.
func (e *Engine) Connects() int64 { return e.connects.Load() }

// Disconnects returns the number of Disconnect calls.
func (e *Engine) Disconnects() int64 { return e.disconnects.Load() }

// Frees returns the number of Free calls.
func (e *Engine) Frees() int64 { return e.frees.Load() }

// Reads returns the number of BatchRead calls.
func (e *Engine) Reads() int64 { return e.reads.Load() }

// Writes returns the number of BatchWrite calls.
func (e *Engine) Writes() int64 { return e.writes.Load() }

// Live returns the number of handles created and not yet freed.
func (e *Engine) Live() int64 { return e.sessions.Load() - e.frees.Load() }

// NewSession returns an unconnected handle.
func (e *Engine) NewSession(params slmp.SessionParams) (slmp.Handle, error) {
	e.mu.Lock()
	e.lastParams = params
	err := e.sessionErr
	e.mu.Unlock()

	if err != nil {
		return nil, err
	}
	e.sessions.Add(1)

	return &handle{engine: e}, nil
}

type handle struct {
	engine    *Engine
	mu        sync.Mutex
	connected bool
	freed     bool
}

func (h *handle) Connect() error {
	h.engine.connects.Add(1)

	h.engine.mu.RLock()
	err := h.engine.connectErr
	h.engine.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.freed {
		return ErrFreed
	}
	if err != nil {
		return err
	}
	h.connected = true

	return nil
}

func (h *handle) Disconnect() error {
	h.engine.disconnects.Add(1)

	h.engine.mu.RLock()
	err := h.engine.disconnectErr
	h.engine.mu.RUnlock()

	h.mu.Lock()
	h.connected = false
	h.mu.Unlock()

	return err
}

func (h *handle) Free() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.freed {
		return
	}
	h.freed = true
	h.connected = false
	h.engine.frees.Add(1)
}

func (h *handle) ready() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.freed:
		return ErrFreed
	case !h.connected:
		return ErrNotConnected
	default:
		return nil
	}
}

func (h *handle) BatchRead(addr device.Address, count int) ([]uint16, error) {
	h.engine.reads.Add(1)

	if err := h.ready(); err != nil {
		return nil, err
	}

	h.engine.mu.RLock()
	fault := h.engine.readFault
	h.engine.mu.RUnlock()

	if fault != nil {
		if err := fault(addr, count); err != nil {
			return nil, err
		}
	}

	values, ok := h.engine.mem.Read(addr.Kind().Code(), addr.Offset(), count)
	if !ok {
		return nil, &slmp.EndCodeError{Code: slmp.EndCodeDeviceRange}
	}

	return values, nil
}

func (h *handle) BatchWrite(addr device.Address, values []uint16) error {
	h.engine.writes.Add(1)

	if err := h.ready(); err != nil {
		return err
	}

	h.engine.mu.RLock()
	fault := h.engine.writeFault
	h.engine.mu.RUnlock()

	if fault != nil {
		if err := fault(addr, len(values)); err != nil {
			return err
		}
	}

	if !h.engine.mem.Write(addr.Kind().Code(), addr.Offset(), values) {
		return &slmp.EndCodeError{Code: slmp.EndCodeDeviceRange}
	}

	return nil
}
