package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/go-slmp/device"
	"github.com/arloliu/go-slmp/internal/util"
	"github.com/arloliu/go-slmp/logger"
	"github.com/arloliu/go-slmp/slmp"
)

// Client owns a single session to a controller and serializes every lifecycle call and every
// batched transfer through one mutex. At most one operation is in flight per client, so a read
// always observes every write issued before it on the same client.
//
// Failures are reported through the returned error and logged with the address at the point of
// failure; no engine failure escapes as a panic.
type Client struct {
	cfg    *Config
	engine slmp.Engine
	logger logger.Logger

	mu     sync.Mutex  // guards handle, held for the full duration of each engine call
	handle slmp.Handle // non-nil only while connected

	metrics Metrics
}

// New creates an unopened client that drives engine with the parameters in cfg.
func New(engine slmp.Engine, cfg *Config) (*Client, error) {
	if engine == nil {
		return nil, ErrEngineNil
	}
	if cfg == nil {
		return nil, ErrConfigNil
	}

	params := cfg.SessionParams()
	c := &Client{
		cfg:    cfg,
		engine: engine,
		logger: cfg.Logger().With("host", params.RemoteHost, "port", params.RemotePort, "protocol", params.Protocol),
	}

	c.logger.Debug("client created")

	return c, nil
}

// Open constructs and connects a new session.
//
// Any existing session is torn down first, so Open can be called repeatedly. On failure no
// handle is left allocated, the client is unopened and the error wraps ErrSessionOpen.
func (c *Client) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()

	h, err := c.engine.NewSession(c.cfg.SessionParams())
	if err == nil && h == nil {
		err = errors.New("engine returned no session")
	}
	if err != nil {
		c.metrics.incOpenErr()
		c.logger.Error("failed to create session", "error", err)

		return fmt.Errorf("%w: %w", ErrSessionOpen, err)
	}

	if err := h.Connect(); err != nil {
		h.Free()
		c.metrics.incOpenErr()
		c.logger.Error("failed to connect session", "error", err)

		return fmt.Errorf("%w: %w", ErrSessionOpen, err)
	}

	c.handle = h
	c.metrics.incOpen()
	c.logger.Info("session opened")

	return nil
}

// Close tears the session down. It is a no-op without a session.
//
// Close is best-effort cleanup: disconnect errors are logged and never returned, so the
// returned error is always nil. Callers owning a Client must Close it when done.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()

	return nil
}

func (c *Client) closeLocked() {
	if c.handle == nil {
		return
	}

	if err := c.handle.Disconnect(); err != nil {
		c.logger.Debug("disconnect failed during close", "error", err)
	}
	c.handle.Free()
	c.handle = nil
	c.metrics.setClosed()
	c.logger.Info("session closed")
}

// State returns the lifecycle state of the session.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != nil {
		return ConnectedState
	}
	return UnopenedState
}

// Config returns the client configuration.
func (c *Client) Config() *Config {
	return c.cfg
}

// Metrics returns the metrics of the client.
func (c *Client) Metrics() *Metrics {
	return &c.metrics
}

// Read reads count consecutive registers starting at addr. Element i of the result is the
// register at addr + i.
//
// The address is validated before the session is touched. On any failure no values are returned.
func (c *Client) Read(addr string, count int) ([]uint16, error) {
	a, err := c.checkAddress(addr, count)
	if err != nil {
		c.metrics.incReadErr()
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil {
		return nil, c.readFailed(addr, count, ErrNotConnected)
	}

	values, err := c.handle.BatchRead(a, count)
	if err != nil {
		return nil, c.readFailed(addr, count, err)
	}
	if len(values) != count {
		return nil, c.readFailed(addr, count, fmt.Errorf("engine returned %d values", len(values)))
	}

	c.metrics.addRead(count)

	return values, nil
}

// ReadOne reads the single register at addr.
func (c *Client) ReadOne(addr string) (uint16, error) {
	values, err := c.Read(addr, 1)
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

// Write writes the first count elements of values to consecutive registers starting at addr.
// Extra elements are ignored; fewer than count elements fail with ErrSizeMismatch before the
// session is touched.
func (c *Client) Write(addr string, count int, values []uint16) error {
	a, err := c.checkAddress(addr, count)
	if err != nil {
		c.metrics.incWriteErr()
		return err
	}

	if len(values) < count {
		c.metrics.incWriteErr()
		c.logger.Error("payload shorter than requested write count", "address", addr, "count", count, "size", len(values))

		return fmt.Errorf("%w: %d values for %d registers at %s", ErrSizeMismatch, len(values), count, addr)
	}

	payload := util.CloneSlice(values, count)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil {
		return c.writeFailed(addr, count, ErrNotConnected)
	}

	if err := c.handle.BatchWrite(a, payload); err != nil {
		return c.writeFailed(addr, count, err)
	}

	c.metrics.addWrite(count)

	return nil
}

// WriteOne writes value to the single register at addr.
func (c *Client) WriteOne(addr string, value uint16) error {
	return c.Write(addr, 1, []uint16{value})
}

func (c *Client) checkAddress(addr string, count int) (device.Address, error) {
	a, err := device.Parse(addr)
	if err != nil {
		c.logger.Warn("invalid register address", "address", addr)
		return a, err
	}

	if count < 1 {
		c.logger.Warn("invalid register count", "address", addr, "count", count)
		return a, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	return a, nil
}

func (c *Client) readFailed(addr string, count int, cause error) error {
	c.metrics.incReadErr()
	c.logger.Error("failed to batch read", "address", addr, "count", count, "error", cause)

	return fmt.Errorf("%w: %d registers from %s: %w", ErrBatchRead, count, addr, cause)
}

func (c *Client) writeFailed(addr string, count int, cause error) error {
	c.metrics.incWriteErr()
	c.logger.Error("failed to batch write", "address", addr, "count", count, "error", cause)

	return fmt.Errorf("%w: %d registers to %s: %w", ErrBatchWrite, count, addr, cause)
}

// ValidAddress reports whether addr matches a register grammar.
func ValidAddress(addr string) bool {
	return device.Validate(addr)
}

// AddressKind returns the register kind of addr, or device.Unknown.
func AddressKind(addr string) device.Kind {
	return device.Classify(addr)
}
