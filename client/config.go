package client

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/arloliu/go-slmp/logger"
	"github.com/arloliu/go-slmp/slmp"
)

const (
	// DefaultHost is the controller address used when WithHost is not given.
	DefaultHost = "192.168.5.125"
	// DefaultPort is the controller port used when WithPort is not given.
	DefaultPort = 2001
)

// Config represents the configuration parameters of a Client.
type Config struct {
	mu sync.RWMutex

	// host specifies the host of the remote controller.
	host string

	// port specifies the port number of the remote controller.
	port int

	// protocol selects TCP or UDP.
	// Defaults to TCP.
	protocol slmp.Protocol

	// localAddr and localPort specify the local bind address.
	// Defaults to the wildcard address and an ephemeral port.
	localAddr string
	localPort int

	// station selects the target station of every request.
	// Defaults to the connected station.
	station slmp.Station

	// timeout bounds every engine call. Zero selects the engine default.
	timeout time.Duration

	// logger provides a logger instance for client events and failures.
	logger logger.Logger
}

// NewConfig creates a client configuration with the default target and the given options applied in order.
//
// Returns the configuration and the first error reported by an option.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		host:      DefaultHost,
		port:      DefaultPort,
		protocol:  slmp.TCP,
		localAddr: "0.0.0.0",
		localPort: 0,
		station:   slmp.ConnectedStation,
		logger:    logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func (cfg *Config) Host() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.host
}

func (cfg *Config) Port() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.port
}

func (cfg *Config) Protocol() slmp.Protocol {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.protocol
}

func (cfg *Config) Timeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.timeout
}

func (cfg *Config) Logger() logger.Logger {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.logger
}

// SessionParams returns the engine parameters described by the configuration.
func (cfg *Config) SessionParams() slmp.SessionParams {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return slmp.SessionParams{
		Protocol:   cfg.protocol,
		RemoteHost: cfg.host,
		RemotePort: cfg.port,
		LocalAddr:  cfg.localAddr,
		LocalPort:  cfg.localPort,
		Station:    cfg.station,
		Timeout:    cfg.timeout,
	}
}

// Option represents a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error {
	if cfg == nil {
		return ErrConfigNil
	}

	cfg.mu.Lock()
	defer cfg.mu.Unlock()

	return f(cfg)
}

// WithHost sets the controller host. It must be an IP address or a host name that resolves.
func WithHost(host string) Option {
	return optFunc(func(cfg *Config) error {
		if !validHost(host) {
			return fmt.Errorf("invalid host %q", host)
		}
		cfg.host = host

		return nil
	})
}

// WithPort sets the controller port. It must be within [1, 65535].
func WithPort(port int) Option {
	return optFunc(func(cfg *Config) error {
		if port < 1 || port > 65535 {
			return errors.New("port is out of range [1, 65535]")
		}
		cfg.port = port

		return nil
	})
}

// WithProtocol selects TCP or UDP transport.
func WithProtocol(protocol slmp.Protocol) Option {
	return optFunc(func(cfg *Config) error {
		if !protocol.IsValid() {
			return fmt.Errorf("invalid protocol type: %d", protocol)
		}
		cfg.protocol = protocol

		return nil
	})
}

// WithLocalAddr sets the local bind address and port. An empty addr binds the wildcard address,
// port 0 binds an ephemeral port.
func WithLocalAddr(addr string, port int) Option {
	return optFunc(func(cfg *Config) error {
		if addr != "" && net.ParseIP(addr) == nil {
			return fmt.Errorf("invalid local address %q", addr)
		}
		if port < 0 || port > 65535 {
			return errors.New("local port is out of range [0, 65535]")
		}
		if addr == "" {
			addr = "0.0.0.0"
		}
		cfg.localAddr = addr
		cfg.localPort = port

		return nil
	})
}

// WithStation routes requests to another station than the connected station.
func WithStation(station slmp.Station) Option {
	return optFunc(func(cfg *Config) error {
		cfg.station = station
		return nil
	})
}

// WithTimeout bounds every engine call. Zero selects the engine default.
func WithTimeout(timeout time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if timeout < 0 {
			return errors.New("timeout must not be negative")
		}
		cfg.timeout = timeout

		return nil
	})
}

// WithLogger sets the logger of the client.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("logger is nil")
		}
		cfg.logger = l

		return nil
	})
}

// validHost accepts an IP address or a name that resolves.
func validHost(host string) bool {
	if net.ParseIP(host) != nil {
		return true
	}

	host = strings.TrimPrefix(host, ".")
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return false
	}
	_, err := net.LookupHost(host)

	return err == nil
}
