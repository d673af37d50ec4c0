package slmp

import (
	"time"

	"github.com/arloliu/go-slmp/device"
)

// DefaultTimeout is the engine timeout used when SessionParams.Timeout is zero.
const DefaultTimeout = 3 * time.Second

// Protocol is the transport kind of a session.
type Protocol uint8

const (
	// TCP carries frames over a TCP stream.
	TCP Protocol = iota
	// UDP carries one frame per datagram.
	UDP
)

// String returns "TCP", "UDP" or "Unknown".
func (p Protocol) String() string {
	switch p {
	case TCP:
		return "TCP"
	case UDP:
		return "UDP"
	default:
		return "Unknown"
	}
}

// Network returns the net package network name of the protocol.
func (p Protocol) Network() string {
	switch p {
	case UDP:
		return "udp"
	default:
		return "tcp"
	}
}

// IsValid reports whether p is TCP or UDP.
func (p Protocol) IsValid() bool {
	return p == TCP || p == UDP
}

// Station holds the routing fields that select the target station of a request.
type Station struct {
	Network       byte
	PC            byte
	ModuleIO      uint16
	ModuleStation byte
}

// ConnectedStation routes requests to the station the link is physically connected to.
var ConnectedStation = Station{Network: 0x00, PC: 0xFF, ModuleIO: 0x03FF, ModuleStation: 0x00}

// SessionParams are the parameters an Engine needs to create a session.
type SessionParams struct {
	Protocol   Protocol
	RemoteHost string
	RemotePort int
	LocalAddr  string
	LocalPort  int
	Station    Station
	// Timeout bounds each engine call. Zero selects DefaultTimeout.
	Timeout time.Duration
}

// EffectiveTimeout returns Timeout, or DefaultTimeout if Timeout is not positive.
func (p SessionParams) EffectiveTimeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

// Engine creates protocol sessions. It is the narrow interface the client drives.
type Engine interface {
	// NewSession constructs an unconnected session handle.
	NewSession(params SessionParams) (Handle, error)
}

// Handle is a single protocol session.
//
// Handles are owned by one caller; implementations are not required to be safe for
// concurrent use.
type Handle interface {
	// Connect establishes the underlying link.
	Connect() error
	// Disconnect tears the link down. The handle may be connected again.
	Disconnect() error
	// Free releases every resource held by the handle. The handle must not be used afterwards.
	Free()
	// BatchRead reads count consecutive words starting at addr.
	BatchRead(addr device.Address, count int) ([]uint16, error)
	// BatchWrite writes values to consecutive words starting at addr.
	BatchWrite(addr device.Address, values []uint16) error
}
