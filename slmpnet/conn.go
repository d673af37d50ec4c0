package slmpnet

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/arloliu/go-slmp/device"
	"github.com/arloliu/go-slmp/logger"
	"github.com/arloliu/go-slmp/slmp"
)

var (
	// ErrNotConnected indicates that a transfer was attempted on a handle without a link.
	ErrNotConnected = errors.New("slmpnet: not connected")

	// ErrFreed indicates that a freed handle was used.
	ErrFreed = errors.New("slmpnet: handle freed")
)

// Dialer is the network slmp.Engine. The zero value is ready to use.
type Dialer struct {
	// Logger receives debug records of frame exchanges. Defaults to the package default logger.
	Logger logger.Logger
}

var _ slmp.Engine = Dialer{}

// NewSession validates params and returns an unconnected *Conn.
func (d Dialer) NewSession(params slmp.SessionParams) (slmp.Handle, error) {
	if !params.Protocol.IsValid() {
		return nil, fmt.Errorf("%w: protocol %d", slmp.ErrInvalidParams, params.Protocol)
	}
	if params.RemoteHost == "" {
		return nil, fmt.Errorf("%w: empty remote host", slmp.ErrInvalidParams)
	}
	if params.RemotePort < 1 || params.RemotePort > 65535 {
		return nil, fmt.Errorf("%w: remote port %d", slmp.ErrInvalidParams, params.RemotePort)
	}
	if params.LocalPort < 0 || params.LocalPort > 65535 {
		return nil, fmt.Errorf("%w: local port %d", slmp.ErrInvalidParams, params.LocalPort)
	}

	l := d.Logger
	if l == nil {
		l = logger.GetLogger()
	}

	return &Conn{
		params: params,
		logger: l.With("remote", net.JoinHostPort(params.RemoteHost, strconv.Itoa(params.RemotePort)), "protocol", params.Protocol),
	}, nil
}

// Conn is an SLMP session over TCP or UDP implementing slmp.Handle.
type Conn struct {
	params slmp.SessionParams
	logger logger.Logger

	connMutex sync.Mutex
	conn      net.Conn
	freed     bool
	// rbuf receives UDP datagrams. Guarded by connMutex.
	rbuf []byte
}

var _ slmp.Handle = (*Conn)(nil)

// Connect dials the remote station. An existing link is closed first.
func (c *Conn) Connect() error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.freed {
		return ErrFreed
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}

	dialer := net.Dialer{Timeout: c.params.EffectiveTimeout()}
	local, err := c.localAddr()
	if err != nil {
		return err
	}
	if local != nil {
		dialer.LocalAddr = local
	}

	remote := net.JoinHostPort(c.params.RemoteHost, strconv.Itoa(c.params.RemotePort))
	conn, err := dialer.Dial(c.params.Protocol.Network(), remote)
	if err != nil {
		return err
	}

	c.conn = conn
	c.logger.Debug("link established", "local", conn.LocalAddr().String())

	return nil
}

// Disconnect closes the link. It is a no-op without a link.
func (c *Conn) Disconnect() error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.logger.Debug("link closed")

	return err
}

// Free disconnects and marks the handle unusable.
func (c *Conn) Free() {
	_ = c.Disconnect()

	c.connMutex.Lock()
	c.freed = true
	c.connMutex.Unlock()
}

// BatchRead reads count words starting at addr.
func (c *Conn) BatchRead(addr device.Address, count int) ([]uint16, error) {
	req, err := slmp.NewBatchReadRequest(c.params.Station, c.params.EffectiveTimeout(), addr, count)
	if err != nil {
		return nil, err
	}

	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}

	return resp.Words(count)
}

// BatchWrite writes values starting at addr.
func (c *Conn) BatchWrite(addr device.Address, values []uint16) error {
	req, err := slmp.NewBatchWriteRequest(c.params.Station, c.params.EffectiveTimeout(), addr, values)
	if err != nil {
		return err
	}

	_, err = c.roundTrip(req)
	return err
}

// roundTrip sends req and waits for its response within the session timeout.
//
// A transport, framing or station error leaves the stream at an unknown position, so the
// link is dropped and later calls fail with ErrNotConnected until Connect is called again.
// An end code rejection consumes a complete frame and keeps the link.
func (c *Conn) roundTrip(req *slmp.Request) (*slmp.Response, error) {
	buf, err := req.MarshalBinary()
	if err != nil {
		return nil, err
	}

	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.freed {
		return nil, ErrFreed
	}
	if c.conn == nil {
		return nil, ErrNotConnected
	}

	resp, err := c.exchange(buf)
	if err != nil {
		c.dropLocked(req, err)
		return nil, err
	}
	if resp.Station != req.Station {
		err = fmt.Errorf("%w: sent %+v, received %+v", slmp.ErrStationMismatch, req.Station, resp.Station)
		c.dropLocked(req, err)
		return nil, err
	}

	if c.logger.Level() == logger.DebugLevel {
		c.logger.Debug("response received",
			"command", fmt.Sprintf("%04X", req.Command), "points", req.Points, "end_code", fmt.Sprintf("%04X", resp.EndCode))
	}

	return resp, resp.Err()
}

// exchange writes one request frame and decodes the next response frame.
func (c *Conn) exchange(buf []byte) (*slmp.Response, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.params.EffectiveTimeout())); err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(buf); err != nil {
		return nil, err
	}

	var frame []byte
	if c.params.Protocol == slmp.UDP {
		if c.rbuf == nil {
			c.rbuf = make([]byte, slmp.MaxFrameSize)
		}
		n, err := c.conn.Read(c.rbuf)
		if err != nil {
			return nil, err
		}
		frame = bytes.Clone(c.rbuf[:n])
	} else {
		var err error
		frame, err = slmp.ReadFrame(c.conn)
		if err != nil {
			return nil, err
		}
	}

	return slmp.DecodeResponse(frame)
}

// dropLocked closes the link after a failed exchange. connMutex must be held.
func (c *Conn) dropLocked(req *slmp.Request, cause error) {
	_ = c.conn.Close()
	c.conn = nil
	c.logger.Debug("link dropped", "command", fmt.Sprintf("%04X", req.Command), "error", cause)
}

func (c *Conn) localAddr() (net.Addr, error) {
	host := c.params.LocalAddr
	if (host == "" || host == "0.0.0.0") && c.params.LocalPort == 0 {
		return nil, nil //nolint:nilnil
	}

	local := net.JoinHostPort(host, strconv.Itoa(c.params.LocalPort))
	if c.params.Protocol == slmp.UDP {
		return net.ResolveUDPAddr("udp", local)
	}

	return net.ResolveTCPAddr("tcp", local)
}
