package slmpnet

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-slmp/internal/util"
	"github.com/arloliu/go-slmp/logger"
	"github.com/arloliu/go-slmp/slmp"
)

// Server is a simulated controller answering word-unit batch read and batch write requests
// from a slmp.Memory over TCP or UDP.
type Server struct {
	protocol slmp.Protocol
	addr     string
	mem      *slmp.Memory
	logger   logger.Logger

	mu       sync.Mutex
	listener net.Listener
	packet   net.PacketConn
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	shutdown atomic.Bool

	requests atomic.Uint64
	failures atomic.Uint64
}

// NewServer creates a server for protocol on addr (e.g. "127.0.0.1:0") backed by mem.
// A nil mem creates an empty memory.
func NewServer(protocol slmp.Protocol, addr string, mem *slmp.Memory, l logger.Logger) *Server {
	if mem == nil {
		mem = slmp.NewMemory()
	}
	if l == nil {
		l = logger.GetLogger()
	}
	return &Server{
		protocol: protocol,
		addr:     addr,
		mem:      mem,
		logger:   l.With("component", "slmp-server", "protocol", protocol),
		conns:    make(map[net.Conn]struct{}),
	}
}

// Start binds the server address and starts serving in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.protocol {
	case slmp.TCP:
		ln, err := net.Listen("tcp", s.addr)
		if err != nil {
			return err
		}
		s.listener = ln
		s.wg.Add(1)
		go s.acceptLoop(ln)

	case slmp.UDP:
		pc, err := net.ListenPacket("udp", s.addr)
		if err != nil {
			return err
		}
		s.packet = pc
		s.wg.Add(1)
		go s.packetLoop(pc)

	default:
		return fmt.Errorf("%w: protocol %d", slmp.ErrInvalidParams, s.protocol)
	}

	s.logger.Info("simulator listening", "addr", s.Addr().String())

	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	if s.packet != nil {
		return s.packet.LocalAddr()
	}
	return nil
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	switch a := s.Addr().(type) {
	case *net.TCPAddr:
		return a.Port
	case *net.UDPAddr:
		return a.Port
	default:
		return 0
	}
}

// Memory returns the memory served by s.
func (s *Server) Memory() *slmp.Memory { return s.mem }

// RequestCount returns the number of requests served, including rejected ones.
func (s *Server) RequestCount() uint64 { return s.requests.Load() }

// FailureCount returns the number of requests answered with a non-zero end code.
func (s *Server) FailureCount() uint64 { return s.failures.Load() }

// Close stops the server, closes every client link and waits for all goroutines to finish.
func (s *Server) Close() error {
	if !s.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	if s.packet != nil {
		err = s.packet.Close()
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Debug("simulator stopped")

	return err
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if !s.shutdown.Load() {
				s.logger.Error("failed to accept connection", "error", err)
			}
			return
		}

		s.mu.Lock()
		if s.shutdown.Load() {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	s.logger.Debug("client connected", "remote", conn.RemoteAddr().String())

	for {
		frame, err := slmp.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !s.shutdown.Load() {
				s.logger.Debug("client link ended", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}

		resp, err := s.handle(frame)
		if err != nil {
			s.logger.Warn("drop malformed frame", "remote", conn.RemoteAddr().String(), "error", err)
			return
		}

		if _, err := conn.Write(resp); err != nil {
			return
		}
	}
}

func (s *Server) packetLoop(pc net.PacketConn) {
	defer s.wg.Done()

	buf := make([]byte, slmp.MaxFrameSize)
	for {
		n, from, err := pc.ReadFrom(buf)
		if err != nil {
			if !s.shutdown.Load() {
				s.logger.Error("failed to read datagram", "error", err)
			}
			return
		}

		resp, err := s.handle(buf[:n])
		if err != nil {
			s.logger.Warn("drop malformed datagram", "remote", from.String(), "error", err)
			continue
		}

		if _, err := pc.WriteTo(resp, from); err != nil {
			s.logger.Warn("failed to reply datagram", "remote", from.String(), "error", err)
		}
	}
}

// handle executes one request frame and returns the encoded response.
// An error is returned only when the frame can't be answered at all.
func (s *Server) handle(frame []byte) ([]byte, error) {
	req, err := slmp.DecodeRequest(frame)
	if req == nil {
		return nil, err
	}
	s.requests.Add(1)

	resp := &slmp.Response{Station: req.Station}
	switch {
	case errors.Is(err, slmp.ErrUnknownCommand) || req.Subcommand != slmp.SubcmdWordUnit:
		resp.EndCode = slmp.EndCodeCommand

	case req.Command == slmp.CmdBatchRead:
		values, ok := s.mem.Read(req.DeviceCode, req.Head, int(req.Points))
		if !ok {
			resp.EndCode = slmp.EndCodeDeviceRange
			break
		}
		resp.Data = util.AppendWords(make([]byte, 0, 2*len(values)), values)

	case req.Command == slmp.CmdBatchWrite:
		if !s.mem.Write(req.DeviceCode, req.Head, req.Data) {
			resp.EndCode = slmp.EndCodeDeviceRange
		}
	}

	if resp.EndCode != slmp.EndCodeOK {
		s.failures.Add(1)
		s.logger.Debug("request rejected", "command", fmt.Sprintf("%04X", req.Command), "end_code", fmt.Sprintf("%04X", resp.EndCode))
	}

	return resp.MarshalBinary()
}
