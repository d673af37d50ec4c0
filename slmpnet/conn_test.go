package slmpnet

import (
	"encoding/binary"
	"errors"
	"net"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arloliu/go-slmp/device"
	"github.com/arloliu/go-slmp/logger"
	"github.com/arloliu/go-slmp/slmp"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	level, err := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logger.InfoLevel
	}
	logger.SetLevel(level)

	os.Exit(m.Run())
}

func startServer(t *testing.T, protocol slmp.Protocol) *Server {
	t.Helper()

	srv := NewServer(protocol, "127.0.0.1:0", nil, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Close() })

	return srv
}

func newConn(t *testing.T, srv *Server, protocol slmp.Protocol) slmp.Handle {
	t.Helper()

	h, err := Dialer{}.NewSession(slmp.SessionParams{
		Protocol:   protocol,
		RemoteHost: "127.0.0.1",
		RemotePort: srv.Port(),
		Station:    slmp.ConnectedStation,
		Timeout:    time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(h.Free)

	return h
}

func TestConn_RoundTrip(t *testing.T) {
	for _, protocol := range []slmp.Protocol{slmp.TCP, slmp.UDP} {
		t.Run(protocol.String(), func(t *testing.T) {
			require := require.New(t)

			srv := startServer(t, protocol)
			h := newConn(t, srv, protocol)
			require.NoError(h.Connect())

			values := make([]uint16, 1000)
			for i := range values {
				values[i] = uint16(i * 7)
			}

			require.NoError(h.BatchWrite(device.MustParse("D1"), values))

			got, err := h.BatchRead(device.MustParse("D1"), len(values))
			require.NoError(err)
			require.Equal(values, got)

			one, err := h.BatchRead(device.MustParse("D5"), 1)
			require.NoError(err)
			require.Equal([]uint16{28}, one)

			require.Equal(uint16(28), srv.Memory().Get(device.MustParse("D5")))
			require.Equal(uint64(3), srv.RequestCount())
			require.Equal(uint64(0), srv.FailureCount())
		})
	}
}

func TestConn_Reconnect(t *testing.T) {
	require := require.New(t)

	srv := startServer(t, slmp.TCP)
	h := newConn(t, srv, slmp.TCP)

	require.NoError(h.Connect())
	require.NoError(h.BatchWrite(device.MustParse("D10"), []uint16{42}))
	require.NoError(h.Disconnect())
	require.NoError(h.Disconnect())

	_, err := h.BatchRead(device.MustParse("D10"), 1)
	require.ErrorIs(err, ErrNotConnected)

	require.NoError(h.Connect())
	require.NoError(h.Connect())
	got, err := h.BatchRead(device.MustParse("D10"), 1)
	require.NoError(err)
	require.Equal([]uint16{42}, got)

	h.Free()
	_, err = h.BatchRead(device.MustParse("D10"), 1)
	require.ErrorIs(err, ErrFreed)
	require.ErrorIs(h.Connect(), ErrFreed)
}

func TestConn_EndCode(t *testing.T) {
	require := require.New(t)

	srv := startServer(t, slmp.TCP)
	srv.Memory().SetLimit(device.D, 100)
	h := newConn(t, srv, slmp.TCP)
	require.NoError(h.Connect())

	_, err := h.BatchRead(device.MustParse("D90"), 20)
	var endErr *slmp.EndCodeError
	require.True(errors.As(err, &endErr))
	require.Equal(slmp.EndCodeDeviceRange, endErr.Code)

	err = h.BatchWrite(device.MustParse("D99"), []uint16{1, 2})
	require.True(errors.As(err, &endErr))
	require.Equal(uint64(2), srv.FailureCount())

	// the link survives a rejected request
	require.NoError(h.BatchWrite(device.MustParse("D99"), []uint16{1}))
}

// startResponder serves raw TCP frames. answer returns the response to the n-th request,
// counted from 1 across all links, and how long to hold it back.
func startResponder(t *testing.T, answer func(n int, req *slmp.Request) (*slmp.Response, time.Duration)) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	var count atomic.Int32
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				for {
					frame, err := slmp.ReadFrame(conn)
					if err != nil {
						return
					}
					req, err := slmp.DecodeRequest(frame)
					if err != nil {
						return
					}
					resp, delay := answer(int(count.Add(1)), req)
					time.Sleep(delay)
					buf, err := resp.MarshalBinary()
					if err != nil {
						return
					}
					if _, err := conn.Write(buf); err != nil {
						return
					}
				}
			}()
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

// offsetWords answers a read with 1000 + device offset for every point.
func offsetWords(req *slmp.Request) []byte {
	data := make([]byte, 0, 2*int(req.Points))
	for i := range uint32(req.Points) {
		data = binary.LittleEndian.AppendUint16(data, uint16(1000+req.Head+i))
	}
	return data
}

func dialPort(t *testing.T, port int, timeout time.Duration) slmp.Handle {
	t.Helper()

	h, err := Dialer{}.NewSession(slmp.SessionParams{
		Protocol:   slmp.TCP,
		RemoteHost: "127.0.0.1",
		RemotePort: port,
		Station:    slmp.ConnectedStation,
		Timeout:    timeout,
	})
	require.NoError(t, err)
	t.Cleanup(h.Free)

	return h
}

func TestConn_LateResponse(t *testing.T) {
	require := require.New(t)

	port := startResponder(t, func(n int, req *slmp.Request) (*slmp.Response, time.Duration) {
		var delay time.Duration
		if n == 1 {
			delay = 300 * time.Millisecond
		}
		return &slmp.Response{Station: req.Station, Data: offsetWords(req)}, delay
	})
	h := dialPort(t, port, 100*time.Millisecond)
	require.NoError(h.Connect())

	_, err := h.BatchRead(device.MustParse("D1"), 1)
	var netErr net.Error
	require.True(errors.As(err, &netErr), "%v", err)
	require.True(netErr.Timeout())

	// the late answer to D1 must never be returned for D2
	_, err = h.BatchRead(device.MustParse("D2"), 1)
	require.ErrorIs(err, ErrNotConnected)
	require.ErrorIs(h.BatchWrite(device.MustParse("D2"), []uint16{1}), ErrNotConnected)

	time.Sleep(300 * time.Millisecond)
	require.NoError(h.Connect())
	got, err := h.BatchRead(device.MustParse("D2"), 1)
	require.NoError(err)
	require.Equal([]uint16{1002}, got)
}

func TestConn_StationMismatch(t *testing.T) {
	require := require.New(t)

	port := startResponder(t, func(_ int, req *slmp.Request) (*slmp.Response, time.Duration) {
		st := req.Station
		st.Network++
		return &slmp.Response{Station: st, Data: offsetWords(req)}, 0
	})
	h := dialPort(t, port, time.Second)
	require.NoError(h.Connect())

	_, err := h.BatchRead(device.MustParse("D1"), 4)
	require.ErrorIs(err, slmp.ErrStationMismatch)

	_, err = h.BatchRead(device.MustParse("D1"), 4)
	require.ErrorIs(err, ErrNotConnected)
}

func TestConn_UDPBuffer(t *testing.T) {
	require := require.New(t)

	srv := startServer(t, slmp.UDP)
	h := newConn(t, srv, slmp.UDP)
	require.NoError(h.Connect())
	require.NoError(h.BatchWrite(device.MustParse("D1"), []uint16{1, 2, 3}))

	conn, ok := h.(*Conn)
	require.True(ok)
	buf := &conn.rbuf[0]

	first, err := h.BatchRead(device.MustParse("D1"), 3)
	require.NoError(err)
	second, err := h.BatchRead(device.MustParse("D2"), 2)
	require.NoError(err)

	require.Same(buf, &conn.rbuf[0])
	require.Equal([]uint16{1, 2, 3}, first)
	require.Equal([]uint16{2, 3}, second)
}

func TestConn_ConnectFailure(t *testing.T) {
	srv := startServer(t, slmp.TCP)
	port := srv.Port()
	require.NoError(t, srv.Close())

	h, err := Dialer{}.NewSession(slmp.SessionParams{
		Protocol:   slmp.TCP,
		RemoteHost: "127.0.0.1",
		RemotePort: port,
		Timeout:    200 * time.Millisecond,
	})
	require.NoError(t, err)
	defer h.Free()

	require.Error(t, h.Connect())
}

func TestDialer_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params slmp.SessionParams
	}{
		{name: "protocol", params: slmp.SessionParams{Protocol: 9, RemoteHost: "127.0.0.1", RemotePort: 1}},
		{name: "host", params: slmp.SessionParams{RemotePort: 1}},
		{name: "port", params: slmp.SessionParams{RemoteHost: "127.0.0.1", RemotePort: 70000}},
		{name: "local port", params: slmp.SessionParams{RemoteHost: "127.0.0.1", RemotePort: 1, LocalPort: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Dialer{}.NewSession(tt.params)
			require.ErrorIs(t, err, slmp.ErrInvalidParams)
			require.Nil(t, h)
		})
	}
}

func TestServer_Lifecycle(t *testing.T) {
	require := require.New(t)

	srv := NewServer(slmp.Protocol(9), "127.0.0.1:0", nil, nil)
	require.ErrorIs(srv.Start(), slmp.ErrInvalidParams)
	require.Nil(srv.Addr())
	require.Equal(0, srv.Port())

	srv = NewServer(slmp.UDP, "127.0.0.1:0", nil, nil)
	require.NoError(srv.Start())
	require.NotZero(srv.Port())
	require.NoError(srv.Close())
	require.NoError(srv.Close())
}
