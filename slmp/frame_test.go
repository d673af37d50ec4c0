package slmp

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/arloliu/go-slmp/device"
	"github.com/stretchr/testify/require"
)

func TestMonitoringTimer(t *testing.T) {
	require := require.New(t)

	require.Equal(uint16(0), MonitoringTimer(0))
	require.Equal(uint16(1), MonitoringTimer(time.Millisecond))
	require.Equal(uint16(4), MonitoringTimer(time.Second))
	require.Equal(uint16(12), MonitoringTimer(DefaultTimeout))
	require.Equal(uint16(0xFFFF), MonitoringTimer(24*time.Hour))
}

func TestBatchReadRequest_Marshal(t *testing.T) {
	require := require.New(t)

	req, err := NewBatchReadRequest(ConnectedStation, 4*time.Second, device.MustParse("D100"), 3)
	require.NoError(err)

	buf, err := req.MarshalBinary()
	require.NoError(err)
	require.Equal([]byte{
		0x50, 0x00, // subheader
		0x00, 0xFF, 0xFF, 0x03, 0x00, // connected station
		0x0C, 0x00, // data length
		0x10, 0x00, // monitoring timer
		0x01, 0x04, 0x00, 0x00, // batch read, word unit
		0x64, 0x00, 0x00, 0xA8, // D100
		0x03, 0x00, // points
	}, buf)

	decoded, err := DecodeRequest(buf)
	require.NoError(err)
	require.Equal(req, decoded)
}

func TestBatchWriteRequest_Marshal(t *testing.T) {
	require := require.New(t)

	st := Station{Network: 1, PC: 2, ModuleIO: 0x03FF, ModuleStation: 3}
	req, err := NewBatchWriteRequest(st, time.Second, device.MustParse("XFF"), []uint16{0x1234, 0x0001})
	require.NoError(err)

	buf, err := req.MarshalBinary()
	require.NoError(err)
	require.Equal([]byte{
		0x50, 0x00,
		0x01, 0x02, 0xFF, 0x03, 0x03,
		0x10, 0x00,
		0x04, 0x00,
		0x01, 0x14, 0x00, 0x00,
		0xFF, 0x00, 0x00, 0x9C,
		0x02, 0x00,
		0x34, 0x12, 0x01, 0x00,
	}, buf)

	decoded, err := DecodeRequest(buf)
	require.NoError(err)
	require.Equal(req, decoded)
}

func TestNewRequest_PointsRange(t *testing.T) {
	addr := device.MustParse("D0")

	_, err := NewBatchReadRequest(ConnectedStation, 0, addr, 0)
	require.ErrorIs(t, err, ErrPointsRange)

	_, err = NewBatchReadRequest(ConnectedStation, 0, addr, 0x10000)
	require.ErrorIs(t, err, ErrPointsRange)

	_, err = NewBatchWriteRequest(ConnectedStation, 0, addr, nil)
	require.ErrorIs(t, err, ErrPointsRange)

	req, err := NewBatchWriteRequest(ConnectedStation, 0, addr, make([]uint16, 0x8000))
	require.NoError(t, err, "points fit, frame does not")
	_, err = req.MarshalBinary()
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestDecodeRequest_Errors(t *testing.T) {
	require := require.New(t)

	_, err := DecodeRequest([]byte{0x50, 0x00, 0x00})
	require.ErrorIs(err, ErrShortFrame)

	req, _ := NewBatchReadRequest(ConnectedStation, 0, device.MustParse("D1"), 1)
	buf, _ := req.MarshalBinary()

	bad := bytes.Clone(buf)
	bad[0] = 0xD0
	_, err = DecodeRequest(bad)
	require.ErrorIs(err, ErrSubheader)

	_, err = DecodeRequest(buf[:len(buf)-1])
	require.ErrorIs(err, ErrShortFrame)

	unknown := bytes.Clone(buf)
	unknown[11], unknown[12] = 0x19, 0x06
	_, err = DecodeRequest(unknown)
	require.ErrorIs(err, ErrUnknownCommand)

	w, _ := NewBatchWriteRequest(ConnectedStation, 0, device.MustParse("D1"), []uint16{1, 2})
	wbuf, _ := w.MarshalBinary()
	wbuf[19] = 3 // claim three points, carry two
	_, err = DecodeRequest(wbuf)
	require.ErrorIs(err, ErrShortFrame)
}

func TestResponse(t *testing.T) {
	require := require.New(t)

	resp := &Response{Station: ConnectedStation, Data: []byte{0x2A, 0x00, 0xFF, 0xFF}}
	buf, err := resp.MarshalBinary()
	require.NoError(err)
	require.Equal([]byte{0xD0, 0x00, 0x00, 0xFF, 0xFF, 0x03, 0x00, 0x06, 0x00, 0x00, 0x00, 0x2A, 0x00, 0xFF, 0xFF}, buf)

	decoded, err := DecodeResponse(buf)
	require.NoError(err)
	require.NoError(decoded.Err())

	words, err := decoded.Words(2)
	require.NoError(err)
	require.Equal([]uint16{42, 0xFFFF}, words)

	_, err = decoded.Words(3)
	require.ErrorIs(err, ErrShortFrame)

	failed, err := (&Response{Station: ConnectedStation, EndCode: EndCodeCommand}).MarshalBinary()
	require.NoError(err)
	decoded, err = DecodeResponse(failed)
	require.NoError(err)

	var endErr *EndCodeError
	require.True(errors.As(decoded.Err(), &endErr))
	require.Equal(EndCodeCommand, endErr.Code)
	require.Equal("slmp: end code 0xC059", endErr.Error())

	_, err = DecodeResponse(buf[:HeaderLen])
	require.ErrorIs(err, ErrShortFrame)
}

func TestReadFrame(t *testing.T) {
	require := require.New(t)

	r1, _ := NewBatchReadRequest(ConnectedStation, 0, device.MustParse("D1"), 10)
	r2, _ := NewBatchWriteRequest(ConnectedStation, 0, device.MustParse("M8"), []uint16{7})
	b1, _ := r1.MarshalBinary()
	b2, _ := r2.MarshalBinary()

	stream := bytes.NewReader(append(bytes.Clone(b1), b2...))

	f1, err := ReadFrame(stream)
	require.NoError(err)
	require.Equal(b1, f1)

	f2, err := ReadFrame(stream)
	require.NoError(err)
	require.Equal(b2, f2)

	_, err = ReadFrame(stream)
	require.ErrorIs(err, io.EOF)

	_, err = ReadFrame(bytes.NewReader(b1[:HeaderLen+2]))
	require.ErrorIs(err, io.ErrUnexpectedEOF)
}

func TestProtocol(t *testing.T) {
	require := require.New(t)

	require.Equal("TCP", TCP.String())
	require.Equal("UDP", UDP.String())
	require.Equal("Unknown", Protocol(7).String())
	require.Equal("tcp", TCP.Network())
	require.Equal("udp", UDP.Network())
	require.True(UDP.IsValid())
	require.False(Protocol(7).IsValid())

	require.Equal(DefaultTimeout, SessionParams{}.EffectiveTimeout())
	require.Equal(time.Second, SessionParams{Timeout: time.Second}.EffectiveTimeout())
}
