package slmp

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/arloliu/go-slmp/device"
	"github.com/arloliu/go-slmp/internal/util"
)

// Commands and subcommands of the 3E binary frame.
const (
	CmdBatchRead   uint16 = 0x0401
	CmdBatchWrite  uint16 = 0x1401
	SubcmdWordUnit uint16 = 0x0000
)

const (
	// HeaderLen is the length of the fixed frame header, up to and including the data length field.
	HeaderLen = 9
	// MaxFrameSize is the largest frame the 16-bit data length field can describe.
	MaxFrameSize = HeaderLen + 0xFFFF

	// requestFixedLen counts timer, command, subcommand, head device, device code and points.
	requestFixedLen = 12
	maxPoints       = 0xFFFF
	timerUnit       = 250 * time.Millisecond
)

var (
	reqSubheader  = [2]byte{0x50, 0x00}
	respSubheader = [2]byte{0xD0, 0x00}
)

// MonitoringTimer converts a timeout to the 250 ms units of the monitoring timer field.
// Any positive timeout maps to at least one unit.
func MonitoringTimer(d time.Duration) uint16 {
	if d <= 0 {
		return 0
	}
	units := (d + timerUnit - 1) / timerUnit
	if units > 0xFFFF {
		return 0xFFFF
	}
	return uint16(units)
}

// Request is a word-unit batch read or batch write request.
type Request struct {
	Station    Station
	Timer      uint16
	Command    uint16
	Subcommand uint16
	DeviceCode byte
	Head       uint32
	Points     uint16
	// Data holds the words to write. It is empty for reads.
	Data []uint16
}

// NewBatchReadRequest builds a request reading count words starting at addr.
func NewBatchReadRequest(st Station, timeout time.Duration, addr device.Address, count int) (*Request, error) {
	if count < 1 || count > maxPoints {
		return nil, fmt.Errorf("%w: %d", ErrPointsRange, count)
	}
	return &Request{
		Station:    st,
		Timer:      MonitoringTimer(timeout),
		Command:    CmdBatchRead,
		Subcommand: SubcmdWordUnit,
		DeviceCode: addr.Kind().Code(),
		Head:       addr.Offset(),
		Points:     uint16(count),
	}, nil
}

// NewBatchWriteRequest builds a request writing values starting at addr.
func NewBatchWriteRequest(st Station, timeout time.Duration, addr device.Address, values []uint16) (*Request, error) {
	if len(values) < 1 || len(values) > maxPoints {
		return nil, fmt.Errorf("%w: %d", ErrPointsRange, len(values))
	}
	return &Request{
		Station:    st,
		Timer:      MonitoringTimer(timeout),
		Command:    CmdBatchWrite,
		Subcommand: SubcmdWordUnit,
		DeviceCode: addr.Kind().Code(),
		Head:       addr.Offset(),
		Points:     uint16(len(values)),
		Data:       values,
	}, nil
}

// MarshalBinary encodes the request as a 3E binary frame.
func (r *Request) MarshalBinary() ([]byte, error) {
	dataLen := requestFixedLen + 2*len(r.Data)
	if dataLen > 0xFFFF {
		return nil, ErrFrameTooLarge
	}

	buf := make([]byte, 0, HeaderLen+dataLen)
	buf = append(buf, reqSubheader[:]...)
	buf = appendStation(buf, r.Station)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(dataLen))
	buf = binary.LittleEndian.AppendUint16(buf, r.Timer)
	buf = binary.LittleEndian.AppendUint16(buf, r.Command)
	buf = binary.LittleEndian.AppendUint16(buf, r.Subcommand)
	buf = util.AppendUint24(buf, r.Head)
	buf = append(buf, r.DeviceCode)
	buf = binary.LittleEndian.AppendUint16(buf, r.Points)
	buf = util.AppendWords(buf, r.Data)

	return buf, nil
}

// DecodeRequest decodes a complete request frame.
func DecodeRequest(frame []byte) (*Request, error) {
	body, st, err := splitFrame(frame, reqSubheader)
	if err != nil {
		return nil, err
	}
	if len(body) < requestFixedLen {
		return nil, ErrShortFrame
	}

	req := &Request{
		Station:    st,
		Timer:      binary.LittleEndian.Uint16(body[0:]),
		Command:    binary.LittleEndian.Uint16(body[2:]),
		Subcommand: binary.LittleEndian.Uint16(body[4:]),
		Head:       util.Uint24(body[6:]),
		DeviceCode: body[9],
		Points:     binary.LittleEndian.Uint16(body[10:]),
	}

	switch req.Command {
	case CmdBatchRead:
	case CmdBatchWrite:
		words, ok := util.Words(body[requestFixedLen:], int(req.Points))
		if !ok {
			return nil, ErrShortFrame
		}
		req.Data = words
	default:
		return req, fmt.Errorf("%w: 0x%04X", ErrUnknownCommand, req.Command)
	}

	return req, nil
}

// Response is a 3E binary response.
type Response struct {
	Station Station
	EndCode uint16
	Data    []byte
}

// MarshalBinary encodes the response as a 3E binary frame.
func (r *Response) MarshalBinary() ([]byte, error) {
	dataLen := 2 + len(r.Data)
	if dataLen > 0xFFFF {
		return nil, ErrFrameTooLarge
	}

	buf := make([]byte, 0, HeaderLen+dataLen)
	buf = append(buf, respSubheader[:]...)
	buf = appendStation(buf, r.Station)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(dataLen))
	buf = binary.LittleEndian.AppendUint16(buf, r.EndCode)
	buf = append(buf, r.Data...)

	return buf, nil
}

// DecodeResponse decodes a complete response frame.
func DecodeResponse(frame []byte) (*Response, error) {
	body, st, err := splitFrame(frame, respSubheader)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 {
		return nil, ErrShortFrame
	}

	return &Response{
		Station: st,
		EndCode: binary.LittleEndian.Uint16(body),
		Data:    body[2:],
	}, nil
}

// Err returns an *EndCodeError if the response carries a non-zero end code.
func (r *Response) Err() error {
	if r.EndCode != EndCodeOK {
		return &EndCodeError{Code: r.EndCode}
	}
	return nil
}

// Words decodes exactly n words from the response data.
func (r *Response) Words(n int) ([]uint16, error) {
	if len(r.Data) != 2*n {
		return nil, fmt.Errorf("%w: expected %d data bytes, got %d", ErrShortFrame, 2*n, len(r.Data))
	}
	words, _ := util.Words(r.Data, n)
	return words, nil
}

// ReadFrame reads one frame from a stream: the fixed header followed by the declared data length.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	dataLen := int(binary.LittleEndian.Uint16(header[7:]))
	frame := make([]byte, HeaderLen+dataLen)
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[HeaderLen:]); err != nil {
		return nil, err
	}

	return frame, nil
}

func appendStation(buf []byte, st Station) []byte {
	buf = append(buf, st.Network, st.PC)
	buf = binary.LittleEndian.AppendUint16(buf, st.ModuleIO)
	return append(buf, st.ModuleStation)
}

// splitFrame checks the subheader and declared length and returns the data section.
func splitFrame(frame []byte, subheader [2]byte) ([]byte, Station, error) {
	if len(frame) < HeaderLen {
		return nil, Station{}, ErrShortFrame
	}
	if frame[0] != subheader[0] || frame[1] != subheader[1] {
		return nil, Station{}, fmt.Errorf("%w: % X", ErrSubheader, frame[:2])
	}

	st := Station{
		Network:       frame[2],
		PC:            frame[3],
		ModuleIO:      binary.LittleEndian.Uint16(frame[4:]),
		ModuleStation: frame[6],
	}

	dataLen := int(binary.LittleEndian.Uint16(frame[7:]))
	if len(frame) < HeaderLen+dataLen {
		return nil, st, ErrShortFrame
	}

	return frame[HeaderLen : HeaderLen+dataLen], st, nil
}
