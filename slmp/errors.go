package slmp

import (
	"errors"
	"fmt"
)

var (
	// ErrShortFrame indicates that a frame is shorter than its header or declared length.
	ErrShortFrame = errors.New("slmp: short frame")

	// ErrSubheader indicates that a frame does not start with the expected subheader.
	ErrSubheader = errors.New("slmp: unexpected subheader")

	// ErrFrameTooLarge indicates that a request does not fit the 16-bit data length field.
	ErrFrameTooLarge = errors.New("slmp: frame too large")

	// ErrPointsRange indicates that a point count is outside [1, 65535].
	ErrPointsRange = errors.New("slmp: number of points out of range")

	// ErrUnknownCommand indicates that a request carries a command the codec doesn't support.
	ErrUnknownCommand = errors.New("slmp: unknown command")

	// ErrStationMismatch indicates a response addressed from another station than the request.
	ErrStationMismatch = errors.New("slmp: response station does not match request")

	// ErrInvalidParams indicates that session parameters can't be used to create a session.
	ErrInvalidParams = errors.New("slmp: invalid session parameters")
)

// End codes returned by the simulator.
const (
	EndCodeOK          uint16 = 0x0000
	EndCodeDeviceRange uint16 = 0xC056
	EndCodeCommand     uint16 = 0xC059
	EndCodeDataLength  uint16 = 0xC061
)

// EndCodeError is returned when a response carries a non-zero end code.
type EndCodeError struct {
	Code uint16
}

func (e *EndCodeError) Error() string {
	return fmt.Sprintf("slmp: end code 0x%04X", e.Code)
}
