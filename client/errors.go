package client

import (
	"errors"

	"github.com/arloliu/go-slmp/device"
)

var (
	// ErrInvalidAddress indicates that an address failed grammar validation. It is a caller error.
	ErrInvalidAddress = device.ErrInvalidAddress

	// ErrSizeMismatch indicates that a write payload is shorter than the requested count.
	ErrSizeMismatch = errors.New("payload shorter than requested count")

	// ErrInvalidCount indicates that a register count is less than one.
	ErrInvalidCount = errors.New("register count must be at least 1")
)

var (
	// ErrSessionOpen indicates that the session could not be constructed or connected.
	ErrSessionOpen = errors.New("failed to open session")

	// ErrNotConnected indicates that an operation was attempted without an open session.
	ErrNotConnected = errors.New("session is not connected")
)

var (
	// ErrBatchRead indicates that the engine failed a batch read.
	ErrBatchRead = errors.New("batch read failed")

	// ErrBatchWrite indicates that the engine failed a batch write.
	ErrBatchWrite = errors.New("batch write failed")
)

var (
	// ErrConfigNil indicates that a nil Config was provided.
	ErrConfigNil = errors.New("client config is nil")

	// ErrEngineNil indicates that a nil engine was provided.
	ErrEngineNil = errors.New("protocol engine is nil")
)
