package slmp

import (
	"sync/atomic"

	"github.com/arloliu/go-slmp/device"
	"github.com/puzpuzpuz/xsync/v3"
)

// Memory is a sparse word memory of a simulated controller, keyed by device code and device number.
// Unwritten words read as zero. It is safe for concurrent use; a batch is not applied atomically.
type Memory struct {
	words  *xsync.MapOf[uint64, uint16]
	limits *xsync.MapOf[byte, uint32]
	reads  atomic.Uint64
	writes atomic.Uint64
}

// NewMemory creates an empty memory where every kind spans the full 24-bit device range.
func NewMemory() *Memory {
	return &Memory{
		words:  xsync.NewMapOf[uint64, uint16](),
		limits: xsync.NewMapOf[byte, uint32](),
	}
}

// SetLimit restricts kind to device numbers below points.
func (m *Memory) SetLimit(kind device.Kind, points uint32) {
	m.limits.Store(kind.Code(), points)
}

// InRange reports whether count words starting at head fit the device range of code.
func (m *Memory) InRange(code byte, head uint32, count int) bool {
	if _, ok := device.KindByCode(code); !ok || count < 0 {
		return false
	}
	limit := uint64(device.MaxOffset) + 1
	if l, ok := m.limits.Load(code); ok {
		limit = uint64(l)
	}
	return uint64(head)+uint64(count) <= limit
}

// Read returns count words starting at head. It returns false if the range is invalid.
func (m *Memory) Read(code byte, head uint32, count int) ([]uint16, bool) {
	if !m.InRange(code, head, count) {
		return nil, false
	}
	m.reads.Add(1)

	values := make([]uint16, count)
	for i := range values {
		values[i], _ = m.words.Load(memKey(code, head+uint32(i)))
	}
	return values, true
}

// Write stores values starting at head. It returns false if the range is invalid.
func (m *Memory) Write(code byte, head uint32, values []uint16) bool {
	if !m.InRange(code, head, len(values)) {
		return false
	}
	m.writes.Add(1)

	for i, v := range values {
		m.words.Store(memKey(code, head+uint32(i)), v)
	}
	return true
}

// Get returns the word at addr.
func (m *Memory) Get(addr device.Address) uint16 {
	v, _ := m.words.Load(memKey(addr.Kind().Code(), addr.Offset()))
	return v
}

// Set stores the word at addr.
func (m *Memory) Set(addr device.Address, v uint16) {
	m.words.Store(memKey(addr.Kind().Code(), addr.Offset()), v)
}

// Size returns the number of words that have been written.
func (m *Memory) Size() int {
	return m.words.Size()
}

// ReadCount returns the number of successful Read calls.
func (m *Memory) ReadCount() uint64 { return m.reads.Load() }

// WriteCount returns the number of successful Write calls.
func (m *Memory) WriteCount() uint64 { return m.writes.Load() }

func memKey(code byte, offset uint32) uint64 {
	return uint64(code)<<32 | uint64(offset)
}
