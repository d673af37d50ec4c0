package client

import (
	"sync/atomic"
)

// Metrics contains atomic metrics for a client.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type Metrics struct {
	// OpenCount indicates the number of successful session opens.
	OpenCount atomic.Uint64
	// OpenErrCount indicates the number of failed session opens.
	OpenErrCount atomic.Uint64

	// ReadCount indicates the number of successful batch reads.
	ReadCount atomic.Uint64
	// ReadErrCount indicates the number of failed batch reads, including rejected requests.
	ReadErrCount atomic.Uint64
	// RegistersRead indicates the number of registers returned by successful reads.
	RegistersRead atomic.Uint64

	// WriteCount indicates the number of successful batch writes.
	WriteCount atomic.Uint64
	// WriteErrCount indicates the number of failed batch writes, including rejected requests.
	WriteErrCount atomic.Uint64
	// RegistersWritten indicates the number of registers transmitted by successful writes.
	RegistersWritten atomic.Uint64

	// Connected is 1 while a session is open.
	Connected atomic.Uint32
}

func (m *Metrics) incOpen() {
	m.OpenCount.Add(1)
	m.Connected.Store(1)
}

func (m *Metrics) incOpenErr() {
	m.OpenErrCount.Add(1)
}

func (m *Metrics) setClosed() {
	m.Connected.Store(0)
}

func (m *Metrics) addRead(n int) {
	m.ReadCount.Add(1)
	m.RegistersRead.Add(uint64(n))
}

func (m *Metrics) incReadErr() {
	m.ReadErrCount.Add(1)
}

func (m *Metrics) addWrite(n int) {
	m.WriteCount.Add(1)
	m.RegistersWritten.Add(uint64(n))
}

func (m *Metrics) incWriteErr() {
	m.WriteErrCount.Add(1)
}
