package slmp

import (
	"sync"
	"testing"

	"github.com/arloliu/go-slmp/device"
	"github.com/stretchr/testify/require"
)

func TestMemory_ReadWrite(t *testing.T) {
	require := require.New(t)

	mem := NewMemory()
	d := device.D.Code()

	values, ok := mem.Read(d, 1, 3)
	require.True(ok)
	require.Equal([]uint16{0, 0, 0}, values)

	require.True(mem.Write(d, 1, []uint16{10, 20, 30}))
	values, ok = mem.Read(d, 0, 5)
	require.True(ok)
	require.Equal([]uint16{0, 10, 20, 30, 0}, values)

	// kinds don't alias each other
	values, ok = mem.Read(device.M.Code(), 1, 3)
	require.True(ok)
	require.Equal([]uint16{0, 0, 0}, values)

	require.Equal(uint16(20), mem.Get(device.MustParse("D2")))
	mem.Set(device.MustParse("SD10"), 7)
	require.Equal(uint16(7), mem.Get(device.MustParse("SD10")))

	require.Equal(4, mem.Size())
	require.Equal(uint64(3), mem.ReadCount())
	require.Equal(uint64(1), mem.WriteCount())
}

func TestMemory_Range(t *testing.T) {
	require := require.New(t)

	mem := NewMemory()
	mem.SetLimit(device.D, 1024)
	d := device.D.Code()

	require.True(mem.InRange(d, 1000, 24))
	require.False(mem.InRange(d, 1000, 25))
	require.False(mem.InRange(0x01, 0, 1))
	require.True(mem.InRange(device.M.Code(), device.MaxOffset, 1))
	require.False(mem.InRange(device.M.Code(), device.MaxOffset, 2))

	_, ok := mem.Read(d, 1020, 10)
	require.False(ok)
	require.False(mem.Write(d, 1020, make([]uint16, 10)))
	require.Equal(0, mem.Size())
}

func TestMemory_Concurrent(t *testing.T) {
	mem := NewMemory()
	d := device.D.Code()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(base uint32) {
			defer wg.Done()
			for j := range uint32(100) {
				mem.Write(d, base*100+j, []uint16{uint16(base)})
			}
		}(uint32(i))
	}
	wg.Wait()

	require.Equal(t, 800, mem.Size())
	values, ok := mem.Read(d, 700, 100)
	require.True(t, ok)
	for _, v := range values {
		require.Equal(t, uint16(7), v)
	}
}
