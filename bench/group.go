package bench

import (
	"fmt"

	"github.com/arloliu/go-slmp/device"
)

// RegisterGroup is a contiguous span of D registers exercised as one batch.
type RegisterGroup struct {
	// Start is the first D register number. It must be at least 1.
	Start uint32
	// Count is the number of registers in the group.
	Count int
	// Label names the group in logs, e.g. "D1-D100".
	Label string
}

// NewRegisterGroup creates a group of count registers starting at Dstart, labelled by its range.
func NewRegisterGroup(start uint32, count int) RegisterGroup {
	return RegisterGroup{
		Start: start,
		Count: count,
		Label: fmt.Sprintf("%s-%s", device.Format(device.D, start), device.Format(device.D, start+uint32(count)-1)),
	}
}

// NewRegisterGroups creates n adjacent groups of size registers, the first starting at Dstart.
func NewRegisterGroups(start uint32, n int, size int) []RegisterGroup {
	groups := make([]RegisterGroup, 0, n)
	for k := 0; k < n; k++ {
		groups = append(groups, NewRegisterGroup(start+uint32(k*size), size))
	}
	return groups
}

// Address returns the address text of the first register of the group.
func (g RegisterGroup) Address() string {
	return device.Format(device.D, g.Start)
}

// Register returns the address text of register i of the group.
func (g RegisterGroup) Register(i int) string {
	return device.Format(device.D, g.Start+uint32(i))
}

func (g RegisterGroup) String() string {
	return g.Label
}
