package bench

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/arloliu/go-slmp/device"
)

// Variant names a benchmark layout.
type Variant string

const (
	// Contiguous exercises one group of 100 registers from D1 with values in [0, 1000].
	Contiguous Variant = "contiguous"
	// Scattered exercises ten groups of 100 registers over D1..D1000, visited interleaved,
	// with values in [0, 65535].
	Scattered Variant = "scattered"
)

// ParseVariant returns the variant named s, case-insensitively. An empty s selects Scattered.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(s) {
	case "", string(Scattered):
		return Scattered, nil
	case string(Contiguous):
		return Contiguous, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidVariant, s)
	}
}

const (
	// DefaultSettleDelay is the pause between the write and read passes of a cycle.
	DefaultSettleDelay = 100 * time.Millisecond
	// DefaultCycleDelay is the pause between cycles.
	DefaultCycleDelay = 2 * time.Second
)

// ScatteredOrder is the interleaved visit order of the scattered variant.
var ScatteredOrder = []int{0, 5, 1, 6, 2, 7, 3, 8, 4, 9}

// Config describes the register layout and pacing of a benchmark run.
type Config struct {
	Variant Variant
	// Groups are the register groups. The sequential baseline visits them in slice order.
	Groups []RegisterGroup
	// Order is the visit order of the batched passes, as indices into Groups.
	Order []int
	// SequentialFirst runs the sequential pass before the batched pass for both writes
	// and reads. Otherwise the batched pass goes first.
	SequentialFirst bool
	// ValueMax is the inclusive upper bound of generated values.
	ValueMax uint16
	// SettleDelay separates the passes of one cycle.
	SettleDelay time.Duration
	// CycleDelay separates cycles.
	CycleDelay time.Duration
	// Cycles stops the run after this many cycles. Zero runs until cancelled.
	Cycles int
}

// DefaultContiguousConfig returns the single-group configuration. Its sequential passes
// run before the batched ones.
func DefaultContiguousConfig() Config {
	return Config{
		Variant:     Contiguous,
		Groups:      NewRegisterGroups(1, 1, 100),
		Order:           []int{0},
		SequentialFirst: true,
		ValueMax:        1000,
		SettleDelay:     DefaultSettleDelay,
		CycleDelay:      DefaultCycleDelay,
	}
}

// DefaultScatteredConfig returns the ten-group interleaved configuration.
func DefaultScatteredConfig() Config {
	return Config{
		Variant:     Scattered,
		Groups:      NewRegisterGroups(1, 10, 100),
		Order:       slices.Clone(ScatteredOrder),
		ValueMax:    0xFFFF,
		SettleDelay: DefaultSettleDelay,
		CycleDelay:  DefaultCycleDelay,
	}
}

// DefaultConfig returns the default configuration of variant.
func DefaultConfig(variant Variant) (Config, error) {
	switch variant {
	case Contiguous:
		return DefaultContiguousConfig(), nil
	case Scattered:
		return DefaultScatteredConfig(), nil
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrInvalidVariant, variant)
	}
}

// Registers returns the total number of registers across all groups.
func (c Config) Registers() int {
	n := 0
	for _, g := range c.Groups {
		n += g.Count
	}
	return n
}

// Validate checks every group address and the visit order.
func (c Config) Validate() error {
	if len(c.Groups) == 0 {
		return ErrNoGroups
	}

	for i, g := range c.Groups {
		if g.Start < 1 || g.Count < 1 {
			return fmt.Errorf("%w: group %d (%s) start=%d count=%d", ErrInvalidGroup, i, g.Label, g.Start, g.Count)
		}
		if _, err := device.Parse(g.Address()); err != nil {
			return fmt.Errorf("%w: group %d (%s): %w", ErrInvalidGroup, i, g.Label, err)
		}
		if uint64(g.Start)+uint64(g.Count)-1 > device.MaxOffset {
			return fmt.Errorf("%w: group %d (%s) exceeds the device range", ErrInvalidGroup, i, g.Label)
		}
	}

	if len(c.Order) != len(c.Groups) {
		return fmt.Errorf("%w: %d indices for %d groups", ErrInvalidOrder, len(c.Order), len(c.Groups))
	}
	seen := make([]bool, len(c.Groups))
	for _, k := range c.Order {
		if k < 0 || k >= len(c.Groups) || seen[k] {
			return fmt.Errorf("%w: %v", ErrInvalidOrder, c.Order)
		}
		seen[k] = true
	}

	if c.SettleDelay < 0 || c.CycleDelay < 0 || c.Cycles < 0 {
		return fmt.Errorf("%w: settle=%s cycle=%s cycles=%d", ErrInvalidPacing, c.SettleDelay, c.CycleDelay, c.Cycles)
	}

	return nil
}
