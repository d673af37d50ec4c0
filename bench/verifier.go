package bench

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/arloliu/go-slmp/internal/pool"
	"github.com/arloliu/go-slmp/logger"
	"github.com/google/uuid"
)

// Access is the register access the verifier drives. *client.Client implements it.
type Access interface {
	Read(addr string, count int) ([]uint16, error)
	ReadOne(addr string) (uint16, error)
	Write(addr string, count int, values []uint16) error
	WriteOne(addr string, value uint16) error
}

// Phase is a step of a benchmark cycle.
type Phase int

const (
	PhaseGenerate Phase = iota
	PhaseBatchedWrite
	PhaseSequentialWrite
	PhaseBatchedRead
	PhaseSequentialRead
	PhaseVerify
	PhaseRecord
)

var phaseNames = [...]string{"generate", "batched-write", "sequential-write", "batched-read", "sequential-read", "verify", "record"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// transfers reports whether p moves registers to or from the controller.
func (p Phase) transfers() bool {
	return p >= PhaseBatchedWrite && p <= PhaseSequentialRead
}

// Phases returns the phase sequence of one cycle under c.
func (c Config) Phases() []Phase {
	if c.SequentialFirst {
		return []Phase{
			PhaseGenerate, PhaseSequentialWrite, PhaseBatchedWrite,
			PhaseSequentialRead, PhaseBatchedRead, PhaseVerify, PhaseRecord,
		}
	}
	return []Phase{
		PhaseGenerate, PhaseBatchedWrite, PhaseSequentialWrite,
		PhaseBatchedRead, PhaseSequentialRead, PhaseVerify, PhaseRecord,
	}
}

// Verifier runs benchmark cycles: it writes generated values through a batched and a
// sequential pattern, reads them back both ways and checks that every register agrees.
type Verifier struct {
	access Access
	cfg    Config
	rand   *rand.Rand
	sink   Sink
	logger logger.Logger
	runID  string
	cycle  uint64
}

// New creates a verifier. It validates every group address of cfg before returning.
func New(access Access, cfg Config, opts ...Option) (*Verifier, error) {
	if access == nil {
		return nil, ErrAccessNil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	v := &Verifier{
		access: access,
		cfg:    cfg,
		logger: logger.GetLogger(),
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		if err := opt.apply(v); err != nil {
			return nil, err
		}
	}
	if v.rand == nil {
		v.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec
	}
	v.logger = v.logger.With("run_id", v.runID)

	return v, nil
}

// RunID returns the identifier stamped on every result of the run.
func (v *Verifier) RunID() string { return v.runID }

// Config returns the verifier configuration.
func (v *Verifier) Config() Config { return v.cfg }

// Run executes cycles separated by the cycle delay until ctx is done or Config.Cycles
// cycles have completed. Cancellation is not an error.
func (v *Verifier) Run(ctx context.Context) error {
	v.logger.Info("benchmark started",
		"variant", v.cfg.Variant,
		"groups", len(v.cfg.Groups),
		"registers", v.cfg.Registers(),
		"order", v.orderLabel(),
	)

	for n := 1; ; n++ {
		if _, err := v.RunCycle(ctx); err != nil {
			return ignoreCanceled(err)
		}
		if v.cfg.Cycles != 0 && n >= v.cfg.Cycles {
			break
		}
		if err := pool.Sleep(ctx, v.cfg.CycleDelay); err != nil {
			return ignoreCanceled(err)
		}
	}

	v.logger.Info("benchmark finished", "cycles", v.cycle)

	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// cycleState carries the data of one cycle between phases.
type cycleState struct {
	result *Result
	// values holds the generated value of every register, grouped in Groups order.
	values []uint16
	// batched holds the read result of every group, indexed like Groups.
	batched [][]uint16
	// batchedFailed marks the groups whose batched read failed.
	batchedFailed []bool
	// sequential holds the scalar read results, laid out like values.
	sequential []uint16
	// failures collects failed transfers found before verification.
	failures []Mismatch
}

// RunCycle executes one cycle and returns its result. Failed transfers degrade the result
// instead of aborting the cycle; only ctx cancellation returns an error.
func (v *Verifier) RunCycle(ctx context.Context) (*Result, error) {
	v.cycle++
	st := &cycleState{
		result: &Result{
			RunID:     v.runID,
			Cycle:     v.cycle,
			Variant:   v.cfg.Variant,
			Groups:    len(v.cfg.Groups),
			Registers: v.cfg.Registers(),
		},
	}

	l := v.logger.With("cycle", v.cycle)
	l.Info("cycle started")

	// the settle delay precedes every transfer pass but the first
	transferred := false
	for _, phase := range v.cfg.Phases() {
		if phase.transfers() && transferred {
			if err := pool.Sleep(ctx, v.cfg.SettleDelay); err != nil {
				return nil, err
			}
		} else if err := ctx.Err(); err != nil {
			return nil, err
		}
		transferred = transferred || phase.transfers()

		l.Debug("phase started", "phase", phase)
		v.step(phase, st, l)
	}

	return st.result, nil
}

func (v *Verifier) step(phase Phase, st *cycleState, l logger.Logger) {
	switch phase {
	case PhaseGenerate:
		v.generate(st)
	case PhaseBatchedWrite:
		st.result.BatchedWrite = v.batchedWrite(st, l)
	case PhaseSequentialWrite:
		st.result.SequentialWrite = v.sequentialWrite(st, l)
	case PhaseBatchedRead:
		st.result.BatchedRead = v.batchedRead(st, l)
	case PhaseSequentialRead:
		st.result.SequentialRead = v.sequentialRead(st, l)
	case PhaseVerify:
		v.verify(st, l)
	case PhaseRecord:
		v.record(st, l)
	}
}

func (v *Verifier) generate(st *cycleState) {
	st.values = make([]uint16, v.cfg.Registers())
	for i := range st.values {
		st.values[i] = uint16(v.rand.IntN(int(v.cfg.ValueMax) + 1)) //nolint:gosec
	}
	st.batched = make([][]uint16, len(v.cfg.Groups))
	st.batchedFailed = make([]bool, len(v.cfg.Groups))
	st.sequential = make([]uint16, len(st.values))
}

// base returns the index of the first register of group k in values.
func (v *Verifier) base(k int) int {
	n := 0
	for _, g := range v.cfg.Groups[:k] {
		n += g.Count
	}
	return n
}

func (v *Verifier) batchedWrite(st *cycleState, l logger.Logger) time.Duration {
	start := time.Now()
	for _, k := range v.cfg.Order {
		g := v.cfg.Groups[k]
		b := v.base(k)
		if err := v.access.Write(g.Address(), g.Count, st.values[b:b+g.Count]); err != nil {
			st.result.WriteFailures++
			st.failures = append(st.failures, Mismatch{
				Group: g.Label, Register: g.Address(), Offset: -1,
				Reason: fmt.Sprintf("batched write failed: %v", err),
			})
			continue
		}
		l.Debug("group written", "group", g.Label)
	}
	return time.Since(start)
}

func (v *Verifier) sequentialWrite(st *cycleState, l logger.Logger) time.Duration {
	start := time.Now()
	i := 0
	for _, g := range v.cfg.Groups {
		for j := 0; j < g.Count; j++ {
			if err := v.access.WriteOne(g.Register(j), st.values[i]); err != nil {
				st.result.WriteFailures++
				st.failures = append(st.failures, Mismatch{
					Group: g.Label, Register: g.Register(j), Offset: j,
					Reason: fmt.Sprintf("sequential write failed: %v", err),
				})
			}
			i++
		}
	}
	elapsed := time.Since(start)
	l.Debug("sequential write completed", "registers", i)

	return elapsed
}

func (v *Verifier) batchedRead(st *cycleState, l logger.Logger) time.Duration {
	start := time.Now()
	for _, k := range v.cfg.Order {
		g := v.cfg.Groups[k]
		values, err := v.access.Read(g.Address(), g.Count)
		if err != nil {
			st.result.ReadFailures++
			st.batchedFailed[k] = true
			st.batched[k] = make([]uint16, g.Count)
			continue
		}
		st.batched[k] = values
		l.Debug("group read", "group", g.Label)
	}
	return time.Since(start)
}

func (v *Verifier) sequentialRead(st *cycleState, l logger.Logger) time.Duration {
	start := time.Now()
	i := 0
	for _, g := range v.cfg.Groups {
		for j := 0; j < g.Count; j++ {
			value, err := v.access.ReadOne(g.Register(j))
			if err != nil {
				st.result.ReadFailures++
				st.failures = append(st.failures, Mismatch{
					Group: g.Label, Register: g.Register(j), Offset: j,
					Reason: fmt.Sprintf("sequential read failed: %v", err),
				})
				value = 0
			}
			st.sequential[i] = value
			i++
		}
	}
	elapsed := time.Since(start)
	l.Debug("sequential read completed", "registers", i)

	return elapsed
}

// verify compares batched[k][j] with sequential[base(k)+j] for every group k and offset j.
// Every difference is reported; a failed group read counts as a mismatch on its own.
func (v *Verifier) verify(st *cycleState, l logger.Logger) {
	mismatches := st.failures

	if len(st.sequential) != v.cfg.Registers() {
		mismatches = append(mismatches, Mismatch{
			Offset: -1,
			Reason: fmt.Sprintf("sequential size mismatch: expected %d, got %d", v.cfg.Registers(), len(st.sequential)),
		})
	}

	for k, g := range v.cfg.Groups {
		got := st.batched[k]
		if st.batchedFailed[k] {
			mismatches = append(mismatches, Mismatch{
				Group: g.Label, Register: g.Address(), Offset: -1,
				Reason: "batched read failed",
			})
		}
		if len(got) != g.Count {
			mismatches = append(mismatches, Mismatch{
				Group: g.Label, Register: g.Address(), Offset: -1,
				Reason: fmt.Sprintf("batched size mismatch: expected %d, got %d", g.Count, len(got)),
			})
		}

		b := v.base(k)
		for j := 0; j < g.Count && j < len(got); j++ {
			if b+j >= len(st.sequential) {
				break
			}
			if got[j] != st.sequential[b+j] {
				mismatches = append(mismatches, Mismatch{
					Group: g.Label, Register: g.Register(j), Offset: j,
					Batched: got[j], Sequential: st.sequential[b+j],
				})
			}
		}

		if l.Level() == logger.DebugLevel && g.Count > 0 && len(got) > 0 {
			l.Debug("sample",
				"group", g.Label,
				"register", g.Address(),
				"written", st.values[b],
				"batched", got[0],
				"sequential", st.sequential[b],
			)
		}
	}

	st.result.Mismatches = mismatches
	st.result.IntegrityOK = len(mismatches) == 0

	for _, m := range mismatches {
		l.Warn("integrity mismatch", "detail", m.String())
	}
}

func (v *Verifier) record(st *cycleState, l logger.Logger) {
	r := st.result
	r.Timestamp = time.Now()

	l.Info("cycle completed",
		"batched_write_us", r.BatchedWrite.Microseconds(),
		"sequential_write_us", r.SequentialWrite.Microseconds(),
		"write_ratio", r.WriteRatio(),
		"write_speedup", r.WriteSpeedup(),
		"batched_read_us", r.BatchedRead.Microseconds(),
		"sequential_read_us", r.SequentialRead.Microseconds(),
		"read_ratio", r.ReadRatio(),
		"read_speedup", r.ReadSpeedup(),
		"integrity", r.Integrity(),
		"mismatches", len(r.Mismatches),
	)

	if v.sink == nil {
		return
	}
	if err := v.sink.Record(r); err != nil {
		l.Error("failed to record result", "error", err)
	}
}

func (v *Verifier) orderLabel() string {
	labels := make([]string, 0, len(v.cfg.Order))
	for _, k := range v.cfg.Order {
		labels = append(labels, v.cfg.Groups[k].Label)
	}
	return strings.Join(labels, " -> ")
}
