package bench

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testResult() *Result {
	return &Result{
		RunID:           "run",
		Cycle:           7,
		Timestamp:       time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.Local),
		BatchedWrite:    2 * time.Millisecond,
		SequentialWrite: 200 * time.Millisecond,
		BatchedRead:     3 * time.Millisecond,
		SequentialRead:  300 * time.Millisecond,
		IntegrityOK:     true,
	}
}

func TestResult_Ratios(t *testing.T) {
	require := require.New(t)

	r := testResult()
	require.InDelta(0.01, r.WriteRatio(), 1e-9)
	require.InDelta(0.01, r.ReadRatio(), 1e-9)
	require.InDelta(100, r.WriteSpeedup(), 1e-9)
	require.InDelta(100, r.ReadSpeedup(), 1e-9)
	require.Equal(5*time.Millisecond, r.TotalBatched())
	require.Equal(500*time.Millisecond, r.TotalSequential())
	require.InDelta(0.01, r.TotalRatio(), 1e-9)
	require.Equal("PASS", r.Integrity())

	var zero Result
	require.Zero(zero.WriteRatio())
	require.Zero(zero.TotalRatio())
	require.Equal("FAIL", zero.Integrity())
}

func TestCSVSink(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	s, err := NewCSVWriterSink(&buf)
	require.NoError(err)

	require.NoError(s.Record(testResult()))

	r := testResult()
	r.Cycle = 8
	r.IntegrityOK = false
	require.NoError(s.Record(r))
	require.NoError(s.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(lines, 3)
	require.Equal("Timestamp,Cycle,Write_Scattered_us,Write_Sequential_us,Write_Ratio,"+
		"Read_Scattered_us,Read_Sequential_us,Read_Ratio,Data_Integrity,"+
		"Total_Scattered_us,Total_Sequential_us,Total_Ratio", lines[0])
	require.Equal("2024-05-06 07:08:09.123,7,2000,200000,0.0100,3000,300000,0.0100,PASS,5000,500000,0.0100", lines[1])
	require.True(strings.HasPrefix(lines[2], "2024-05-06 07:08:09.123,8,"))
	require.True(strings.Contains(lines[2], ",FAIL,"))
}

func TestNewCSVSink_Truncates(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "results.csv")

	s, err := NewCSVSink(path)
	require.NoError(err)
	require.NoError(s.Record(testResult()))
	require.NoError(s.Close())

	s, err = NewCSVSink(path)
	require.NoError(err)
	require.NoError(s.Close())

	data, err := os.ReadFile(path)
	require.NoError(err)
	require.Equal(1, strings.Count(string(data), "\n"))
	require.True(strings.HasPrefix(string(data), "Timestamp,Cycle,"))

	_, err = NewCSVSink(filepath.Join(t.TempDir(), "missing", "results.csv"))
	require.Error(err)
}

func TestMultiSink(t *testing.T) {
	require := require.New(t)

	var calls []string
	errBoom := errors.New("boom")

	m := MultiSink{
		SinkFunc(func(*Result) error { calls = append(calls, "a"); return nil }),
		nil,
		SinkFunc(func(*Result) error { calls = append(calls, "b"); return errBoom }),
		SinkFunc(func(*Result) error { calls = append(calls, "c"); return nil }),
	}

	err := m.Record(testResult())
	require.ErrorIs(err, errBoom)
	require.Equal([]string{"a", "b", "c"}, calls)
}

func TestMismatch_String(t *testing.T) {
	require := require.New(t)

	m := Mismatch{Group: "D1-D100", Register: "D5", Offset: 4, Batched: 1, Sequential: 2}
	require.Equal("D1-D100 D5 offset 4: batched=1, sequential=2", m.String())

	m = Mismatch{Group: "D501-D600", Register: "D501", Offset: -1, Reason: "batched read failed"}
	require.Equal("D501-D600 D501: batched read failed", m.String())
}
