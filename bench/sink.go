package bench

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
)

// Sink receives the result of every cycle.
type Sink interface {
	Record(r *Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(r *Result) error

// Record calls f(r).
func (f SinkFunc) Record(r *Result) error { return f(r) }

// MultiSink records to every sink in order and joins their errors.
type MultiSink []Sink

// Record records r to every sink.
func (m MultiSink) Record(r *Result) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TimestampFormat is the local time layout of the CSV timestamp column.
const TimestampFormat = "2006-01-02 15:04:05.000"

// CSVHeader is the header row of the CSV run file.
var CSVHeader = []string{
	"Timestamp", "Cycle",
	"Write_Scattered_us", "Write_Sequential_us", "Write_Ratio",
	"Read_Scattered_us", "Read_Sequential_us", "Read_Ratio",
	"Data_Integrity",
	"Total_Scattered_us", "Total_Sequential_us", "Total_Ratio",
}

// CSVSink writes one row per cycle. The header is written once, on creation.
type CSVSink struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
}

var _ Sink = (*CSVSink)(nil)

// NewCSVSink creates or truncates the file at path and writes the header row.
func NewCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	s, err := newCSVSink(f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return s, nil
}

// NewCSVWriterSink writes the header row to w and returns a sink appending rows to it.
func NewCSVWriterSink(w io.Writer) (*CSVSink, error) {
	return newCSVSink(w, nil)
}

func newCSVSink(w io.Writer, closer io.Closer) (*CSVSink, error) {
	s := &CSVSink{w: csv.NewWriter(w), closer: closer}
	if err := s.write(CSVHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return s, nil
}

// Record appends the row of r and flushes it.
func (s *CSVSink) Record(r *Result) error {
	row := []string{
		r.Timestamp.Local().Format(TimestampFormat),
		strconv.FormatUint(r.Cycle, 10),
		strconv.FormatInt(r.BatchedWrite.Microseconds(), 10),
		strconv.FormatInt(r.SequentialWrite.Microseconds(), 10),
		formatRatio(r.WriteRatio()),
		strconv.FormatInt(r.BatchedRead.Microseconds(), 10),
		strconv.FormatInt(r.SequentialRead.Microseconds(), 10),
		formatRatio(r.ReadRatio()),
		r.Integrity(),
		strconv.FormatInt(r.TotalBatched().Microseconds(), 10),
		strconv.FormatInt(r.TotalSequential().Microseconds(), 10),
		formatRatio(r.TotalRatio()),
	}

	return s.write(row)
}

func (s *CSVSink) write(row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()

	return s.w.Error()
}

// Close flushes pending rows and closes the underlying file, if the sink owns one.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
		s.closer = nil
	}

	return err
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
