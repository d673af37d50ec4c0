package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: DebugLevel},
		{in: "INFO", want: InfoLevel},
		{in: "", want: InfoLevel},
		{in: "warning", want: WarnLevel},
		{in: " error ", want: ErrorLevel},
		{in: "fatal", want: FatalLevel},
		{in: "verbose", want: InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewSlogWithWriters(t *testing.T) {
	require := require.New(t)

	var console, file bytes.Buffer
	l := NewSlogWithWriters(InfoLevel, &console, &file)

	l.Debug("hidden")
	l.With("cycle", 3).Info("cycle completed", "integrity", "PASS")

	require.NotContains(console.String(), "hidden")
	require.Contains(console.String(), "cycle completed")

	lines := strings.Split(strings.TrimSpace(file.String()), "\n")
	require.Len(lines, 1)

	var rec map[string]any
	require.NoError(json.Unmarshal([]byte(lines[0]), &rec))
	require.Equal("cycle completed", rec["msg"])
	require.Equal("PASS", rec["integrity"])
	require.EqualValues(3, rec["cycle"])
	require.Contains(rec, "ts")

	l.SetLevel(DebugLevel)
	require.Equal(DebugLevel, l.Level())
	l.Debug("now visible")
	require.Contains(file.String(), "now visible")
}
