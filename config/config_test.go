package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arloliu/go-slmp/bench"
	"github.com/arloliu/go-slmp/client"
	"github.com/arloliu/go-slmp/logger"
	"github.com/arloliu/go-slmp/slmp"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	require := require.New(t)

	f, err := Load(filepath.Join("testdata", "run.yaml"))
	require.NoError(err)

	require.Equal("127.0.0.1", f.Target.Host)
	require.Equal(1500*time.Millisecond, f.Target.Timeout)
	require.Equal(logger.DebugLevel, f.LogLevel())
	require.Equal("scattered_test.log", f.Log.File)
	require.Equal(":9100", f.Metrics.Listen)
	require.Equal("out.csv", f.Benchmark.CSVPath)

	opts, err := f.ClientOptions()
	require.NoError(err)
	cfg, err := client.NewConfig(opts...)
	require.NoError(err)

	params := cfg.SessionParams()
	require.Equal(slmp.UDP, params.Protocol)
	require.Equal(5007, params.RemotePort)
	require.Equal("0.0.0.0", params.LocalAddr)
	require.Equal(6001, params.LocalPort)
	require.Equal(slmp.Station{Network: 1, PC: 2, ModuleIO: 0x03FF, ModuleStation: 0}, params.Station)

	bc, err := f.BenchConfig()
	require.NoError(err)
	require.Equal(bench.Scattered, bc.Variant)
	require.Len(bc.Groups, 4)
	require.Equal("D301-D400", bc.Groups[3].Label)
	require.Equal([]int{0, 2, 1, 3}, bc.Order)
	require.Equal(uint16(500), bc.ValueMax)
	require.Equal(10*time.Millisecond, bc.SettleDelay)
	require.Equal(time.Second, bc.CycleDelay)
	require.Equal(5, bc.Cycles)
	require.True(bc.SequentialFirst)
}

func TestParse_Defaults(t *testing.T) {
	require := require.New(t)

	f, err := Parse([]byte("benchmark:\n  variant: contiguous\n"))
	require.NoError(err)
	require.Equal(client.DefaultHost, f.Target.Host)
	require.Equal(client.DefaultPort, f.Target.Port)
	require.Equal(logger.InfoLevel, f.LogLevel())
	require.Empty(f.Metrics.Listen)

	bc, err := f.BenchConfig()
	require.NoError(err)
	require.Equal(bench.DefaultContiguousConfig(), bc)

	f, err = Parse(nil)
	require.NoError(err)
	bc, err = f.BenchConfig()
	require.NoError(err)
	require.Equal(bench.DefaultScatteredConfig(), bc)
}

func TestParse_GroupSizeOnly(t *testing.T) {
	require := require.New(t)

	f, err := Parse([]byte("benchmark:\n  group_size: 250\n"))
	require.NoError(err)

	bc, err := f.BenchConfig()
	require.NoError(err)
	require.Len(bc.Groups, 4)
	require.Equal([]int{0, 1, 2, 3}, bc.Order)
	require.Equal(1000, bc.Registers())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"Bad YAML", "target: [\n"},
		{"Unknown Protocol", "target:\n  protocol: serial\n"},
		{"Unknown Level", "log:\n  level: loud\n"},
		{"Unknown Variant", "benchmark:\n  variant: random\n"},
		{"Uneven Groups", "benchmark:\n  registers: 1000\n  group_size: 300\n"},
		{"Bad Order", "benchmark:\n  order: [0, 0, 1, 2, 3, 4, 5, 6, 7, 8]\n"},
		{"Value Max Range", "benchmark:\n  value_max: 70000\n"},
		{"Negative Delay", "benchmark:\n  cycle_delay: -1s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseProtocol(t *testing.T) {
	require := require.New(t)

	p, err := ParseProtocol("UDP")
	require.NoError(err)
	require.Equal(slmp.UDP, p)

	p, err = ParseProtocol("")
	require.NoError(err)
	require.Equal(slmp.TCP, p)

	_, err = ParseProtocol("serial")
	require.ErrorIs(err, ErrInvalidConfig)
}
