// Package config loads the YAML run file of the benchmark tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arloliu/go-slmp/bench"
	"github.com/arloliu/go-slmp/client"
	"github.com/arloliu/go-slmp/logger"
	"github.com/arloliu/go-slmp/slmp"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates a run file that parses but can't be used.
var ErrInvalidConfig = errors.New("invalid run file")

// File is the run file. Fields missing from the YAML keep the values of Default.
type File struct {
	Target    Target    `yaml:"target"`
	Benchmark Benchmark `yaml:"benchmark"`
	Log       Log       `yaml:"log"`
	Metrics   Metrics   `yaml:"metrics"`
}

// Target describes the controller connection.
type Target struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Protocol  string        `yaml:"protocol"`
	LocalAddr string        `yaml:"local_addr"`
	LocalPort int           `yaml:"local_port"`
	Timeout   time.Duration `yaml:"timeout"`
	NetworkNo uint8         `yaml:"network_no"`
	PCNo      uint8         `yaml:"pc_no"`
}

// Benchmark describes the register layout and pacing. Zero values select the variant default.
type Benchmark struct {
	Variant     string        `yaml:"variant"`
	Registers   int           `yaml:"registers"`
	GroupSize   int           `yaml:"group_size"`
	Order       []int         `yaml:"order"`
	ValueMax    int           `yaml:"value_max"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	CycleDelay  time.Duration `yaml:"cycle_delay"`
	Cycles      int           `yaml:"cycles"`
	CSVPath     string        `yaml:"csv_path"`

	// SequentialFirst overrides the variant's pass order when set.
	SequentialFirst *bool `yaml:"sequential_first"`
}

// Log selects the log level and an optional JSON log file.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Metrics enables the Prometheus endpoint when Listen is set, e.g. ":9100".
type Metrics struct {
	Listen string `yaml:"listen"`
}

// Default returns the run file used when no file is given.
func Default() *File {
	return &File{
		Target: Target{
			Host:      client.DefaultHost,
			Port:      client.DefaultPort,
			Protocol:  "tcp",
			LocalAddr: "0.0.0.0",
			NetworkNo: slmp.ConnectedStation.Network,
			PCNo:      slmp.ConnectedStation.PC,
		},
		Benchmark: Benchmark{
			Variant:     string(bench.Scattered),
			SettleDelay: bench.DefaultSettleDelay,
			CycleDelay:  bench.DefaultCycleDelay,
			CSVPath:     "performance_results.csv",
		},
		Log: Log{Level: "info"},
	}
}

// Parse decodes a run file from YAML and validates it.
func Parse(data []byte) (*File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse run file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	return f, nil
}

// Load reads and parses the run file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return f, nil
}

// Validate checks the fields that the client and benchmark options don't check themselves.
func (f *File) Validate() error {
	if _, err := ParseProtocol(f.Target.Protocol); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(f.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := f.BenchConfig(); err != nil {
		return err
	}

	return nil
}

// ParseProtocol returns the protocol named s, case-insensitively. An empty s selects TCP.
func ParseProtocol(s string) (slmp.Protocol, error) {
	switch strings.ToLower(s) {
	case "", "tcp":
		return slmp.TCP, nil
	case "udp":
		return slmp.UDP, nil
	default:
		return slmp.TCP, fmt.Errorf("%w: unknown protocol %q", ErrInvalidConfig, s)
	}
}

// LogLevel returns the parsed log level.
func (f *File) LogLevel() logger.Level {
	level, err := logger.ParseLevel(f.Log.Level)
	if err != nil {
		return logger.InfoLevel
	}
	return level
}

// ClientOptions translates the target section into client options.
func (f *File) ClientOptions() ([]client.Option, error) {
	protocol, err := ParseProtocol(f.Target.Protocol)
	if err != nil {
		return nil, err
	}

	station := slmp.ConnectedStation
	station.Network = f.Target.NetworkNo
	station.PC = f.Target.PCNo

	return []client.Option{
		client.WithHost(f.Target.Host),
		client.WithPort(f.Target.Port),
		client.WithProtocol(protocol),
		client.WithLocalAddr(f.Target.LocalAddr, f.Target.LocalPort),
		client.WithStation(station),
		client.WithTimeout(f.Target.Timeout),
	}, nil
}

// BenchConfig translates the benchmark section into a validated bench.Config.
func (f *File) BenchConfig() (bench.Config, error) {
	b := f.Benchmark

	variant, err := bench.ParseVariant(b.Variant)
	if err != nil {
		return bench.Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg, err := bench.DefaultConfig(variant)
	if err != nil {
		return bench.Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if b.Registers != 0 || b.GroupSize != 0 {
		registers, size := b.Registers, b.GroupSize
		if registers == 0 {
			registers = cfg.Registers()
		}
		if size == 0 {
			size = cfg.Groups[0].Count
		}
		if registers < 1 || size < 1 || registers%size != 0 {
			return bench.Config{}, fmt.Errorf("%w: %d registers can't be split into groups of %d", ErrInvalidConfig, registers, size)
		}

		n := registers / size
		cfg.Groups = bench.NewRegisterGroups(1, n, size)
		if n != len(cfg.Order) {
			cfg.Order = make([]int, n)
			for i := range cfg.Order {
				cfg.Order[i] = i
			}
		}
	}

	if len(b.Order) > 0 {
		cfg.Order = b.Order
	}
	if b.ValueMax != 0 {
		if b.ValueMax < 0 || b.ValueMax > 0xFFFF {
			return bench.Config{}, fmt.Errorf("%w: value_max %d out of range [1, 65535]", ErrInvalidConfig, b.ValueMax)
		}
		cfg.ValueMax = uint16(b.ValueMax)
	}
	if b.SequentialFirst != nil {
		cfg.SequentialFirst = *b.SequentialFirst
	}
	cfg.SettleDelay = b.SettleDelay
	cfg.CycleDelay = b.CycleDelay
	cfg.Cycles = b.Cycles

	if err := cfg.Validate(); err != nil {
		return bench.Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return cfg, nil
}
