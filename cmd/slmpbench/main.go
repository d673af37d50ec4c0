// Command slmpbench compares batched against single-register access on an SLMP controller
// and verifies that both patterns read back identical data.
//
// The run is described by an optional YAML file (-config). HOST, PORT and PROTOCOL environment
// variables override the target of the file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/arloliu/go-slmp/bench"
	"github.com/arloliu/go-slmp/client"
	"github.com/arloliu/go-slmp/config"
	"github.com/arloliu/go-slmp/logger"
	"github.com/arloliu/go-slmp/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path of the YAML run file")
	logLevel := flag.String("log-level", "", "log level, overrides the run file")
	variant := flag.String("variant", "", "benchmark variant (contiguous|scattered), overrides the run file")
	flag.Parse()

	f := config.Default()
	if *configPath != "" {
		var err error
		if f, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *logLevel != "" {
		f.Log.Level = *logLevel
	}
	if *variant != "" {
		f.Benchmark.Variant = *variant
	}
	applyEnv(f)
	if err := f.Validate(); err != nil {
		return err
	}

	var fileWriter io.Writer
	if f.Log.File != "" {
		logFile, err := os.Create(f.Log.File)
		if err != nil {
			return fmt.Errorf("create log file: %w", err)
		}
		defer logFile.Close()
		fileWriter = logFile
	}
	log := logger.NewSlogWithWriters(f.LogLevel(), os.Stdout, fileWriter)
	logger.SetDefault(log)

	benchCfg, err := f.BenchConfig()
	if err != nil {
		return err
	}

	opts, err := f.ClientOptions()
	if err != nil {
		return err
	}
	opts = append(opts, client.WithLogger(log))
	clientCfg, err := client.NewConfig(opts...)
	if err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	plc, err := client.New(client.NetworkEngineWithLogger(log), clientCfg)
	if err != nil {
		return err
	}
	defer plc.Close()

	target := net.JoinHostPort(clientCfg.Host(), strconv.Itoa(clientCfg.Port()))
	log.Info("connecting to controller", "target", target, "protocol", clientCfg.Protocol())
	if err := plc.Open(); err != nil {
		log.Error("failed to open controller session", "target", target, "error", err)
		return err
	}
	log.Info("controller session established", "target", target)

	sinks := bench.MultiSink{}
	if f.Benchmark.CSVPath != "" {
		csvSink, err := bench.NewCSVSink(f.Benchmark.CSVPath)
		if err != nil {
			return err
		}
		defer csvSink.Close()
		sinks = append(sinks, csvSink)
		log.Info("csv file created", "path", f.Benchmark.CSVPath)
	}

	if f.Metrics.Listen != "" {
		reg := metric.NewRegistry()
		if err := metric.RegisterClient(reg.Prometheus(), plc.Metrics(), target); err != nil {
			return err
		}
		benchSink, err := metric.NewBenchSink(reg.Prometheus(), benchCfg.Variant)
		if err != nil {
			return err
		}
		sinks = append(sinks, benchSink)

		srv := &http.Server{Addr: f.Metrics.Listen, Handler: reg.NewServeMux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", "error", err)
			}
		}()
		defer srv.Close()
		log.Info("metrics endpoint started", "listen", f.Metrics.Listen)
	}

	verifier, err := bench.New(plc, benchCfg, bench.WithSink(sinks), bench.WithLogger(log))
	if err != nil {
		log.Error("invalid register layout", "error", err)
		return err
	}
	log.Info("all register addresses validated", "run_id", verifier.RunID())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- verifier.Run(ctx) }()

	exitSig := make(chan os.Signal, 1)
	signal.Notify(exitSig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-exitSig:
		log.Info("exit signal received")
		cancel()
		err = <-done
	case err = <-done:
	}

	log.Info("shutdown finished")

	return err
}

// applyEnv overrides the target with the HOST, PORT and PROTOCOL environment variables.
func applyEnv(f *config.File) {
	if val := os.Getenv("HOST"); val != "" {
		f.Target.Host = val
	}
	if val := os.Getenv("PORT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			f.Target.Port = n
		}
	}
	if val := os.Getenv("PROTOCOL"); val != "" {
		f.Target.Protocol = val
	}
}
