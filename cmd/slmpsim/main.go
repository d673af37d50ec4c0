// Command slmpsim serves SLMP batch read and write requests from an in-memory register store.
//
// It is a stand-in controller for running slmpbench without hardware.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/arloliu/go-slmp/config"
	"github.com/arloliu/go-slmp/device"
	"github.com/arloliu/go-slmp/logger"
	"github.com/arloliu/go-slmp/slmp"
	"github.com/arloliu/go-slmp/slmpnet"
)

func main() {
	addr := flag.String("listen", "127.0.0.1:2001", "listen address")
	protocol := flag.String("protocol", "tcp", "transport (tcp|udp)")
	level := flag.String("log-level", "info", "log level")
	dPoints := flag.Uint("d-points", 0, "number of D registers, 0 for the full device range")
	flag.Parse()

	lvl, err := logger.ParseLevel(*level)
	if err != nil {
		lvl = logger.InfoLevel
	}
	log := logger.NewSlogWithWriters(lvl, os.Stdout, nil)
	logger.SetDefault(log)

	p, err := config.ParseProtocol(*protocol)
	if err != nil {
		log.Error("invalid protocol", "error", err)
		os.Exit(1)
	}

	mem := slmp.NewMemory()
	if *dPoints > 0 {
		mem.SetLimit(device.D, uint32(*dPoints)) //nolint:gosec
	}

	srv := slmpnet.NewServer(p, *addr, mem, log)
	if err := srv.Start(); err != nil {
		log.Error("failed to start simulator", "error", err)
		os.Exit(1)
	}
	log.Info("simulator started", "addr", srv.Addr().String(), "protocol", p)

	exitSig := make(chan os.Signal, 1)
	signal.Notify(exitSig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	<-exitSig

	log.Info("exit signal received")

	_ = srv.Close()

	log.Info("shutdown finished",
		"requests", srv.RequestCount(),
		"failures", srv.FailureCount(),
		"registers", mem.Size(),
	)
}
