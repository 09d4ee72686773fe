// Command flatbatch runs one chunked batch job over a delimited flat file.
//
// Usage:
//
//	flatbatch -config flatbatch.yaml
//
// Every config key can be overridden with a FLATBATCH_* environment
// variable, for example FLATBATCH_CHUNK_SIZE=500. The exit status is 0 when
// the run completes, 2 for configuration errors, 130 when interrupted and 1
// for any other failure.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/MasterOfBinary/flatbatch"
	"github.com/MasterOfBinary/flatbatch/batch"
	"github.com/MasterOfBinary/flatbatch/config"
	"github.com/MasterOfBinary/flatbatch/metrics"
)

const (
	exitOK          = 0
	exitFailed      = 1
	exitConfig      = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to run config (YAML)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flatbatch: failed to load config: %v\n", err)
		return exitConfig
	}

	log, err := flatbatch.NewLogrus(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flatbatch: %v\n", err)
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	stats, err := metrics.NewCollector(reg)
	if err != nil {
		log.WithError(err).Error("Failed to register metrics")
		return exitFailed
	}
	if cfg.Metrics.Addr != "" {
		shutdown := startMetricsServer(cfg.Metrics.Addr, reg, log)
		defer shutdown()
	}

	entry := log.WithFields(logrus.Fields{
		"input":  cfg.InputPath,
		"output": cfg.OutputPath,
	})
	res := flatbatch.RunOnce(ctx, cfg,
		flatbatch.WithLogger(batch.NewLogrusLogger(entry)),
		flatbatch.WithStats(stats),
	)

	s := stats.GetStats()
	entry.WithFields(logrus.Fields{
		"status":   res.Status.String(),
		"read":     res.RecordsRead,
		"skipped":  res.RecordsSkipped,
		"written":  res.RecordsWritten,
		"chunks":   res.ChunksWritten,
		"duration": s.Duration().String(),
	}).Info("Run finished")

	return exitCode(res)
}

func exitCode(res batch.Result) int {
	if res.Err == nil {
		return exitOK
	}

	var cfgErr *batch.ConfigError
	var canceled *batch.CanceledError
	switch {
	case errors.As(res.Err, &cfgErr):
		return exitConfig
	case errors.As(res.Err, &canceled):
		return exitInterrupted
	default:
		return exitFailed
	}
}

// startMetricsServer serves reg on addr until the returned function is called.
func startMetricsServer(addr string, reg *prometheus.Registry, log *logrus.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("Metrics server stopped")
		}
	}()
	log.Infof("Serving metrics on %s", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
