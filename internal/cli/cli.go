// ============================================================================
// CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra command tree and the demo pipeline wiring
//
// Command Structure:
//   asyncq                      # Root command
//   ├── run                     # Run the demo pipeline
//   │   ├── --duration, -d     # Abort the pipeline after this long
//   │   └── --producers        # Override the configured producer count
//   ├── --config, -c           # Config file path (persistent)
//   ├── --version               # Display version information
//   └── --help                  # Display help information
//
// run Command:
//   Assembles the full stack end to end:
//   1. Load YAML config
//   2. Start the messaging manager (console writer, optional rotating file)
//   3. Start the metrics HTTP server (if enabled)
//   4. Start a managed queue with an instrumented consumer and N producer
//      loops pushing uuid-stamped records on a heartbeat
//   5. Listen for SIGINT/SIGTERM and abort the shared scope
//   6. Drain, join every handle, and report the run summary
//
// Graceful shutdown flow:
//   1. Abort the scope (signal, --duration timeout, or producer failure)
//   2. Producers observe the rejection cue and halt
//   3. The consumer drains every accepted record
//   4. The messaging queue drains every message
//
// ============================================================================

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ChuLiYu/async-queue/internal/metrics"
	"github.com/ChuLiYu/async-queue/pkg/asyncq"
	"github.com/ChuLiYu/async-queue/pkg/messaging"
)

var log = slog.Default()

var configFile string

// Record is the payload pushed through the demo pipeline.
type Record struct {
	ID       string
	Seq      int
	Producer int
	Created  time.Time
}

// BuildCLI builds the root command tree.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "asyncq",
		Short: "asyncq: a bounded-lifetime queue with coordinated shutdown",
		Long: `asyncq demonstrates the async-queue library:
- multi-producer / single-consumer managed queue
- scope-wide abort with guaranteed drain
- asynchronous messaging
- Prometheus metrics`,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")
	rootCmd.AddCommand(buildRunCommand())

	return rootCmd
}

func buildRunCommand() *cobra.Command {
	var duration time.Duration
	var producers int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo pipeline",
		Long:  "Run producers and a consumer against one managed queue until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if producers > 0 {
				cfg.Workers.Producers = producers
			}
			return runPipeline(cfg, duration)
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "abort the pipeline after this long (0 runs until a signal)")
	cmd.Flags().IntVar(&producers, "producers", 0, "override the configured producer count")

	return cmd
}

// runPipeline wires messaging, metrics, one managed queue and N producers
// together and blocks until shutdown has fully drained.
func runPipeline(cfg *Config, duration time.Duration) error {
	level, err := messaging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}

	// Messaging: console, plus a rotating file when configured.
	var writer asyncq.Consumer[messaging.Message] = messaging.NewStreamWriter(os.Stdout, messaging.LevelVerbose)
	var fileWriter *messaging.FileWriter
	if cfg.Logging.File != "" {
		fileWriter = messaging.NewFileWriter(cfg.Logging.File, messaging.LevelVerbose)
		writer = messaging.NewTeeWriter(writer, fileWriter)
	}
	mgr := messaging.NewManagerWithWriter(writer, level)
	src := mgr.NewSource("pipeline")

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Port); err != nil {
				log.Error("Metrics server failed", "error", err)
			}
		}()
		log.Info("Metrics server listening", "port", cfg.Metrics.Port)
	}

	var produced, consumed, rejected int64

	consumeDelay := time.Duration(cfg.Workers.ConsumeDelayMs) * time.Millisecond
	consumer := metrics.Instrument(collector, asyncq.VoidConsumerFunc[Record](func(r Record) error {
		if consumeDelay > 0 {
			time.Sleep(consumeDelay)
		}
		atomic.AddInt64(&consumed, 1)
		src.Debugf("consumed record %s (producer %d seq %d)", r.ID, r.Producer, r.Seq)
		return nil
	}))

	mq := asyncq.NewManagedQueue(consumer)
	sc := mq.Scope()
	depthHandle := metrics.WatchDepth(sc, collector, mq.Queue(), time.Second)

	heartbeat := time.Duration(cfg.Workers.HeartbeatMs) * time.Millisecond
	producerHandles := make([]*asyncq.Handle[asyncq.TaskStatus], 0, cfg.Workers.Producers)
	for i := 0; i < cfg.Workers.Producers; i++ {
		producerID := i
		seq := 0
		h := mq.LoopProducerEvery(heartbeat, func(q *asyncq.ManagedQueue[Record]) (asyncq.TaskStatus, error) {
			rec := Record{
				ID:       uuid.NewString(),
				Seq:      seq,
				Producer: producerID,
				Created:  time.Now(),
			}
			if !q.Push(rec) {
				atomic.AddInt64(&rejected, 1)
				collector.RecordRejected()
				return asyncq.Halt, nil
			}
			seq++
			atomic.AddInt64(&produced, 1)
			collector.RecordPush()
			return asyncq.Continue, nil
		})
		producerHandles = append(producerHandles, h)
	}
	src.Infof("pipeline started with %d producers", cfg.Workers.Producers)

	// Shutdown triggers: signal or --duration timeout.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			src.Warningf("received %s, shutting down", sig)
			sc.Abort()
		case <-sc.Done():
		}
	}()

	var timeoutHandle *asyncq.Handle[bool]
	if duration > 0 {
		timeoutHandle = sc.SetTimeout(duration)
	}

	sc.Wait()

	// Join everything; Close drains the accepted backlog.
	for _, h := range producerHandles {
		if err := h.Err(); err != nil {
			log.Error("Producer failed", "error", err)
		}
	}
	_, _ = depthHandle.Wait()
	closeErr := mq.Close()
	if timeoutHandle != nil {
		if fired, _ := timeoutHandle.Wait(); fired {
			src.Warningf("run deadline of %s reached", duration)
		}
	}

	src.Infof("pipeline finished: produced=%d consumed=%d rejected=%d",
		atomic.LoadInt64(&produced), atomic.LoadInt64(&consumed), atomic.LoadInt64(&rejected))
	if err := mgr.Close(); err != nil {
		log.Error("Messaging shutdown failed", "error", err)
	}
	if fileWriter != nil {
		if err := fileWriter.Close(); err != nil {
			log.Error("Log file close failed", "error", err)
		}
	}

	if closeErr != nil {
		return fmt.Errorf("consumer failed: %w", closeErr)
	}
	return nil
}
