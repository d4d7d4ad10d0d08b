package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/classtrack/faceattend/internal/config"
	"github.com/classtrack/faceattend/internal/detector"
	"github.com/classtrack/faceattend/internal/recognizer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the live recognition loop",
	Long: `Start the live recognition loop.
The loop polls the face detector, matches detected faces against the
enrolled registry, and records check-ins and check-outs in the attendance
ledger. Runs until interrupted.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Duration("interval", 0, "Detection tick interval (overrides the tuning default)")
	runCmd.Flags().String("batch", "", "Batch scope (overrides BATCH_ID)")
	runCmd.Flags().Float64("threshold", 0, "Match distance threshold (overrides MATCH_THRESHOLD)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cmd.Flags().Changed("interval") {
		cfg.Tuning.Loop.TickIntervalMS = int(mustGetDuration(cmd, "interval") / time.Millisecond)
	}
	if cmd.Flags().Changed("batch") {
		cfg.Batch.ID = mustGetString(cmd, "batch")
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Tuning.Matching.Threshold = mustGetFloat64(cmd, "threshold")
	}
	if err := cfg.Validate(true, true, true); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer eng.close()

	tracker, _, ledgerPool, err := buildTracker(ctx, cfg)
	if err != nil {
		return err
	}
	defer ledgerPool.Close()

	eng.start()

	client := detector.NewClient(cfg.Detector.URL)
	loop := recognizer.New(client, eng.matcher, tracker, cfg.Batch.ID, cfg.TickInterval())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	fmt.Printf("Watching detector at %s (batch %q, tick %s)\n", cfg.Detector.URL, cfg.Batch.ID, cfg.TickInterval())
	fmt.Println("Press Ctrl+C to stop")

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("recognition loop: %w", err)
	}
	return nil
}
