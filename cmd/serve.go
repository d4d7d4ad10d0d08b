package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/classtrack/faceattend/internal/config"
	"github.com/classtrack/faceattend/internal/enrollment"
	"github.com/classtrack/faceattend/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web API server",
	Long: `Start the Face Attend web API server.
The API exposes one-shot matching, the enrollment flow, cache statistics,
the identity registry, and daily attendance reports.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(true, true, false); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer eng.close()

	_, ledger, ledgerPool, err := buildTracker(ctx, cfg)
	if err != nil {
		return err
	}
	defer ledgerPool.Close()

	eng.start()

	enroller := enrollment.New(
		eng.registry,
		cfg.Tuning.Matching.Threshold,
		cfg.Batch.ID,
		cfg.Tuning.Matching.CandidateLimit,
	)

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(web.Deps{
		Matcher:    eng.matcher,
		Enroller:   enroller,
		Identities: eng.identities,
		Candidates: eng.candidates,
		Registry:   eng.registry,
		Ledger:     ledger,
		BatchID:    cfg.Batch.ID,
	}, host, port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Attend API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
