package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/classtrack/faceattend/internal/config"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "List enrolled identities",
	RunE:  runIdentities,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)

	identitiesCmd.Flags().String("batch", "", "Only list identities in this batch")
}

func runIdentities(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(true, false, false); err != nil {
		return err
	}

	ctx := context.Background()
	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer eng.close()

	records, err := eng.registry.List(ctx, mustGetString(cmd, "batch"))
	if err != nil {
		return fmt.Errorf("listing identities: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No identities enrolled")
		return nil
	}

	fmt.Printf("%-30s %-15s %-8s %s\n", "LABEL", "BATCH", "SAMPLES", "ENROLLED")
	for _, rec := range records {
		fmt.Printf("%-30s %-15s %-8d %s\n",
			rec.Label, rec.BatchID, len(rec.Samples), rec.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\nTotal: %d\n", len(records))
	return nil
}
