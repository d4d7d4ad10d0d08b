package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/classtrack/faceattend/internal/config"
	"github.com/classtrack/faceattend/internal/store"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Show the attendance ledger for a day",
	RunE:  runAttendance,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)

	attendanceCmd.Flags().String("day", "", "Day to report (YYYY-MM-DD, defaults to today)")
	attendanceCmd.Flags().String("batch", "", "Batch to report (defaults to BATCH_ID)")
}

func runAttendance(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(false, true, false); err != nil {
		return err
	}

	day := mustGetString(cmd, "day")
	if day == "" {
		day = store.DayKey(time.Now())
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		return fmt.Errorf("day must be formatted as YYYY-MM-DD: %q", day)
	}

	batchID := mustGetString(cmd, "batch")
	if batchID == "" {
		batchID = cfg.Batch.ID
	}

	ctx := context.Background()
	_, ledger, pool, err := buildTracker(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	records, err := ledger.ListByDay(ctx, batchID, day)
	if err != nil {
		return fmt.Errorf("listing attendance: %w", err)
	}

	if len(records) == 0 {
		fmt.Printf("No attendance records for %s (batch %q)\n", day, batchID)
		return nil
	}

	fmt.Printf("Attendance for %s (batch %q)\n\n", day, batchID)
	fmt.Printf("%-30s %-10s %-10s %s\n", "IDENTITY", "STATUS", "CHECK-IN", "CHECK-OUT")
	for _, rec := range records {
		checkOut := "-"
		if rec.CheckOut != nil {
			checkOut = rec.CheckOut.Format("15:04")
		}
		fmt.Printf("%-30s %-10s %-10s %s\n",
			rec.Identity, rec.Status, rec.CheckIn.Format("15:04"), checkOut)
	}
	fmt.Printf("\nTotal: %d\n", len(records))
	return nil
}
