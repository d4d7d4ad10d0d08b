package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/classtrack/faceattend/internal/config"
	"github.com/classtrack/faceattend/internal/detector"
	"github.com/classtrack/faceattend/internal/enrollment"
	"github.com/classtrack/faceattend/internal/store"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a new identity from the camera",
	Long: `Enroll a new identity by capturing samples from the face detector.
The command polls the detector until the full sample set is captured, then
persists the identity under the given label. Ask the person to shift their
pose slightly between captures.`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("label", "", "Name to enroll the identity under (required)")
	enrollCmd.MarkFlagRequired("label")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	label := mustGetString(cmd, "label")

	cfg := config.Load()
	if err := cfg.Validate(true, false, true); err != nil {
		return err
	}

	ctx := context.Background()
	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer eng.close()

	enroller := enrollment.New(
		eng.registry,
		cfg.Tuning.Matching.Threshold,
		cfg.Batch.ID,
		cfg.Tuning.Matching.CandidateLimit,
	)

	// Refuse early instead of after five captures.
	normalized := enrollment.NormalizeLabel(label)
	if normalized == "" {
		return enrollment.ErrEmptyLabel
	}
	existing, err := eng.registry.GetByLabel(ctx, normalized)
	if err != nil {
		return fmt.Errorf("label lookup: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("%w: %q", enrollment.ErrLabelTaken, normalized)
	}

	client := detector.NewClient(cfg.Detector.URL)

	fmt.Printf("Enrolling %q - look at the camera\n\n", normalized)
	bar := progressbar.NewOptions(store.SamplesPerIdentity,
		progressbar.OptionSetDescription("Capturing samples"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("samples"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	for enroller.Count() < store.SamplesPerIdentity {
		if err := captureSample(ctx, client, enroller, cfg.TickInterval()); err != nil {
			return err
		}
		bar.Add(1)

		// Give the person a moment to change pose between captures.
		time.Sleep(500 * time.Millisecond)
	}
	fmt.Println()

	if err := enroller.Commit(ctx, label); err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Printf("Enrolled %q with %d samples\n", normalized, store.SamplesPerIdentity)
	return nil
}

// captureSample polls the detector until a usable sample is captured. A
// sample matching an already enrolled identity aborts the enrollment.
func captureSample(ctx context.Context, client *detector.Client, enroller *enrollment.Enroller, tick time.Duration) error {
	for {
		det, err := client.Detect(ctx)
		if err != nil {
			return fmt.Errorf("detector: %w", err)
		}
		if !det.Present {
			time.Sleep(tick)
			continue
		}

		err = enroller.AddSample(ctx, det.Embedding)
		if err == nil {
			return nil
		}
		if errors.Is(err, enrollment.ErrDuplicateSample) {
			return err
		}
		return fmt.Errorf("capturing sample: %w", err)
	}
}
