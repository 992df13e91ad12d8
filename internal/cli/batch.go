package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/donotmiss/internal/pipeline"
	"github.com/ppiankov/donotmiss/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
	inputTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Detect tasks in many inputs in parallel",
	Long: `Batch processes a list of inputs concurrently:
- one input per line: a local file path or an http(s) URL
- blank lines and # comments are skipped, duplicates are dropped
- results keep the order of the input file

Example:
  donotmiss batch inputs.txt
  donotmiss batch inputs.txt --concurrency 8 --json results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().DurationVar(&inputTimeout, "input-timeout", time.Minute, "timeout for a single input")
	batchCmd.Flags().StringVar(&outJSON, "json", "-", "output JSON path (- for stdout)")
	batchCmd.Flags().BoolVar(&noAI, "no-ai", false, "skip the AI provider and use keyword detection only")
	addHTTPFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	a, err := loadFetchConfig()
	if err != nil {
		return err
	}
	defer a.Close()

	workers := concurrency
	if workers <= 0 {
		workers = a.cfg.Concurrency.Workers
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "  AI:           %v\n", a.detector.AIEnabled())
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchProcessor(a.pipeline, workers, inputTimeout, a.logger)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	taskCount := 0

	for _, result := range results {
		if result.Err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Input, result.Err)
			continue
		}
		successCount++
		taskCount += result.Count
		fmt.Fprintf(os.Stderr, "✓ %s (%d tasks, %s)\n", result.Input, result.Count, result.Path)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d inputs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Tasks:     %d\n", taskCount)
	fmt.Fprintf(os.Stderr, "\n")

	return pipeline.WriteJSON(results, outJSON)
}
