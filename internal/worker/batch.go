package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/donotmiss/internal/model"
	"github.com/ppiankov/donotmiss/internal/pipeline"
)

// Scanner detects tasks in one input (URL or file path)
type Scanner interface {
	ScanInput(ctx context.Context, input string) (*pipeline.ScanResult, error)
}

// DetectJob represents a task detection job for one input
type DetectJob struct {
	Input   string
	Scanner Scanner
	Timeout time.Duration
}

// Execute executes the detection job
func (j *DetectJob) Execute(ctx context.Context) Result {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	scan, err := j.Scanner.ScanInput(ctx, j.Input)
	if err != nil {
		return &InputResult{Input: j.Input, Err: err, Error: err.Error()}
	}
	return &InputResult{
		Input: j.Input,
		Path:  scan.Result.Path,
		Count: len(scan.Result.Tasks),
		Tasks: scan.Result.Tasks,
	}
}

// InputResult represents the result of one detection job
type InputResult struct {
	Input string       `json:"input"`
	Path  string       `json:"path,omitempty"`
	Count int          `json:"count"`
	Tasks []model.Task `json:"tasks"`
	Error string       `json:"error,omitempty"`

	Err error `json:"-"`
}

// GetError returns the error from the detection result
func (r *InputResult) GetError() error {
	return r.Err
}

// BatchProcessor processes multiple inputs concurrently
type BatchProcessor struct {
	scanner      Scanner
	concurrency  int
	inputTimeout time.Duration
	logger       *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(scanner Scanner, concurrency int, inputTimeout time.Duration, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		scanner:      scanner,
		concurrency:  concurrency,
		inputTimeout: inputTimeout,
		logger:       logger,
	}
}

// ProcessInputs processes inputs concurrently; results keep input order
func (b *BatchProcessor) ProcessInputs(ctx context.Context, inputs []string) []*InputResult {
	if len(inputs) == 0 {
		return []*InputResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for _, input := range inputs {
		pool.Submit(&DetectJob{
			Input:   input,
			Scanner: b.scanner,
			Timeout: b.inputTimeout,
		})
	}

	results := pool.Wait()

	inputResults := make([]*InputResult, len(results))
	for i, result := range results {
		r := result.(*InputResult)
		if r.Err != nil {
			b.logger.Warn("input failed", zap.String("input", r.Input), zap.Error(r.Err))
		}
		inputResults[i] = r
	}

	return inputResults
}

// ProcessFile reads inputs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*InputResult, error) {
	inputs, err := ReadInputsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	return b.ProcessInputs(ctx, inputs), nil
}

// ReadInputsFromFile reads inputs (URLs or paths) from a file, one per line.
// Blank lines and # comments are skipped, duplicates dropped.
func ReadInputsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var inputs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			inputs = append(inputs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return inputs, nil
}
