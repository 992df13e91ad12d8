package pipeline

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ppiankov/donotmiss/internal/extract"
	"github.com/ppiankov/donotmiss/internal/llm"
	"github.com/ppiankov/donotmiss/internal/model"
	"github.com/ppiankov/donotmiss/internal/normalize"
)

// Extraction paths reported in Result.Path
const (
	PathAI       = "ai"
	PathFallback = "fallback"
	PathSkipped  = "skipped"
)

// Publisher hands detected tasks to the storage collaborator
type Publisher interface {
	Publish(ctx context.Context, ec model.ExtractionContext, tasks []model.Task) error
}

// Result is the outcome of one detection call
type Result struct {
	Tasks []model.Task `json:"tasks"`
	Path  string       `json:"path"`

	// AIError is why the AI path was abandoned, nil when it succeeded or was not tried
	AIError error `json:"-"`
}

// Detector runs the AI extractor with the rule-based extractor as fallback
// and normalizes whatever either produced. It never fails.
type Detector struct {
	provider   llm.Provider // nil when the AI path is disabled
	extractor  *extract.TaskExtractor
	normalizer *normalize.Normalizer
	config     model.ExtractionConfig
	publisher  Publisher
	metrics    *Metrics
	logger     *zap.Logger
}

// NewDetector creates a detector; provider may be nil
func NewDetector(cfg model.ExtractionConfig, provider llm.Provider, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}

	extractor := extract.NewTaskExtractorWithConfig(cfg)
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = model.DefaultConfig().Extraction.MinTextLength
	}
	cfg.MaxCandidates = extractor.MaxCandidates()

	return &Detector{
		provider:   provider,
		extractor:  extractor,
		normalizer: normalize.NewNormalizer(),
		config:     cfg,
		logger:     logger,
	}
}

// WithPublisher sets where non-empty results are handed off
func (d *Detector) WithPublisher(p Publisher) *Detector {
	d.publisher = p
	return d
}

// WithMetrics enables Prometheus instrumentation
func (d *Detector) WithMetrics(m *Metrics) *Detector {
	d.metrics = m
	return d
}

// WithClock replaces the clock used for detectedAt stamps
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.normalizer = normalize.NewNormalizerWithClock(now)
	return d
}

// AIEnabled reports whether an AI provider is configured
func (d *Detector) AIEnabled() bool {
	return d.provider != nil
}

// Detect extracts tasks from ec.Text
func (d *Detector) Detect(ctx context.Context, ec model.ExtractionContext) *Result {
	start := time.Now()

	if utf8.RuneCountInString(ec.Text) < d.config.MinTextLength {
		result := &Result{Tasks: []model.Task{}, Path: PathSkipped}
		d.observe(result, start)
		return result
	}

	result := &Result{Path: PathFallback}
	var raws []model.RawCandidate

	if d.provider != nil {
		candidates, err := d.provider.ExtractTasks(ctx, ec)
		if err == nil {
			raws = candidates
			result.Path = PathAI
			if d.config.CapAIOutput {
				raws = DedupAndCap(raws, d.config.MaxCandidates)
			}
		} else {
			result.AIError = err
			d.logger.Warn("ai extraction failed, using fallback",
				zap.String("provider", d.provider.Name()),
				zap.String("reason", failureReason(err)),
				zap.Error(err))
			if d.metrics != nil {
				d.metrics.AIFailuresTotal.WithLabelValues(failureReason(err)).Inc()
			}
		}
	}

	if result.Path == PathFallback {
		raws = d.extractor.Extract(ec.Text)
	}

	result.Tasks = d.normalizer.NormalizeAll(raws, ec, result.Path == PathAI)

	d.logger.Debug("tasks detected",
		zap.String("path", result.Path),
		zap.Int("count", len(result.Tasks)),
		zap.String("source", ec.Source),
		zap.String("url", ec.URL))

	d.observe(result, start)
	d.publish(ctx, ec, result.Tasks)

	return result
}

// DedupAndCap drops candidates whose titles repeat an earlier one and keeps at
// most limit; untitled candidates are never merged
func DedupAndCap(raws []model.RawCandidate, limit int) []model.RawCandidate {
	out := make([]model.RawCandidate, 0, len(raws))
	seen := make(map[string]bool)

	for _, c := range raws {
		if limit > 0 && len(out) >= limit {
			break
		}
		if key := extract.PhraseKey(c.Title); key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, c)
	}

	return out
}

func (d *Detector) publish(ctx context.Context, ec model.ExtractionContext, tasks []model.Task) {
	if d.publisher == nil || len(tasks) == 0 {
		return
	}
	if err := d.publisher.Publish(ctx, ec, tasks); err != nil {
		d.logger.Warn("task hand-off failed", zap.Int("count", len(tasks)), zap.Error(err))
	}
}

func (d *Detector) observe(result *Result, start time.Time) {
	if d.metrics == nil {
		return
	}
	d.metrics.DetectionsTotal.WithLabelValues(result.Path).Inc()
	d.metrics.TasksTotal.WithLabelValues(result.Path).Add(float64(len(result.Tasks)))
	d.metrics.DetectionDuration.WithLabelValues(result.Path).Observe(time.Since(start).Seconds())
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, llm.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, llm.ErrUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}
