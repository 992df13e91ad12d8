package normalize

import (
	"strings"
	"time"

	"github.com/ppiankov/donotmiss/internal/model"
	"github.com/ppiankov/donotmiss/internal/util"
)

const (
	untitledTask  = "Untitled Task"
	titleMaxChars = 500
)

// deadline layouts, tried in order; fractional seconds are accepted by every
// timestamp layout when parsing
var deadlineLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// Normalizer turns raw candidates into validated tasks
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer stamping detectedAt from the wall clock
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerWithClock creates a normalizer with an injected clock
func NewNormalizerWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize validates one raw candidate. Malformed fields degrade to defaults.
func (n *Normalizer) Normalize(raw model.RawCandidate, ec model.ExtractionContext, aiDetected bool) model.Task {
	return n.normalize(raw, ec, aiDetected, n.now())
}

// NormalizeAll validates a batch; every candidate in yields exactly one task out,
// all sharing the same detectedAt stamp.
func (n *Normalizer) NormalizeAll(raws []model.RawCandidate, ec model.ExtractionContext, aiDetected bool) []model.Task {
	detectedAt := n.now()
	tasks := make([]model.Task, 0, len(raws))
	for _, raw := range raws {
		tasks = append(tasks, n.normalize(raw, ec, aiDetected, detectedAt))
	}
	return tasks
}

func (n *Normalizer) normalize(raw model.RawCandidate, ec model.ExtractionContext, aiDetected bool, detectedAt time.Time) model.Task {
	priority, _ := model.ParsePriority(raw.Priority)

	source := ec.Source
	if source == "" {
		source = model.SourceFromURL(ec.URL)
	}

	task := model.Task{
		Title:       NormalizeTitle(raw.Title),
		Description: strings.TrimSpace(raw.Description),
		Priority:    priority,
		Source:      source,
		URL:         ec.URL,
		Status:      model.StatusDetected,
		Metadata:    provenance(ec.Metadata, aiDetected, detectedAt),
	}

	if d, ok := ParseDeadline(raw.Deadline); ok {
		task.Deadline = &d
	}

	return task
}

// NormalizeTitle applies the title default, capitalization and length clamp
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return untitledTask
	}
	return util.TruncateChars(util.CapitalizeFirst(title), titleMaxChars)
}

// ParseDeadline reads a calendar date from an ISO-8601-like string.
// Timestamps keep their own zone, so "2026-01-24T23:30:00-05:00" is the 24th.
func ParseDeadline(s string) (model.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}, false
	}

	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t), true
		}
	}
	return model.Date{}, false
}

// provenance copies caller metadata and stamps the fixed keys over it
func provenance(caller map[string]any, aiDetected bool, detectedAt time.Time) map[string]any {
	meta := make(map[string]any, len(caller)+2)
	for k, v := range caller {
		meta[k] = v
	}
	meta[model.MetaAIDetected] = aiDetected
	meta[model.MetaDetectedAt] = detectedAt.UTC().Format(time.RFC3339)
	return meta
}
