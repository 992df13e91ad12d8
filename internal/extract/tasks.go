package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/donotmiss/internal/model"
	"github.com/ppiankov/donotmiss/internal/util"
)

const (
	defaultMinTextLength = 50
	defaultMaxCandidates = 5

	titleMaxChars       = 60
	descriptionMaxChars = 300
	contextBefore       = 100
	contextAfter        = 150

	// action phrase: 10-100 characters up to the next sentence terminator
	actionPhrase = `([^.!?\n]{10,100})`
)

// Trigger is a lexical anchor that marks the start of an action item
type Trigger struct {
	Name     string
	Pattern  string // anchor regex, matched case-insensitively
	Priority model.Priority
}

// DefaultTriggers returns the trigger list in matching order
func DefaultTriggers() []Trigger {
	return []Trigger{
		{Name: "must", Pattern: `\bmust[ \t]+`, Priority: model.PriorityHighest},

		{Name: "please", Pattern: `\bplease[ \t]+`, Priority: model.PriorityHigh},
		{Name: "need_to", Pattern: `\bneed[ \t]+to[ \t]+`, Priority: model.PriorityHigh},
		{Name: "action_item", Pattern: `\baction[ \t]+items?[ \t]*:[ \t]*`, Priority: model.PriorityHigh},
		{Name: "dont_forget", Pattern: `\bdon[’']?t[ \t]+forget[ \t]+to[ \t]+`, Priority: model.PriorityHigh},

		{Name: "can_you", Pattern: `\bcan[ \t]+you[ \t]+`, Priority: model.PriorityMedium},
		{Name: "should", Pattern: `\bshould[ \t]+`, Priority: model.PriorityMedium},
		{Name: "todo", Pattern: `\btodos?[ \t]*:[ \t]*`, Priority: model.PriorityMedium},
		{Name: "task", Pattern: `\btasks?[ \t]*:[ \t]*`, Priority: model.PriorityMedium},
		{Name: "reminder", Pattern: `\breminder[ \t]*:[ \t]*`, Priority: model.PriorityMedium},
	}
}

type compiledTrigger struct {
	Trigger
	regex *regexp.Regexp
}

// TaskExtractor finds action items in plain text without any external service.
// It holds no mutable state and is safe for concurrent use.
type TaskExtractor struct {
	triggers      []compiledTrigger
	minTextLength int
	maxCandidates int
}

// NewTaskExtractor creates an extractor with the default triggers and limits
func NewTaskExtractor() *TaskExtractor {
	return NewTaskExtractorWithConfig(model.ExtractionConfig{})
}

// NewTaskExtractorWithConfig creates an extractor with the default triggers;
// zero limits fall back to the defaults.
func NewTaskExtractorWithConfig(cfg model.ExtractionConfig) *TaskExtractor {
	triggers := DefaultTriggers()
	compiled := make([]compiledTrigger, 0, len(triggers))
	for _, t := range triggers {
		compiled = append(compiled, compiledTrigger{
			Trigger: t,
			regex:   regexp.MustCompile(`(?i)` + t.Pattern + actionPhrase),
		})
	}

	minLen := cfg.MinTextLength
	if minLen <= 0 {
		minLen = defaultMinTextLength
	}
	maxCandidates := cfg.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates
	}

	return &TaskExtractor{
		triggers:      compiled,
		minTextLength: minLen,
		maxCandidates: maxCandidates,
	}
}

// MaxCandidates returns the output cap
func (e *TaskExtractor) MaxCandidates() int {
	return e.maxCandidates
}

// Extract scans text for trigger phrases and returns at most MaxCandidates
// raw candidates, ordered by trigger then by position. Short text yields nothing.
func (e *TaskExtractor) Extract(text string) []model.RawCandidate {
	candidates := []model.RawCandidate{}
	if utf8.RuneCountInString(text) < e.minTextLength {
		return candidates
	}

	seen := make(map[string]bool)

	for _, t := range e.triggers {
		for _, m := range t.regex.FindAllStringSubmatchIndex(text, -1) {
			phrase := strings.TrimSpace(text[m[2]:m[3]])
			if phrase == "" {
				continue
			}

			key := PhraseKey(phrase)
			if seen[key] {
				continue
			}
			seen[key] = true

			candidates = append(candidates, model.RawCandidate{
				Title:       util.CapitalizeFirst(util.TruncateChars(phrase, titleMaxChars)),
				Description: contextWindow(text, m[0], m[1]),
				Priority:    string(t.Priority),
			})

			if len(candidates) >= e.maxCandidates {
				return candidates
			}
		}
	}

	return candidates
}

// PhraseKey is the case-insensitive identity used to deduplicate candidates
func PhraseKey(phrase string) string {
	return strings.ToLower(strings.Join(strings.Fields(phrase), " "))
}

// contextWindow returns the text surrounding a match, clamped and truncated
func contextWindow(text string, start, end int) string {
	from := util.BackChars(text, start, contextBefore)
	to := util.ForwardChars(text, end, contextAfter)

	window := strings.TrimSpace(text[from:to])
	if utf8.RuneCountInString(window) > descriptionMaxChars {
		return util.TruncateChars(window, descriptionMaxChars) + "..."
	}
	return window
}
