package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Priority is the urgency level attached to a task candidate
type Priority string

const (
	PriorityLow     Priority = "low"
	PriorityMedium  Priority = "medium"
	PriorityHigh    Priority = "high"
	PriorityHighest Priority = "highest"
)

// ParsePriority maps a free-form value onto a known priority level.
// Matching ignores case and surrounding whitespace; unknown values report false.
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityHighest:
		return p, true
	default:
		return PriorityMedium, false
	}
}

// StatusDetected marks a candidate that still awaits user confirmation.
// Storage assigns "pending" once the user confirms it.
const StatusDetected = "detected"

// Provenance metadata keys stamped on every normalized task
const (
	MetaAIDetected = "aiDetected"
	MetaDetectedAt = "detectedAt"
)

// ExtractionContext is the input of one extraction call
type ExtractionContext struct {
	Text     string         `json:"text"`
	Source   string         `json:"source,omitempty"`
	URL      string         `json:"url,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RawCandidate is an unvalidated task as produced by either extractor
type RawCandidate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Deadline    string `json:"deadline,omitempty"`
}

// UnmarshalJSON accepts loosely typed model output: numbers and booleans are
// stringified, null or missing fields become empty strings.
func (c *RawCandidate) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*c = RawCandidate{
		Title:       looseString(fields["title"]),
		Description: looseString(fields["description"]),
		Priority:    looseString(fields["priority"]),
		Deadline:    looseString(fields["deadline"]),
	}
	return nil
}

func looseString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

// Task is a normalized task candidate ready to hand to storage
type Task struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    Priority       `json:"priority"`
	Deadline    *Date          `json:"deadline"`
	Source      string         `json:"source"`
	URL         string         `json:"url"`
	Status      string         `json:"status"`
	Metadata    map[string]any `json:"metadata"`
}

// AIDetected reports which extraction path produced the task
func (t Task) AIDetected() bool {
	v, _ := t.Metadata[MetaAIDetected].(bool)
	return v
}
