package extract

import (
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/donotmiss/internal/model"
)

func TestTaskExtractor_ShortText(t *testing.T) {
	extractor := NewTaskExtractor()

	for _, text := range []string{"", "Please review it.", "Please review the budget report by Friday."} {
		candidates := extractor.Extract(text)
		assert.NotNil(t, candidates)
		assert.Empty(t, candidates, "text %q is under the minimum length", text)
	}
}

func TestTaskExtractor_BudgetReportExample(t *testing.T) {
	extractor := NewTaskExtractor()

	text := "Please review the budget report by Friday. Also, can you schedule the team meeting for next week?"
	candidates := extractor.Extract(text)

	require.GreaterOrEqual(t, len(candidates), 2)

	assert.Equal(t, "Review the budget report by Friday", candidates[0].Title)
	assert.Equal(t, string(model.PriorityHigh), candidates[0].Priority)
	assert.Equal(t, text, candidates[0].Description)
	assert.Empty(t, candidates[0].Deadline)

	assert.Equal(t, "Schedule the team meeting for next week", candidates[1].Title)
	assert.Equal(t, string(model.PriorityMedium), candidates[1].Priority)

	for _, c := range candidates {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Title), 60)
	}
}

func TestTaskExtractor_Deduplication(t *testing.T) {
	extractor := NewTaskExtractor()

	text := "Please send the signed contract to legal. Some filler text goes here to pad. " +
		"PLEASE SEND THE SIGNED CONTRACT TO LEGAL!"
	candidates := extractor.Extract(text)

	require.Len(t, candidates, 1)
	assert.Equal(t, "Send the signed contract to legal", candidates[0].Title)
}

func TestTaskExtractor_CapAndOrder(t *testing.T) {
	extractor := NewTaskExtractor()

	text := "Reminder: submit your timesheet by Friday. " +
		"Todo: migrate the staging database tonight. " +
		"You should archive the old tickets soon. " +
		"Can you draft the release notes today? " +
		"We need to book the venue for the offsite. " +
		"Please update the quarterly forecast sheet. " +
		"We must renew the domain before it expires."

	candidates := extractor.Extract(text)
	require.Len(t, candidates, 5)

	want := []struct {
		title    string
		priority model.Priority
	}{
		{"Renew the domain before it expires", model.PriorityHighest},
		{"Update the quarterly forecast sheet", model.PriorityHigh},
		{"Book the venue for the offsite", model.PriorityHigh},
		{"Draft the release notes today", model.PriorityMedium},
		{"Archive the old tickets soon", model.PriorityMedium},
	}
	for i, w := range want {
		assert.Equal(t, w.title, candidates[i].Title, "candidate %d", i)
		assert.Equal(t, string(w.priority), candidates[i].Priority, "candidate %d", i)
	}
}

func TestTaskExtractor_ConfiguredCap(t *testing.T) {
	extractor := NewTaskExtractorWithConfig(model.ExtractionConfig{MaxCandidates: 2})
	assert.Equal(t, 2, extractor.MaxCandidates())

	text := "Please call the landlord about the leak. Please email the plumber a quote request. " +
		"Please order new filters for the kitchen."
	candidates := extractor.Extract(text)

	require.Len(t, candidates, 2)
	assert.Equal(t, "Call the landlord about the leak", candidates[0].Title)
	assert.Equal(t, "Email the plumber a quote request", candidates[1].Title)
}

func TestTaskExtractor_ActionPhraseBounds(t *testing.T) {
	extractor := NewTaskExtractor()

	t.Run("too short", func(t *testing.T) {
		candidates := extractor.Extract("Please do it. Nothing else is in this message at all, really nothing.")
		assert.Empty(t, candidates)
	})

	t.Run("long run is clipped", func(t *testing.T) {
		text := "Please " + strings.Repeat("x", 150) + " and then stop."
		candidates := extractor.Extract(text)
		require.Len(t, candidates, 1)
		assert.Equal(t, 60, utf8.RuneCountInString(candidates[0].Title))
		assert.True(t, strings.HasPrefix(candidates[0].Title, "X"))
	})

	t.Run("stops at newline", func(t *testing.T) {
		text := "Action items: rotate the production API keys\nand everything after this line is ignored here"
		candidates := extractor.Extract(text)
		require.Len(t, candidates, 1)
		assert.Equal(t, "Rotate the production API keys", candidates[0].Title)
		assert.Equal(t, string(model.PriorityHigh), candidates[0].Priority)
	})
}

func TestTaskExtractor_WordBoundaries(t *testing.T) {
	extractor := NewTaskExtractor()

	candidates := extractor.Extract("I was pleased with the mustard selection at the dinner party last night")
	assert.Empty(t, candidates)
}

func TestTaskExtractor_CurlyApostrophe(t *testing.T) {
	extractor := NewTaskExtractor()

	candidates := extractor.Extract("Don’t forget to water the office plants on Monday morning, everyone!")
	require.Len(t, candidates, 1)
	assert.Equal(t, "Water the office plants on Monday morning, everyone", candidates[0].Title)
	assert.Equal(t, string(model.PriorityHigh), candidates[0].Priority)
}

func TestTaskExtractor_DescriptionWindow(t *testing.T) {
	extractor := NewTaskExtractor()

	text := strings.Repeat("a ", 100) + "Please review the budget report carefully" + strings.Repeat(" b", 150)
	candidates := extractor.Extract(text)

	require.Len(t, candidates, 1)
	desc := candidates[0].Description
	assert.True(t, strings.HasSuffix(desc, "..."))
	assert.Equal(t, 303, utf8.RuneCountInString(desc))
	assert.Contains(t, desc, "Please review the budget report")
	assert.True(t, strings.HasPrefix(desc, "a a"))
}

func TestTaskExtractor_ConcurrentCalls(t *testing.T) {
	extractor := NewTaskExtractor()
	text := "Please review the budget report by Friday. Also, can you schedule the team meeting for next week?"
	want := extractor.Extract(text)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, extractor.Extract(text))
		}()
	}
	wg.Wait()
}

func TestPhraseKey(t *testing.T) {
	assert.Equal(t, "send the report", PhraseKey("  Send   the\tREPORT "))
}
