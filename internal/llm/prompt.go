package llm

import (
	"fmt"

	"github.com/ppiankov/donotmiss/internal/util"
)

// SystemPrompt frames every extraction request
const SystemPrompt = "You are a task detection assistant. Extract actionable tasks. Return only valid JSON."

// maxPromptChars bounds how much of the input text is sent to the model
const maxPromptChars = 2000

// BuildPrompt constructs the user prompt for task extraction
func BuildPrompt(text string) string {
	return fmt.Sprintf(`Analyze this text and extract any action items or tasks.
For each task found, provide:
1. A clear task title (max 50 chars)
2. A brief description
3. Priority (low/medium/high/highest)
4. Estimated deadline if mentioned (format: YYYY-MM-DD)

Text:
%s

Return ONLY a JSON array of tasks. If no tasks found, return empty array [].
Format: [{"title": "...", "description": "...", "priority": "medium", "deadline": "2026-01-25"}]
`, util.TruncateChars(text, maxPromptChars))
}
