package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/donotmiss/internal/model"
)

// ParseCandidates decodes a model reply into raw candidates.
// Markdown code fences are stripped; the remainder must be a JSON array.
// Array elements that are not objects are skipped.
func ParseCandidates(content string) ([]model.RawCandidate, error) {
	body := stripCodeFence(content)

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(body), &elems); err != nil {
		return nil, fmt.Errorf("%w: expected JSON array: %v", ErrMalformedResponse, err)
	}
	if elems == nil {
		// literal null
		return nil, fmt.Errorf("%w: expected JSON array, got null", ErrMalformedResponse)
	}

	candidates := make([]model.RawCandidate, 0, len(elems))
	for _, elem := range elems {
		if !bytes.HasPrefix(bytes.TrimSpace(elem), []byte("{")) {
			continue
		}
		var c model.RawCandidate
		if err := json.Unmarshal(elem, &c); err != nil {
			continue
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence
func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// drop the language tag line
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
