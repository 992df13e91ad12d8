package extract

import (
	"strings"
	"testing"
)

func TestVisibleText(t *testing.T) {
	htmlContent := `<html>
<head><title>Inbox</title><style>p { color: red; }</style></head>
<body>
<script>var please = "ignore this script";</script>
<div>
  <p>Please review the   budget report by Friday.</p>
  <p>Can you schedule the team meeting?</p>
</div>
<noscript>Please enable JavaScript</noscript>
</body>
</html>`

	text, err := VisibleText(htmlContent)
	if err != nil {
		t.Fatalf("VisibleText failed: %v", err)
	}

	lines := strings.Split(text, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), text)
	}
	if lines[0] != "Please review the budget report by Friday." {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if lines[1] != "Can you schedule the team meeting?" {
		t.Errorf("unexpected second line: %q", lines[1])
	}

	for _, hidden := range []string{"ignore this script", "color: red", "Inbox", "enable JavaScript"} {
		if strings.Contains(text, hidden) {
			t.Errorf("hidden content %q leaked into visible text", hidden)
		}
	}
}

func TestVisibleText_FeedsExtractor(t *testing.T) {
	htmlContent := `<ul><li>Action items: rotate the production API keys</li><li>TODO: renew the TLS certificate on the edge proxy</li></ul>`

	text, err := VisibleText(htmlContent)
	if err != nil {
		t.Fatalf("VisibleText failed: %v", err)
	}

	candidates := NewTaskExtractor().Extract(text)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Title != "Rotate the production API keys" {
		t.Errorf("unexpected title: %q", candidates[0].Title)
	}
	if candidates[1].Title != "Renew the TLS certificate on the edge proxy" {
		t.Errorf("unexpected title: %q", candidates[1].Title)
	}
}

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"<p>hello</p>", true},
		{"<DIV class=\"x\">hello</DIV>", true},
		{"line one<br/>line two", true},
		{"Please review the report", false},
		{"if a < b and b > c then done", false},
	}

	for _, tt := range tests {
		if got := LooksLikeHTML(tt.input); got != tt.want {
			t.Errorf("LooksLikeHTML(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
