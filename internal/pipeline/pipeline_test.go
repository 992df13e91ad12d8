package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/donotmiss/internal/model"
)

func newTestPipeline() *Pipeline {
	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	return NewPipeline(fetcher, NewDetector(defaultExtraction(), nil, nil), nil)
}

func TestPipeline_ScanURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, `<html><head><script>var please = "do not extract this script";</script></head>
<body><p>Please review the budget report by Friday.</p><p>Also, can you schedule the team meeting for next week?</p></body></html>`)
	}))
	defer server.Close()

	scan, err := newTestPipeline().ScanURL(context.Background(), server.URL+"/inbox/weekly-sync")
	require.NoError(t, err)

	require.Len(t, scan.Result.Tasks, 2)
	assert.Equal(t, "Review the budget report by Friday", scan.Result.Tasks[0].Title)
	assert.Equal(t, server.URL+"/inbox/weekly-sync", scan.Result.Tasks[0].URL)
	assert.Equal(t, "weekly sync", scan.Result.Tasks[0].Metadata["subject"])
	assert.Equal(t, "scan", scan.Result.Tasks[0].Metadata["capturedVia"])
	assert.Equal(t, "generic", scan.Result.Tasks[0].Metadata["platform"])
}

func TestPipeline_ScanURL_FetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestPipeline().ScanURL(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestPipeline_ScanFile(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte(budgetText), 0o644))

	eml := filepath.Join(dir, "message.eml")
	require.NoError(t, os.WriteFile(eml, []byte("From: Alice <alice@example.com>\r\n"+
		"Subject: Budget\r\n"+
		"Content-Type: text/plain\r\n\r\n"+
		"Please review the budget report by Friday.\r\n"), 0o644))

	p := newTestPipeline()

	scan, err := p.ScanFile(context.Background(), txt, FormatAuto)
	require.NoError(t, err)
	assert.Len(t, scan.Result.Tasks, 2)
	assert.Equal(t, "notes.txt", scan.Result.Tasks[0].Metadata["file"])

	scan, err = p.ScanInput(context.Background(), eml)
	require.NoError(t, err)
	require.Len(t, scan.Result.Tasks, 1)
	assert.Equal(t, model.SourceEmail, scan.Result.Tasks[0].Source)
	assert.Equal(t, "alice@example.com", scan.Result.Tasks[0].Metadata["sender"])

	_, err = p.ScanFile(context.Background(), filepath.Join(dir, "missing.txt"), FormatAuto)
	assert.Error(t, err)
}

func TestBuildContext(t *testing.T) {
	ec, err := BuildContext([]byte("<div><p>Hello</p><p>World</p></div>"), FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld", ec.Text)

	ec, err = BuildContext([]byte("a < b, plain text"), FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, "a < b, plain text", ec.Text)

	ec, err = BuildContext([]byte("<p>kept as is</p>"), FormatText)
	require.NoError(t, err)
	assert.Equal(t, "<p>kept as is</p>", ec.Text)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tasks.json")

	result := &Result{Tasks: []model.Task{{Title: "Review", Priority: model.PriorityHigh}}, Path: PathFallback}
	require.NoError(t, WriteJSON(result, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "fallback", decoded["path"])
}
