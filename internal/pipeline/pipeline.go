package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ppiankov/donotmiss/internal/extract"
	"github.com/ppiankov/donotmiss/internal/extract/adapters"
	"github.com/ppiankov/donotmiss/internal/model"
)

// InputFormat says how raw input bytes are turned into text
type InputFormat string

const (
	FormatAuto  InputFormat = ""
	FormatText  InputFormat = "text"
	FormatHTML  InputFormat = "html"
	FormatEmail InputFormat = "email"
)

// Pipeline orchestrates the complete scan process
type Pipeline struct {
	fetcher  *Fetcher
	detector *Detector
	adapters *adapters.Registry
	logger   *zap.Logger
}

// NewPipeline wires a fetcher and detector together
func NewPipeline(fetcher *Fetcher, detector *Detector, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher:  fetcher,
		detector: detector,
		adapters: adapters.NewRegistry(),
		logger:   logger,
	}
}

// NewPipelineFromConfig builds the fetcher from cfg.HTTP around an existing detector
func NewPipelineFromConfig(cfg *model.Config, detector *Detector, limiter HostLimiter, logger *zap.Logger) *Pipeline {
	fetcher := NewFetcher(
		time.Duration(cfg.HTTP.Timeout)*time.Second,
		cfg.HTTP.UserAgent,
		cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.RespectRobots,
		cfg.HTTP.HTTPProxy,
		cfg.HTTP.HTTPSProxy,
		cfg.HTTP.NoProxy,
	)
	if limiter != nil {
		fetcher.WithLimiter(limiter)
	}
	return NewPipeline(fetcher, detector, logger)
}

// ScanResult contains the complete result for one input
type ScanResult struct {
	Input   string                  `json:"input"`
	Context model.ExtractionContext `json:"-"`
	Result  *Result                 `json:"result"`
}

// ScanURL fetches a page and detects tasks in its visible text
func (p *Pipeline) ScanURL(ctx context.Context, rawURL string) (*ScanResult, error) {
	fetchResult, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	subject := fetchResult.Subject
	metadata := map[string]any{"capturedVia": "scan"}

	text := fetchResult.HTML
	if !strings.HasPrefix(fetchResult.ContentType, "text/plain") {
		doc, err := html.Parse(strings.NewReader(fetchResult.HTML))
		if err != nil {
			return nil, fmt.Errorf("parse page: %w", err)
		}
		page, err := p.adapters.Read(doc, fetchResult.FinalURL, fetchResult.ContentType)
		if err != nil {
			return nil, fmt.Errorf("extract text: %w", err)
		}

		text = page.Text
		metadata["platform"] = page.Platform
		if page.Subject != "" {
			subject = page.Subject
		}
		if page.Sender != "" {
			metadata["sender"] = page.Sender
		}
	}
	metadata["subject"] = subject

	ec := model.ExtractionContext{
		Text:     text,
		URL:      fetchResult.FinalURL,
		Source:   model.SourceFromURL(fetchResult.FinalURL),
		Metadata: metadata,
	}

	return &ScanResult{
		Input:   rawURL,
		Context: ec,
		Result:  p.detector.Detect(ctx, ec),
	}, nil
}

// ScanFile reads a local file and detects tasks in it
func (p *Pipeline) ScanFile(ctx context.Context, path string, format InputFormat) (*ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	if format == FormatAuto {
		format = FormatFromPath(path)
	}

	ec, err := BuildContext(data, format)
	if err != nil {
		return nil, err
	}
	if ec.Metadata == nil {
		ec.Metadata = map[string]any{}
	}
	ec.Metadata["file"] = filepath.Base(path)

	return &ScanResult{
		Input:   path,
		Context: ec,
		Result:  p.detector.Detect(ctx, ec),
	}, nil
}

// ScanInput dispatches on the input kind: http(s) URLs are fetched, anything
// else is read as a local file
func (p *Pipeline) ScanInput(ctx context.Context, input string) (*ScanResult, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return p.ScanURL(ctx, input)
	}
	return p.ScanFile(ctx, input, FormatAuto)
}

// BuildContext turns raw input bytes into an extraction context.
// FormatAuto sniffs for markup; email input fills subject and sender metadata.
func BuildContext(data []byte, format InputFormat) (model.ExtractionContext, error) {
	switch format {
	case FormatEmail:
		email, err := extract.ParseEmail(data)
		if err != nil {
			return model.ExtractionContext{}, fmt.Errorf("parse email: %w", err)
		}
		return email.ExtractionContext(), nil

	case FormatHTML:
		text, err := extract.VisibleText(string(data))
		if err != nil {
			return model.ExtractionContext{}, fmt.Errorf("extract text: %w", err)
		}
		return model.ExtractionContext{Text: text}, nil

	case FormatAuto:
		if extract.LooksLikeHTML(string(data)) {
			return BuildContext(data, FormatHTML)
		}
		return BuildContext(data, FormatText)

	default:
		return model.ExtractionContext{Text: string(data)}, nil
	}
}

// FormatFromPath picks the input format from a file extension
func FormatFromPath(path string) InputFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".eml":
		return FormatEmail
	case ".html", ".htm":
		return FormatHTML
	case ".txt", ".md":
		return FormatText
	default:
		return FormatAuto
	}
}

// WriteJSON writes v as indented JSON to path, or to stdout when path is "-"
func WriteJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	data = append(data, '\n')

	if path == "-" || path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
