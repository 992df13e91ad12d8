package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/donotmiss/internal/model"
	"github.com/ppiankov/donotmiss/internal/pipeline"
)

var (
	extractSource  string
	extractURL     string
	extractMeta    []string
	extractHTML    bool
	extractEmail   bool
	noAI           bool
	outJSON        string
	extractTimeout time.Duration
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [file|-]",
	Short: "Detect tasks in a text, HTML or email file",
	Long: `Extract reads text from a file (or stdin when the argument is "-" or
missing), detects action items and prints them as JSON.

Example:
  donotmiss extract notes.txt
  pbpaste | donotmiss extract --source chat --url https://acme.slack.com/archives/C01
  donotmiss extract message.eml --json tasks.json
  donotmiss extract page.html --no-ai --meta team=payments`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

// extractOutput is what extract prints
type extractOutput struct {
	Tasks []model.Task `json:"tasks"`
	Count int          `json:"count"`
	Path  string       `json:"path"`
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractSource, "source", "", "source tag (default: derived from --url)")
	extractCmd.Flags().StringVar(&extractURL, "url", "", "URL the text was captured from")
	extractCmd.Flags().StringArrayVar(&extractMeta, "meta", nil, "caller metadata as key=value (repeatable)")
	extractCmd.Flags().BoolVar(&extractHTML, "html", false, "treat input as HTML (visible text only)")
	extractCmd.Flags().BoolVar(&extractEmail, "email", false, "treat input as an RFC 5322 message")
	extractCmd.Flags().BoolVar(&noAI, "no-ai", false, "skip the AI provider and use keyword detection only")
	extractCmd.Flags().StringVar(&outJSON, "json", "-", "output JSON path (- for stdout)")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", time.Minute, "overall timeout")
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractHTML && extractEmail {
		return fmt.Errorf("--html and --email are mutually exclusive")
	}

	input := "-"
	if len(args) == 1 {
		input = args[0]
	}

	data, err := readInput(input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	metadata, err := parseMeta(extractMeta)
	if err != nil {
		return err
	}

	ec, err := pipeline.BuildContext(data, inputFormat(input))
	if err != nil {
		return err
	}
	applyOverrides(&ec, extractSource, extractURL, metadata)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noAI {
		disableAI(cfg)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), extractTimeout)
	defer cancel()

	result := a.detector.Detect(ctx, ec)

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Detected %d tasks (%s path)\n", len(result.Tasks), result.Path)
		if result.AIError != nil {
			fmt.Fprintf(os.Stderr, "  AI fallback reason: %v\n", result.AIError)
		}
	}

	return pipeline.WriteJSON(extractOutput{
		Tasks: result.Tasks,
		Count: len(result.Tasks),
		Path:  result.Path,
	}, outJSON)
}

func readInput(input string, stdin io.Reader) ([]byte, error) {
	if input == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func inputFormat(input string) pipeline.InputFormat {
	switch {
	case extractHTML:
		return pipeline.FormatHTML
	case extractEmail:
		return pipeline.FormatEmail
	case input == "-":
		return pipeline.FormatAuto
	default:
		return pipeline.FormatFromPath(input)
	}
}

// parseMeta turns key=value pairs into a metadata map
func parseMeta(pairs []string) (map[string]any, error) {
	meta := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta %q: expected key=value", pair)
		}
		meta[key] = value
	}
	return meta, nil
}

// applyOverrides lays flag values over what the input parser found.
// Without an explicit source the URL decides.
func applyOverrides(ec *model.ExtractionContext, source, url string, metadata map[string]any) {
	if url != "" {
		ec.URL = url
	}
	if source != "" {
		ec.Source = source
	}
	if ec.Source == "" {
		ec.Source = model.SourceFromURL(ec.URL)
	}

	if len(metadata) > 0 && ec.Metadata == nil {
		ec.Metadata = make(map[string]any, len(metadata))
	}
	for k, v := range metadata {
		ec.Metadata[k] = v
	}
}
