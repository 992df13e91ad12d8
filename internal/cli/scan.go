package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/donotmiss/internal/pipeline"
)

var (
	userAgent   string
	maxBytes    int64
	noRobots    bool
	httpProxy   string
	httpsProxy  string
	scanTimeout time.Duration
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Fetch a web page and detect tasks in its visible text",
	Long: `Scan fetches a single page and detects the action items in it:
- robots.txt is honoured unless --ignore-robots is set
- requests are rate limited per host and the body is size capped
- scripts, styles and other invisible markup are dropped before detection

Example:
  donotmiss scan https://acme.atlassian.net/browse/OPS-42
  donotmiss scan https://example.com/meeting-notes --json tasks.json --no-ai`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&outJSON, "json", "-", "output JSON path (- for stdout)")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 2*time.Minute, "overall scan timeout")
	scanCmd.Flags().BoolVar(&noAI, "no-ai", false, "skip the AI provider and use keyword detection only")
	addHTTPFlags(scanCmd)
}

// addHTTPFlags registers the fetch overrides shared by scan and batch
func addHTTPFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from config)")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 0, "max response bytes to read (default from config)")
	cmd.Flags().BoolVar(&noRobots, "ignore-robots", false, "do not consult robots.txt")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// loadFetchConfig loads the config and lays the fetch flags over it
func loadFetchConfig() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if maxBytes > 0 {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	if noRobots {
		cfg.HTTP.RespectRobots = false
	}
	if httpProxy != "" {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if noAI {
		disableAI(cfg)
	}

	return newApp(cfg)
}

func runScan(cmd *cobra.Command, args []string) error {
	url := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	a, err := loadFetchConfig()
	if err != nil {
		return err
	}
	defer a.Close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", url)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", scanTimeout)
		fmt.Fprintf(os.Stderr, "AI: %v\n\n", a.detector.AIEnabled())
	}

	result, err := a.pipeline.ScanURL(ctx, url)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Detected %d tasks (%s path)\n", len(result.Result.Tasks), result.Result.Path)
	}

	return pipeline.WriteJSON(result, outJSON)
}
