package cli

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/donotmiss/internal/cache"
	"github.com/ppiankov/donotmiss/internal/llm"
	"github.com/ppiankov/donotmiss/internal/logging"
	"github.com/ppiankov/donotmiss/internal/model"
	"github.com/ppiankov/donotmiss/internal/pipeline"
	"github.com/ppiankov/donotmiss/internal/publish"
	"github.com/ppiankov/donotmiss/internal/worker"
)

// app holds the components shared by every command
type app struct {
	cfg      *model.Config
	logger   *zap.Logger
	detector *pipeline.Detector
	pipeline *pipeline.Pipeline
	nc       *nats.Conn
}

// newApp builds logger, AI provider (behind the response cache), detector,
// optional NATS hand-off and the page pipeline from cfg
func newApp(cfg *model.Config) (*app, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	if verbose && !logger.Core().Enabled(zapcore.DebugLevel) {
		if l, err := logging.New("debug", cfg.Log.Format); err == nil {
			logger = l
		}
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(*cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("create AI provider: %w", err)
	}
	if provider != nil {
		provider = llm.NewCachedProvider(provider, cache.New(cfg.Cache), cfg.LLM.Model,
			time.Duration(cfg.Cache.TTL)*time.Second, logger)
		logger.Debug("AI extraction enabled", zap.String("provider", provider.Name()))
	} else {
		logger.Debug("AI extraction disabled, using keyword fallback")
	}

	detector := pipeline.NewDetector(cfg.Extraction, provider, logger).
		WithMetrics(pipeline.NewMetrics())

	publisher, nc, err := publish.Connect(cfg.Publish, logger)
	if err != nil {
		return nil, err
	}
	if publisher != nil {
		detector.WithPublisher(publisher)
	}

	limiter := worker.NewLimiter(cfg.HTTP.RequestsPerSec, 1)

	return &app{
		cfg:      cfg,
		logger:   logger,
		detector: detector,
		pipeline: pipeline.NewPipelineFromConfig(cfg, detector, limiter, logger),
		nc:       nc,
	}, nil
}

// Close flushes pending events and logs
func (a *app) Close() {
	if err := publish.Close(a.nc); err != nil {
		a.logger.Warn("nats drain failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// disableAI turns the AI path off for this invocation
func disableAI(cfg *model.Config) {
	cfg.LLM.Provider = "none"
}
