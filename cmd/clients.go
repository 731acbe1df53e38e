package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/tilesweep/internal/classify"
	"github.com/sells-group/tilesweep/internal/config"
	"github.com/sells-group/tilesweep/internal/progress"
	"github.com/sells-group/tilesweep/internal/resilience"
	"github.com/sells-group/tilesweep/pkg/anthropic"
	"github.com/sells-group/tilesweep/pkg/staticmaps"
)

func newMapsClient(c *config.Config) staticmaps.Client {
	opts := []staticmaps.Option{
		staticmaps.WithHTTPClient(&http.Client{Timeout: time.Duration(c.Maps.TimeoutSecs) * time.Second}),
		staticmaps.WithRetry(resilience.FromRetrySettings(c.Maps.MaxRetries, c.Maps.InitialBackoffMs, c.Maps.MaxBackoffMs)),
	}
	if c.Maps.BaseURL != "" {
		opts = append(opts, staticmaps.WithBaseURL(c.Maps.BaseURL))
	}
	if c.Maps.RateLimit > 0 {
		opts = append(opts, staticmaps.WithRateLimit(rate.NewLimiter(rate.Limit(c.Maps.RateLimit), 1)))
	}
	return staticmaps.NewClient(c.Maps.Key, opts...)
}

func newAnthropicClient(c *config.Config) anthropic.Client {
	opts := []anthropic.ClientOption{anthropic.WithMaxRetries(c.Anthropic.MaxRetries)}
	if c.Anthropic.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(c.Anthropic.BaseURL))
	}
	return anthropic.NewClient(c.Anthropic.Key, opts...)
}

// newClassifier builds the breaker-wrapped Anthropic classifier. A nil client
// is allowed when only the classifier id is needed.
func newClassifier(c *config.Config, client anthropic.Client) (*classify.Breaker, error) {
	target, err := classify.LookupTarget(c.Classifier.Target, c.Classifier.TargetPrompt)
	if err != nil {
		return nil, eris.Wrap(config.ErrConfig, err.Error())
	}
	ac := classify.NewAnthropicClassifier(client, classify.AnthropicConfig{
		Model:     c.Anthropic.Model,
		MaxTokens: int64(c.Classifier.MaxTokens),
		Timeout:   time.Duration(c.Classifier.TimeoutSecs) * time.Second,
		ImageMode: c.Classifier.ImageMode,
		CacheTTL:  c.Classifier.CacheTTL,
		Target:    target,
	})
	return classify.NewBreaker(ac, resilience.FromBreakerSettings(c.Classifier.BreakerThreshold, c.Classifier.BreakerResetSecs)), nil
}

func openProgress(ctx context.Context, c *config.Config) (progress.Store, error) {
	if err := c.Validate(config.ModeProgress); err != nil {
		return nil, err
	}
	return progress.Open(ctx, c.Progress)
}
