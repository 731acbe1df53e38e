package classify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tilesweep/pkg/anthropic"
)

// Image modes for AnthropicClassifier.
const (
	ImageModeInline = "inline"
	ImageModeURL    = "url"
)

// AnthropicConfig configures AnthropicClassifier.
type AnthropicConfig struct {
	Model     string
	MaxTokens int64
	Timeout   time.Duration
	ImageMode string
	CacheTTL  string
	Target    Target
}

// AnthropicClassifier asks a Claude model whether a tile shows the target.
type AnthropicClassifier struct {
	client anthropic.Client
	cfg    AnthropicConfig

	mu    sync.Mutex
	usage anthropic.TokenUsage
	calls int
}

// NewAnthropicClassifier creates a classifier over client.
func NewAnthropicClassifier(client anthropic.Client, cfg AnthropicConfig) *AnthropicClassifier {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 32
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ImageMode == "" {
		cfg.ImageMode = ImageModeInline
	}
	return &AnthropicClassifier{client: client, cfg: cfg}
}

// ID returns "anthropic:<model>:<target>".
func (c *AnthropicClassifier) ID() string {
	return "anthropic:" + c.cfg.Model + ":" + c.cfg.Target.Name
}

// Classify sends the image and the target question and parses the reply.
func (c *AnthropicClassifier) Classify(ctx context.Context, img ImageRef) (Label, error) {
	block, err := c.imageBlock(img)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	temp := 0.0
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(c.cfg.Target.System, c.cfg.CacheTTL),
		Temperature: &temp,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: c.cfg.Target.Question,
			Images:  []anthropic.Image{block},
		}},
	})
	if err != nil {
		return "", eris.Wrap(err, "classify: anthropic request")
	}

	c.mu.Lock()
	c.usage = c.usage.Add(resp.Usage)
	c.calls++
	c.mu.Unlock()
	resp.Usage.LogCost(c.cfg.Model, "classify")

	label, err := parseReply(resp.Text())
	if err != nil {
		zap.L().Warn("classify: unparseable reply",
			zap.String("model", c.cfg.Model),
			zap.String("reply", resp.Text()),
		)
		return "", err
	}
	return label, nil
}

func (c *AnthropicClassifier) imageBlock(img ImageRef) (anthropic.Image, error) {
	if len(img.Data) > 0 && (c.cfg.ImageMode == ImageModeInline || img.URL == "") {
		mediaType := img.MediaType
		if mediaType == "" {
			mediaType = http.DetectContentType(img.Data)
		}
		return anthropic.Image{MediaType: mediaType, Data: img.Data}, nil
	}
	if img.URL == "" {
		return anthropic.Image{}, eris.New("classify: image has neither data nor url")
	}
	return anthropic.Image{URL: img.URL}, nil
}

// Usage returns the accumulated token usage and call count.
func (c *AnthropicClassifier) Usage() (anthropic.TokenUsage, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage, c.calls
}

// CostUSD returns the estimated spend so far.
func (c *AnthropicClassifier) CostUSD() float64 {
	usage, _ := c.Usage()
	return usage.EstimateCost(c.cfg.Model)
}
