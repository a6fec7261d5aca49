// Package translator turns a free-text architecture description into an
// ArchitectureIR by calling an Azure OpenAI chat completion deployment.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/ankek/archdiagram/internal/ir"
)

// Defaults for Config fields left zero
const (
	DefaultDeployment  = "gpt-4"
	DefaultAPIVersion  = "2023-05-15"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.3
)

// cognitiveServicesScope is the Entra ID scope for Azure OpenAI
const cognitiveServicesScope = "https://cognitiveservices.azure.com/.default"

const maxResponseBytes = 4 << 20

// Config holds the language model connection settings
type Config struct {
	Endpoint    string
	APIKey      string
	Deployment  string
	APIVersion  string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	MaxRetries  int // 0 disables retries
}

func (c *Config) setDefaults() {
	if c.Deployment == "" {
		c.Deployment = DefaultDeployment
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
}

// Client calls the chat completion endpoint
type Client struct {
	cfg        Config
	credential azcore.TokenCredential
	http       *retryablehttp.Client
	logger     zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the client logger, also used for retry logging
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithCredential authenticates with an Entra ID bearer token instead of an
// API key
func WithCredential(cred azcore.TokenCredential) Option {
	return func(c *Client) { c.credential = cred }
}

// WithHTTPClient replaces the underlying transport client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http.HTTPClient = hc }
}

// New creates a translator client
func New(cfg Config, opts ...Option) *Client {
	cfg.setDefaults()

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	// Keep the final response so non-2xx bodies reach the caller
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		cfg:    cfg,
		http:   rc,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	rc.Logger = &retryLogger{logger: c.logger}
	return c
}

// Configured reports whether an endpoint and a credential are available.
// An unconfigured client translates every description to ir.Demo().
func (c *Client) Configured() bool {
	return c.cfg.Endpoint != "" && (c.cfg.APIKey != "" || c.credential != nil)
}

func (c *Client) completionURL() string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"),
		url.PathEscape(c.cfg.Deployment),
		url.QueryEscape(c.cfg.APIVersion))
}

// Translate converts a description into an IR. The call is bounded by the
// configured timeout; every failure is a *TranslationError.
func (c *Client) Translate(ctx context.Context, description string) (*ir.ArchitectureIR, error) {
	if !c.Configured() {
		c.logger.Info().Msg("language model not configured, using demo architecture")
		return ir.Demo(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	content, err := c.complete(ctx, description)
	if err != nil {
		return nil, err
	}

	a, err := ParseContent(content)
	if err != nil {
		return nil, &TranslationError{
			Message: "model output is not valid JSON",
			Snippet: snippet(content),
			Err:     err,
		}
	}

	c.logger.Debug().
		Str("deployment", c.cfg.Deployment).
		Int("resources", len(a.Resources)).
		Int("relationships", len(a.Relationships)).
		Int("clusters", len(a.Clusters)).
		Dur("duration", time.Since(start)).
		Msg("description translated")

	return a, nil
}

// complete performs the chat completion call and returns the first choice
func (c *Client) complete(ctx context.Context, description string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(description)},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", &TranslationError{Message: "failed to encode request", Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.completionURL(), bytes.NewReader(body))
	if err != nil {
		return "", &TranslationError{Message: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	if c.credential != nil {
		token, err := c.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{cognitiveServicesScope}})
		if err != nil {
			return "", &TranslationError{Message: "failed to acquire Entra ID token", Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token.Token)
	} else {
		req.Header.Set("api-key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", &TranslationError{Message: fmt.Sprintf("request timed out after %s", c.cfg.Timeout), Err: err}
		}
		return "", &TranslationError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(ctx, err) {
			return "", &TranslationError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("request timed out after %s", c.cfg.Timeout), Err: err}
		}
		return "", &TranslationError{StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("language model request rejected")
		return "", &TranslationError{
			StatusCode: resp.StatusCode,
			Message:    "upstream returned non-success status",
			Snippet:    snippet(string(raw)),
		}
	}

	var completion chatResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", &TranslationError{
			StatusCode: resp.StatusCode,
			Message:    "malformed completion response",
			Snippet:    snippet(string(raw)),
			Err:        err,
		}
	}
	if len(completion.Choices) == 0 {
		return "", &TranslationError{
			StatusCode: resp.StatusCode,
			Message:    "completion has no choices",
			Snippet:    snippet(string(raw)),
		}
	}
	return completion.Choices[0].Message.Content, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
