package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// Default per-call deadlines. A timed-out call is treated the same as
// any other invocation failure and routed to the fallback analyzer.
const (
	defaultProbeTimeout   = 20 * time.Second
	defaultRequestTimeout = 90 * time.Second
)

// Low temperature biases the model toward deterministic, literal output,
// which the normalizer depends on.
const (
	samplingTemperature = 0.2
	samplingTopP        = 0.8
)

// ErrNoModelAvailable is returned by ResolveModel when every candidate
// model failed its probe request.
var ErrNoModelAvailable = fmt.Errorf("no working AI model found")

// Attachment is a binary part sent alongside a prompt
type Attachment struct {
	Data     []byte
	MIMEType string
	Filename string
}

// Client wraps an OpenAI-compatible generative endpoint with logging
// and per-call timeouts
type Client struct {
	client         *openai.Client
	logger         *zap.Logger
	probeTimeout   time.Duration
	requestTimeout time.Duration
}

// NewClient creates a new generative-AI client. The base URL points at
// any OpenAI-compatible endpoint (Gemini's compatibility surface by
// default, see config).
func NewClient(baseURL, apiKey string, logger *zap.Logger) (*Client, error) {
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("baseURL and apiKey are required")
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &Client{
		client:         &client,
		logger:         logger,
		probeTimeout:   defaultProbeTimeout,
		requestTimeout: defaultRequestTimeout,
	}, nil
}

// Probe sends a minimal request to test whether a model identifier is
// currently servable
func (c *Client) Probe(ctx context.Context, modelID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	_, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(modelID),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("ping"),
		},
	})
	if err != nil {
		return fmt.Errorf("probe failed for %s: %w", modelID, err)
	}

	return nil
}

// ResolveModel probes the candidate model identifiers in order and
// returns the first one that responds successfully. Probe failures are
// logged and non-fatal; only exhaustion of the list is an error.
func (c *Client) ResolveModel(ctx context.Context, candidates []string) (string, error) {
	for _, modelID := range candidates {
		if err := c.Probe(ctx, modelID); err != nil {
			c.logger.Warn("model not available",
				zap.String("model", modelID),
				zap.Error(err),
			)
			continue
		}

		c.logger.Info("model resolved", zap.String("model", modelID))
		return modelID, nil
	}

	return "", ErrNoModelAvailable
}

// Generate invokes the model with a prompt and an optional binary
// attachment and returns the raw response text
func (c *Client) Generate(ctx context.Context, modelID, prompt string, attachment *Attachment) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	requestStart := time.Now()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(modelID),
		Messages:    []openai.ChatCompletionMessageParamUnion{buildUserMessage(prompt, attachment)},
		Temperature: openai.Float(samplingTemperature),
		TopP:        openai.Float(samplingTopP),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from model %s", modelID)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty content in response from model %s", modelID)
	}

	c.logger.Info("AI request completed",
		zap.String("model", modelID),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("request_time", time.Since(requestStart)),
	)

	return content, nil
}

// buildUserMessage assembles a single-part text message, or a two-part
// message carrying the attachment as a base64 data URI ahead of the text
func buildUserMessage(prompt string, attachment *Attachment) openai.ChatCompletionMessageParamUnion {
	if attachment == nil {
		return openai.UserMessage(prompt)
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s",
		attachment.MIMEType,
		base64.StdEncoding.EncodeToString(attachment.Data),
	)

	var binaryPart openai.ChatCompletionContentPartUnionParam
	if attachment.MIMEType == "application/pdf" {
		binaryPart = openai.ChatCompletionContentPartUnionParam{
			OfFile: &openai.ChatCompletionContentPartFileParam{
				File: openai.ChatCompletionContentPartFileFileParam{
					FileData: openai.String(dataURI),
					Filename: openai.String(attachment.Filename),
				},
			},
		}
	} else {
		binaryPart = openai.ChatCompletionContentPartUnionParam{
			OfImageURL: &openai.ChatCompletionContentPartImageParam{
				ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURI,
				},
			},
		}
	}

	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
					binaryPart,
					{
						OfText: &openai.ChatCompletionContentPartTextParam{Text: prompt},
					},
				},
			},
		},
	}
}
