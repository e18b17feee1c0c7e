package extract

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 1024
)

// AnthropicLLM backs the extractor with the Anthropic Messages API.
type AnthropicLLM struct {
	client sdk.Client
	model  sdk.Model
}

// NewAnthropic creates an Anthropic-backed LLM. An empty modelName selects
// the default fast model.
func NewAnthropic(apiKey, modelName string) *AnthropicLLM {
	if modelName == "" {
		modelName = defaultModel
	}
	return &AnthropicLLM{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  sdk.Model(modelName),
	}
}

// Complete sends a single user message and concatenates the text blocks of
// the response.
func (a *AnthropicLLM) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     a.model,
		MaxTokens: defaultMaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "extract: anthropic message")
	}

	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == "" || b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
