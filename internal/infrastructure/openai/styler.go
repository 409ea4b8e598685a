package openai

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Persona prompts per target platform. Twitter output is kept terse to fit
// the platform limit; Telegram allows longer form.
const (
	twitterPrompt = `You rewrite the user's message in the account's persona voice for a tweet.
Keep it under 280 characters, no hashtags unless the user included them,
preserve any URLs and @mentions exactly. Return only the rewritten text.`

	telegramPrompt = `You rewrite the user's message in the account's persona voice for a Telegram post.
Up to 4096 characters, preserve any URLs exactly, use at most light formatting.
Return only the rewritten text.`
)

// Styler wraps the OpenAI client for content styling. If client is nil
// (no API key configured), styling is a pass-through.
type Styler struct {
	client *openai.Client
}

// NewStyler creates the styler. Pass an empty apiKey to disable calls.
func NewStyler(apiKey string) *Styler {
	if apiKey == "" {
		return &Styler{client: nil}
	}
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return &Styler{client: &c}
}

// Style rewrites message in the persona voice for the given platform
// ("twitter" or "telegram"). With no client configured the message is
// returned unchanged.
func (s *Styler) Style(ctx context.Context, message, platform string) (string, error) {
	if s.client == nil {
		return message, nil
	}

	prompt := twitterPrompt
	if platform == "telegram" {
		prompt = telegramPrompt
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModelGPT4oMini,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
			openai.UserMessage(message),
		},
	})
	if err != nil {
		return "", fmt.Errorf("style content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("style content: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
