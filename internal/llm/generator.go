package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/paperchat/paperchat/internal/config"
)

// Generator streams chat completions from an OpenAI-compatible endpoint
type Generator struct {
	client *openai.Client
	model  string
}

// NewGenerator creates a new generator
func NewGenerator(cfg config.LLMConfig) *Generator {
	return &Generator{
		client: newClient(cfg),
		model:  cfg.ChatModel,
	}
}

// Stream submits the prompt and invokes onFragment for every content delta in
// arrival order, returning the full concatenated text once the backend signals
// end of stream. A mid-stream backend error returns with no text; whatever was
// already forwarded is the caller's problem to discard.
func (g *Generator) Stream(ctx context.Context, prompt string, onFragment func(string)) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		// omitempty drops a literal 0, and 0 is exactly what we want
		Temperature: math.SmallestNonzeroFloat32,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("start completion stream: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return full.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("completion stream: %w", err)
		}

		if len(resp.Choices) == 0 {
			continue
		}
		fragment := resp.Choices[0].Delta.Content
		if fragment == "" {
			continue
		}

		full.WriteString(fragment)
		if onFragment != nil {
			onFragment(fragment)
		}
	}
}
