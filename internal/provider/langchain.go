package provider

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
)

// LangchainEmbedder adapts a langchaingo embedder to the Embedder contract.
type LangchainEmbedder struct {
	embedder embeddings.Embedder
}

// NewLangchainEmbedder wraps a langchaingo embedder.
func NewLangchainEmbedder(e embeddings.Embedder) (*LangchainEmbedder, error) {
	if e == nil {
		return nil, fmt.Errorf("creating embedder adapter: %w", ErrUnavailable)
	}
	return &LangchainEmbedder{embedder: e}, nil
}

// Embed returns the embedding vector for text.
func (l *LangchainEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := l.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return vec, nil
}

// LangchainCompleter adapts a langchaingo model to the Completer contract.
type LangchainCompleter struct {
	model llms.Model
}

// NewLangchainCompleter wraps a langchaingo model.
func NewLangchainCompleter(m llms.Model) (*LangchainCompleter, error) {
	if m == nil {
		return nil, fmt.Errorf("creating completer adapter: %w", ErrUnavailable)
	}
	return &LangchainCompleter{model: m}, nil
}

// Complete returns the model completion for prompt.
func (l *LangchainCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, l.model, prompt)
	if err != nil {
		return "", ClassifyError(err)
	}
	return out, nil
}

var (
	_ Embedder  = (*LangchainEmbedder)(nil)
	_ Completer = (*LangchainCompleter)(nil)
)
