package classifier

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// SystemInstruction constrains the model to a single intent word.
const SystemInstruction = `You are an intent classifier for a hotel concierge.
Classify the guest message into exactly one of these words:
front-desk, food, housekeeping
Reply with that single lowercase word and nothing else.`

// generator produces raw text for a system instruction and a user message.
type generator interface {
	Generate(ctx context.Context, model, system, message string) (string, error)
}

// GeminiOpts holds parameters for creating a Gemini classifier.
type GeminiOpts struct {
	APIKey string
	Model  string // defaults to DefaultModel
	Logger *zap.Logger
}

// Gemini classifies messages with a Gemini text model.
type Gemini struct {
	gen    generator
	model  string
	logger *zap.Logger
}

// NewGemini creates a Gemini classifier. A missing API key is an error so
// the caller can run without a classifier.
func NewGemini(ctx context.Context, opts GeminiOpts) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("classifier: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("classifier: create genai client: %w", err)
	}
	return newGemini(&genaiGenerator{client: client}, opts.Model, opts.Logger), nil
}

func newGemini(gen generator, model string, logger *zap.Logger) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{gen: gen, model: model, logger: logger}
}

// Classify asks the model for an intent. It never panics on bad output;
// failures are reported through Result.Status.
func (g *Gemini) Classify(ctx context.Context, message string) Result {
	raw, err := g.gen.Generate(ctx, g.model, SystemInstruction, message)
	if err != nil {
		g.logger.Warn("classifier unavailable", zap.String("model", g.model), zap.Error(err))
		return Result{Status: StatusUnavailable, Err: err}
	}
	intent, ok := ParseIntent(raw)
	if !ok {
		g.logger.Warn("classifier returned malformed intent", zap.String("raw", raw))
		return Result{Status: StatusMalformed, Raw: raw}
	}
	return Result{Intent: intent, Status: StatusOK, Raw: raw}
}

type genaiGenerator struct {
	client *genai.Client
}

func (g *genaiGenerator) Generate(ctx context.Context, model, system, message string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(message), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("classifier: generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("classifier: empty response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
