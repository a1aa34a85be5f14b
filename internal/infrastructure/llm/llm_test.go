package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"shortscript-api/internal/config"
)

type fakeGenerator struct {
	model    string
	contents []*genai.Content
	cfg      *genai.GenerateContentConfig

	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, m string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.cfg = m, contents, cfg
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     120,
			CandidatesTokenCount: 80,
			TotalTokenCount:      200,
		},
	}
}

func TestGemini_GenerateMapsMessagesAndOptions(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(`{"hook":"a"}`)}
	temp := float32(0.7)
	m := newGeminiChatModel(gen, GeminiConfig{Model: "gemini-2.0-flash", MaxTokens: 512, Temperature: &temp, JSONMode: true})

	out, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("You write scripts."),
		schema.UserMessage("Write one about sleep."),
	}, model.WithTemperature(0.9), model.WithModel("gemini-2.5-pro"))
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", gen.model)
	require.Len(t, gen.contents, 1)
	assert.Equal(t, genai.RoleUser, gen.contents[0].Role)
	assert.Equal(t, "Write one about sleep.", gen.contents[0].Parts[0].Text)

	require.NotNil(t, gen.cfg.SystemInstruction)
	assert.Equal(t, "You write scripts.", gen.cfg.SystemInstruction.Parts[0].Text)
	assert.Equal(t, float32(0.9), *gen.cfg.Temperature)
	assert.Equal(t, int32(512), gen.cfg.MaxOutputTokens)
	assert.Equal(t, "application/json", gen.cfg.ResponseMIMEType)

	assert.Equal(t, schema.Assistant, out.Role)
	assert.Equal(t, `{"hook":"a"}`, out.Content)
	require.NotNil(t, out.ResponseMeta.Usage)
	assert.Equal(t, 200, out.ResponseMeta.Usage.TotalTokens)
}

func TestGemini_GenerateErrors(t *testing.T) {
	m := newGeminiChatModel(&fakeGenerator{err: errors.New("429 RESOURCE_EXHAUSTED")}, GeminiConfig{})
	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	m = newGeminiChatModel(&fakeGenerator{resp: &genai.GenerateContentResponse{}}, GeminiConfig{})
	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
	assert.ErrorContains(t, err, "no candidates")

	_, err = m.Generate(context.Background(), []*schema.Message{schema.SystemMessage("only system")})
	assert.ErrorContains(t, err, "no user content")
}

func TestGemini_StreamReturnsSingleFrame(t *testing.T) {
	m := newGeminiChatModel(&fakeGenerator{resp: textResponse("hello")}, GeminiConfig{})
	sr, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("x")})
	require.NoError(t, err)
	defer sr.Close()

	msg, err := sr.Recv()
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
}

func TestEinoFactory_UnknownProvider(t *testing.T) {
	f := NewEinoFactory(&config.Config{LLM: config.LLMConfig{
		DefaultProvider: "missing",
		Providers: map[string]config.ProviderConfig{
			"bad": {Type: "anthropic-v0"},
		},
	}})

	_, err := f.Default(context.Background())
	assert.ErrorContains(t, err, "not found")

	_, err = f.Get(context.Background(), "bad")
	assert.ErrorContains(t, err, "unsupported provider type")

	assert.ElementsMatch(t, []string{"bad"}, f.Providers())
}

func TestEinoFactory_GeminiRequiresKey(t *testing.T) {
	f := NewEinoFactory(&config.Config{LLM: config.LLMConfig{
		Providers: map[string]config.ProviderConfig{"g": {Type: "gemini"}},
	}})
	_, err := f.Get(context.Background(), "g")
	assert.ErrorContains(t, err, "api key is required")
}
