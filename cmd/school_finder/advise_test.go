package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/school-finder/internal/advice"
	"github.com/jonathan/school-finder/internal/llm"
)

// stubLLMClient implements llm.Client for testing
type stubLLMClient struct {
	response   string
	err        error
	lastPrompt string
	model      string
	closed     bool
}

func (s *stubLLMClient) GenerateContent(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	return "", errors.New("not used")
}

func (s *stubLLMClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	s.lastPrompt = prompt
	return s.response, s.err
}

func (s *stubLLMClient) GetModel(_ llm.ModelTier) string { return s.model }

func (s *stubLLMClient) Close() error {
	s.closed = true
	return nil
}

func useStubClient(t *testing.T, stub *stubLLMClient) {
	t.Helper()
	original := newLLMClient
	newLLMClient = func(_ context.Context, cfg *llm.Config, apiKey string) (llm.Client, error) {
		if apiKey == "" {
			return nil, llm.ErrMissingAPIKey
		}
		stub.model = cfg.GetModel(llm.TierStandard)
		return stub, nil
	}
	t.Cleanup(func() { newLLMClient = original })
}

func TestAdviseCommand_Success(t *testing.T) {
	stub := &stubLLMClient{response: `{"advice": "通信制なら未来創造学院がおすすめです。", "recommended_school_ids": [7]}`}
	useStubClient(t, stub)

	out, err := executeCommand(t, "advise", "--load-latency", "0s", "--api-key", "test-key",
		"--full-time=false", "--prompt", "自分のペースで学びたい")
	require.NoError(t, err)

	assert.Contains(t, out, "AI ADVICE")
	assert.Contains(t, out, "未来創造学院がおすすめです")
	assert.Contains(t, out, "★ 私立未来創造学院高等学校")
	assert.True(t, stub.closed)

	// Only the visible (non full-time-only) schools are sent.
	assert.Contains(t, stub.lastPrompt, "自分のペースで学びたい")
	assert.Contains(t, stub.lastPrompt, "都立新宿山吹高等学校")
	assert.NotContains(t, stub.lastPrompt, "私立桜丘学園高等学校")
}

func TestAdviseCommand_ModelOverride(t *testing.T) {
	stub := &stubLLMClient{response: `{"advice": "ok", "recommended_school_ids": []}`}
	useStubClient(t, stub)

	_, err := executeCommand(t, "advise", "--load-latency", "0s", "--api-key", "k",
		"--model", "gemini-custom", "--prompt", "p")
	require.NoError(t, err)
	assert.Equal(t, "gemini-custom", stub.model)
}

func TestAdviseCommand_FailureShowsGenericMessage(t *testing.T) {
	stub := &stubLLMClient{err: errors.New("quota exceeded")}
	useStubClient(t, stub)

	out, err := executeCommand(t, "advise", "--load-latency", "0s", "--api-key", "k", "--prompt", "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, advice.ErrUnavailable))
	assert.Contains(t, out, advice.UserMessage)
	assert.NotContains(t, out, "quota")
}

func TestAdviseCommand_Validation(t *testing.T) {
	useStubClient(t, &stubLLMClient{})
	t.Setenv("GEMINI_API_KEY", "")

	tests := []struct {
		name    string
		args    []string
		errText string
	}{
		{name: "missing prompt", args: []string{"--api-key", "k"}, errText: "--prompt is required"},
		{name: "prompt too long", args: []string{"--api-key", "k", "--prompt", strings.Repeat("a", 2001)}, errText: "--prompt is required"},
		{name: "missing API key", args: []string{"--prompt", "p"}, errText: "GEMINI_API_KEY"},
		{name: "bad sort", args: []string{"--api-key", "k", "--prompt", "p", "--sort", "x"}, errText: "invalid --sort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"advise", "--load-latency", "0s"}, tt.args...)
			_, err := executeCommand(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}
