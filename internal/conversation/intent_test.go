package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM answers prompts by matching ordered substring routes and
// records every request it sees.
type scriptedLLM struct {
	routes []llmRoute
	err    error
	calls  []LLMRequest
}

type llmRoute struct {
	marker string
	reply  string
}

func (s *scriptedLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	prompt := req.Messages[len(req.Messages)-1].Content
	for _, r := range s.routes {
		if strings.Contains(prompt, r.marker) {
			return LLMResponse{Text: r.reply}, nil
		}
	}
	return LLMResponse{Text: "ok"}, nil
}

func (s *scriptedLLM) lastPrompt() string {
	if len(s.calls) == 0 {
		return ""
	}
	msgs := s.calls[len(s.calls)-1].Messages
	return msgs[len(msgs)-1].Content
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  Intent
	}{
		{"plain json", `{"intent": "search_slots"}`, IntentSearchSlots},
		{"fenced json", "```json\n{\"intent\": \"greeting\"}\n```", IntentGreeting},
		{"booking", `{"intent": "book_appointment"}`, IntentBookAppointment},
		{"unknown label", `{"intent": "order_pizza"}`, IntentOther},
		{"not json at all", "search_slots, probably", IntentOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			llm := &scriptedLLM{routes: []llmRoute{{marker: "intent classifier", reply: tc.reply}}}
			classifier := NewIntentClassifier(llm)

			got, err := classifier.Classify(context.Background(), "I want an appointment", nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClassifyEmptyMessageSkipsModel(t *testing.T) {
	llm := &scriptedLLM{}
	classifier := NewIntentClassifier(llm)

	got, err := classifier.Classify(context.Background(), "   ", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentOther, got)
	assert.Empty(t, llm.calls)
}

func TestClassifyPropagatesModelError(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("quota exhausted")}
	classifier := NewIntentClassifier(llm)

	got, err := classifier.Classify(context.Background(), "hello", nil)
	assert.Error(t, err)
	assert.Equal(t, IntentOther, got)
}

func TestClassifyEmbedsHistory(t *testing.T) {
	llm := &scriptedLLM{routes: []llmRoute{{marker: "intent classifier", reply: `{"intent": "greeting"}`}}}
	classifier := NewIntentClassifier(llm)

	history := []ChatMessage{
		{Role: ChatRoleUser, Content: "hi"},
		{Role: ChatRoleAssistant, Content: "hello, how can I help?"},
	}
	_, err := classifier.Classify(context.Background(), "hi again", history)
	require.NoError(t, err)
	assert.Contains(t, llm.lastPrompt(), "user: hi\n")
	assert.Contains(t, llm.lastPrompt(), "assistant: hello, how can I help?\n")
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"Sure! ```json\n{\"a\": 1}\n``` hope that helps", `{"a": 1}`},
		{"no braces here", "no braces here"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extractJSON(tc.in))
	}
}

func TestRenderHistoryEmpty(t *testing.T) {
	assert.Equal(t, "(empty)", renderHistory(nil))
}
