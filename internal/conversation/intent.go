package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentGreeting        Intent = "greeting"
	IntentSearchSlots     Intent = "search_slots"
	IntentBookAppointment Intent = "book_appointment"
	IntentOther           Intent = "other"
)

const intentClassifierPrompt = `You are an intent classifier for a doctor appointment chatbot.

User message: %q

Classify the user's intent. Choose only ONE of the following:

- greeting: The user is just saying hello
- search_slots: The user wants to check possible appointment times
- book_appointment: The user is confirming a specific appointment
- other: Anything else

Respond with JSON only: {"intent": "<intent>"}

Chat history:
%s`

// IntentClassifier uses the LLM to label a user message with one intent.
type IntentClassifier struct {
	client LLMClient
}

// NewIntentClassifier creates an LLM-based intent classifier.
func NewIntentClassifier(client LLMClient) *IntentClassifier {
	return &IntentClassifier{client: client}
}

// Classify returns the intent of the message given the session history.
// Unrecognized or unparsable model output falls back to IntentOther.
func (c *IntentClassifier) Classify(ctx context.Context, message string, history []ChatMessage) (Intent, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return IntentOther, nil
	}

	prompt := fmt.Sprintf(intentClassifierPrompt, message, renderHistory(history))
	resp, err := c.client.Complete(ctx, LLMRequest{
		Messages:  []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		MaxTokens: 50,
	})
	if err != nil {
		return IntentOther, err
	}

	var result struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &result); err != nil {
		return IntentOther, nil
	}

	switch Intent(result.Intent) {
	case IntentGreeting, IntentSearchSlots, IntentBookAppointment:
		return Intent(result.Intent), nil
	}
	return IntentOther, nil
}

// extractJSON slices the first top-level JSON object out of model output
// that may carry surrounding prose or code fences.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx >= 0 && endIdx > startIdx {
		return content[startIdx : endIdx+1]
	}
	return content
}

// renderHistory flattens a session history into the "role: text" lines the
// prompts embed.
func renderHistory(history []ChatMessage) string {
	if len(history) == 0 {
		return "(empty)"
	}
	var b strings.Builder
	for _, msg := range history {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
