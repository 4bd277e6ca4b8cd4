package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const greetingPrompt = `The user wrote: %q
Greet them, explain that you are a bot for scheduling doctor appointments, and ask how you can help.
If they try to talk about other topics, gently refocus them by explaining that this is a bot for scheduling doctor's appointments based on available times.
Chat history:
%s`

const clarifyPrompt = `The user wrote: %q
It is unclear what they want. Compose a polite question asking for clarification or guidance.
If they try to talk about other topics, gently refocus them by explaining that this is a bot for scheduling doctor's appointments based on available times.
Chat history:
%s`

const missingInfoPrompt = `You are a friendly and professional scheduling assistant for doctor appointments.

Conversation so far:
%s

The user's latest message: %q
Recognized intent: %s
Missing information: %s

Your task:
- Respond politely and clearly.
- If multiple details are missing, ask for them in one message, but clearly.
- Use natural language, not a list of fields.
- If the user already hinted at something in the chat history, reference it.

Do not say "Missing: date, time". Do say something like "Great! Just to lock this in, could you please let me know what day and time work for you?"`

const slotsPrompt = `The user wrote: %q
Extracted date: %s
Extracted time: %s

Available slots: %s

Working hours: %s

Instructions:
- If the user requested today, set the time to the current time plus 5 minutes.
- If the date is in the past (e.g. yesterday, including earlier today), state that the date or time has passed.
- If today is outside of business hours, state the days and hours of operation.
- If the time is outside of business hours, state the hours of operation for the requested day.
- If they ask about business hours, provide them or a summary.
- If they use a time period like "morning", respond with the same wording.
- If the date is valid, in the future, within business days and hours, and there are free slots, present them and encourage selection.
- Be clear, polite, and helpful.

Note: the goal is to help the user move forward with scheduling. Don't be vague.

Chat history:
%s`

const bookingOutcomePrompt = `The user wrote: %q
Appointment booking attempt:
- Start: %s
- End: %s
- Name: %s

Result: %s

Compose a human-like, clear, and pleasant response to the user.
Chat history:
%s`

// Responder turns pipeline outcomes into user-facing replies with the
// conversational model.
type Responder struct {
	client    LLMClient
	hoursHint string
}

// conversationalTemperature matches the warmer setting the reply prompts
// were tuned for; extraction stays at 0.
const conversationalTemperature = 0.6

// NewResponder creates a responder.
func NewResponder(client LLMClient, workingHours map[string][2]string) *Responder {
	hint, _ := json.Marshal(workingHours)
	return &Responder{client: client, hoursHint: string(hint)}
}

func (r *Responder) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := r.client.Complete(ctx, LLMRequest{
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		Temperature: conversationalTemperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Greeting replies to a greeting.
func (r *Responder) Greeting(ctx context.Context, message string, history []ChatMessage) (string, error) {
	return r.complete(ctx, fmt.Sprintf(greetingPrompt, message, renderHistory(history)))
}

// Clarify asks the user what they want.
func (r *Responder) Clarify(ctx context.Context, message string, history []ChatMessage) (string, error) {
	return r.complete(ctx, fmt.Sprintf(clarifyPrompt, message, renderHistory(history)))
}

// AskMissingInfo asks for absent fields in one natural message.
func (r *Responder) AskMissingInfo(ctx context.Context, message string, intent Intent, missing []string, history []ChatMessage) (string, error) {
	return r.complete(ctx, fmt.Sprintf(missingInfoPrompt,
		renderHistory(history), message, intent, strings.Join(missing, ", ")))
}

// PresentSlots narrates a slot-search result. slots is the raw JSON returned
// by the calendar service, or empty when the lookup failed.
func (r *Responder) PresentSlots(ctx context.Context, message string, query SearchQuery, slotsJSON string, history []ChatMessage) (string, error) {
	timeStr := query.Time
	if timeStr == "" {
		timeStr = "Not provided"
	}
	if slotsJSON == "" {
		slotsJSON = "null"
	}
	return r.complete(ctx, fmt.Sprintf(slotsPrompt,
		message, query.Date, timeStr, slotsJSON, r.hoursHint, renderHistory(history)))
}

// BookingOutcome narrates the result of a booking attempt, successful or
// not.
func (r *Responder) BookingOutcome(ctx context.Context, message string, details BookingDetails, statusMessage string, history []ChatMessage) (string, error) {
	return r.complete(ctx, fmt.Sprintf(bookingOutcomePrompt,
		message, details.StartDatetime, details.EndDatetime, details.Name, statusMessage, renderHistory(history)))
}
