package conversation

import (
	"context"
	"time"

	"github.com/docsched/clinic-ai-platform/internal/observability/metrics"
)

// instrumentedLLM records latency and token usage around an LLMClient.
type instrumentedLLM struct {
	client  LLMClient
	metrics *metrics.ChatMetrics
	purpose string
}

// InstrumentLLM wraps a client with Prometheus observation. purpose labels
// the latency series ("extractor" or "conversational").
func InstrumentLLM(client LLMClient, m *metrics.ChatMetrics, purpose string) LLMClient {
	if m == nil {
		return client
	}
	return &instrumentedLLM{client: client, metrics: m, purpose: purpose}
}

func (i *instrumentedLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	started := time.Now()
	resp, err := i.client.Complete(ctx, req)
	i.metrics.ObserveLLMLatency(i.purpose, time.Since(started).Seconds())
	if err == nil {
		i.metrics.ObserveLLMTokens(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	return resp, err
}
