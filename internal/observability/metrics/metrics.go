package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking service.
type BookingMetrics struct {
	bookingTotal      *prometheus.CounterVec
	slotSearchLatency prometheus.Histogram
	upstreamLatency   *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "requests_total",
			Help:      "Total booking requests by outcome status",
		}, []string{"status"}),
		slotSearchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "slot_search_latency_seconds",
			Help:      "Latency of available-slot enumeration",
			Buckets:   prometheus.DefBuckets,
		}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "calendar_call_latency_seconds",
			Help:      "Latency of Google Calendar calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingTotal, m.slotSearchLatency, m.upstreamLatency)
	return m
}

func (m *BookingMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveSlotSearch(seconds float64) {
	if m == nil {
		return
	}
	m.slotSearchLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveCalendarCall(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(operation).Observe(seconds)
}

// ChatMetrics exposes counters/histograms for the conversational front-end.
type ChatMetrics struct {
	intentTotal *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		intentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "chat",
			Name:      "intent_total",
			Help:      "Total classified chat intents",
		}, []string{"intent"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "chat",
			Name:      "llm_latency_seconds",
			Help:      "Latency of Gemini completions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"purpose"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "chat",
			Name:      "llm_tokens_total",
			Help:      "Total Gemini tokens consumed",
		}, []string{"direction"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.intentTotal, m.llmLatency, m.llmTokens)
	return m
}

func (m *ChatMetrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.intentTotal.WithLabelValues(intent).Inc()
}

func (m *ChatMetrics) ObserveLLMLatency(purpose string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(purpose).Observe(seconds)
}

func (m *ChatMetrics) ObserveLLMTokens(input, output int32) {
	if m == nil {
		return
	}
	m.llmTokens.WithLabelValues("input").Add(float64(input))
	m.llmTokens.WithLabelValues("output").Add(float64(output))
}
