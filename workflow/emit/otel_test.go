package emit

import (
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestOTelEmitter(t *testing.T) (*OTelEmitter, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	return NewOTelEmitter(tp.Tracer("zenflow-test")), recorder
}

func TestOTelEmitter_SpanPerEvent(t *testing.T) {
	emitter, recorder := newTestOTelEmitter(t)

	emitter.Emit(Event{
		ThreadID: "abc123",
		Step:     2,
		Tool:     "consensus",
		Msg:      "model_consulted",
		Meta: map[string]interface{}{
			"model":       "o3",
			"stance":      "for",
			"duration_ms": int64(1200),
		},
	})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}

	span := spans[0]
	if span.Name() != "model_consulted" {
		t.Errorf("span name = %q, want model_consulted", span.Name())
	}

	attrs := make(map[string]interface{})
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}

	if attrs["zenflow.thread_id"] != "abc123" {
		t.Errorf("thread attribute = %v", attrs["zenflow.thread_id"])
	}
	if attrs["zenflow.tool"] != "consensus" {
		t.Errorf("tool attribute = %v", attrs["zenflow.tool"])
	}
	if attrs["zenflow.llm.model"] != "o3" {
		t.Errorf("model attribute = %v, want namespaced o3", attrs["zenflow.llm.model"])
	}
	if attrs["zenflow.llm.stance"] != "for" {
		t.Errorf("stance attribute = %v", attrs["zenflow.llm.stance"])
	}
	if attrs["zenflow.llm.duration_ms"] != int64(1200) {
		t.Errorf("duration attribute = %v", attrs["zenflow.llm.duration_ms"])
	}
}

func TestOTelEmitter_ErrorStatus(t *testing.T) {
	emitter, recorder := newTestOTelEmitter(t)

	emitter.Emit(Event{
		Tool: "consensus",
		Msg:  "Error consulting model o3",
		Meta: map[string]interface{}{"error": "rate limited"},
	})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}

	status := spans[0].Status()
	if status.Description != "rate limited" {
		t.Errorf("status description = %q, want the error message", status.Description)
	}
	if len(spans[0].Events()) == 0 {
		t.Error("span should record the error as an event")
	}
}
