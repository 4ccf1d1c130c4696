package metrics

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// withOutput enables EMF and captures flushed lines for the duration of a test.
func withOutput(t *testing.T, fn string) *bytes.Buffer {
	t.Helper()
	initOnce = sync.Once{}
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", fn)
	t.Setenv("SLIDES_EMF", "1")

	var buf bytes.Buffer
	old := Output
	Output = &buf
	t.Cleanup(func() {
		Output = old
		initOnce = sync.Once{}
	})
	return &buf
}

func TestNew_AutoDimension(t *testing.T) {
	withOutput(t, "TestFunction")

	r := New("TestNamespace")
	if r.namespace != "TestNamespace" {
		t.Errorf("expected namespace TestNamespace, got %s", r.namespace)
	}
	if r.dimensions["FunctionName"] != "TestFunction" {
		t.Errorf("expected FunctionName dimension TestFunction, got %s", r.dimensions["FunctionName"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	buf := withOutput(t, "")

	New(Namespace).
		Dimension("Operation", "generate").
		Metric("RunDurationMs", 1234.5, UnitMilliseconds).
		Metric("SlidesGenerated", 7, UnitCount).
		Property("sessionId", "session_1_abc").
		Flush()

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, buf.String())
	}

	awsMap, ok := doc["_aws"].(map[string]any)
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if _, ok := awsMap["Timestamp"]; !ok {
		t.Error("missing Timestamp in _aws directive")
	}
	cwArr, ok := awsMap["CloudWatchMetrics"].([]any)
	if !ok || len(cwArr) == 0 {
		t.Fatal("CloudWatchMetrics should be a non-empty array")
	}
	cw := cwArr[0].(map[string]any)
	if cw["Namespace"] != Namespace {
		t.Errorf("expected namespace %s, got %v", Namespace, cw["Namespace"])
	}
	if doc["Operation"] != "generate" {
		t.Errorf("expected Operation dimension, got %v", doc["Operation"])
	}
	if doc["RunDurationMs"] != 1234.5 {
		t.Errorf("expected RunDurationMs 1234.5, got %v", doc["RunDurationMs"])
	}
	if doc["sessionId"] != "session_1_abc" {
		t.Errorf("expected sessionId property, got %v", doc["sessionId"])
	}
}

func TestRecorder_EmptyFlushWritesNothing(t *testing.T) {
	buf := withOutput(t, "")

	New(Namespace).Dimension("Operation", "noop").Flush()
	if buf.Len() != 0 {
		t.Errorf("expected no output without metrics, got %s", buf.String())
	}
}

func TestRecorder_DisabledOutsideLambda(t *testing.T) {
	buf := withOutput(t, "")
	t.Setenv("SLIDES_EMF", "")
	initOnce = sync.Once{}

	New(Namespace).Count("Anything").Flush()
	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got %s", buf.String())
	}
}

func TestRecordRun(t *testing.T) {
	buf := withOutput(t, "")

	RecordRun(RunStats{
		SessionID:     "session_1_abc",
		ImageProvider: "huggingface",
		Slides:        6,
		Refined:       2,
		Duration:      3 * time.Second,
	})

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse EMF output: %v", err)
	}
	if doc["SlidesGenerated"] != float64(6) {
		t.Errorf("expected SlidesGenerated 6, got %v", doc["SlidesGenerated"])
	}
	if doc["SlidesRefined"] != float64(2) {
		t.Errorf("expected SlidesRefined 2, got %v", doc["SlidesRefined"])
	}
	if doc["result"] != "completed" {
		t.Errorf("expected result completed, got %v", doc["result"])
	}
}
