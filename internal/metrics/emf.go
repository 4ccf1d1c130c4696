// Package metrics provides a lightweight AWS CloudWatch Embedded Metrics Format (EMF)
// utility. EMF metrics are written as structured JSON lines, which CloudWatch
// extracts from Lambda logs without any API calls. Outside Lambda the
// recorder is silent unless SLIDES_EMF=1.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
)

// Namespace is the CloudWatch namespace for every metric this service emits.
const Namespace = "AiSlideGenerator"

// Standard CloudWatch metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

// Output is where flushed EMF documents are written.
var Output io.Writer = os.Stdout

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type emfDirective struct {
	Timestamp         int64      `json:"Timestamp"`
	CloudWatchMetrics []cwMetric `json:"CloudWatchMetrics"`
}

type cwMetric struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

// Recorder accumulates dimensions, metrics, and properties for a single EMF flush.
// It is NOT safe for concurrent use from multiple goroutines; create one per operation.
type Recorder struct {
	namespace  string
	dimensions map[string]string
	metrics    map[string]metricDef
	values     map[string]any
	properties map[string]any
}

var (
	functionName string
	forceEnabled bool
	initOnce     sync.Once
)

func initEnv() {
	functionName = os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	forceEnabled = os.Getenv("SLIDES_EMF") == "1"
}

// Enabled reports whether Flush writes anything: inside Lambda, or when
// SLIDES_EMF=1.
func Enabled() bool {
	initOnce.Do(initEnv)
	return functionName != "" || forceEnabled
}

// New creates a new EMF Recorder with the given CloudWatch namespace.
// Inside Lambda it adds the FunctionName dimension automatically.
func New(namespace string) *Recorder {
	initOnce.Do(initEnv)
	r := &Recorder{
		namespace:  namespace,
		dimensions: make(map[string]string),
		metrics:    make(map[string]metricDef),
		values:     make(map[string]any),
		properties: make(map[string]any),
	}
	if functionName != "" {
		r.dimensions["FunctionName"] = functionName
	}
	return r
}

// Dimension adds a dimension key-value pair. Dimensions are indexed in CloudWatch
// and appear as filterable attributes on the metric.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records a named metric value with a CloudWatch unit.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.metrics[name] = metricDef{Name: name, Unit: unit}
	r.values[name] = value
	return r
}

// Count is a convenience for recording a count metric (value = 1).
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Property adds a non-metric field to the EMF document. Properties are searchable
// in CloudWatch Logs Insights but do not create CloudWatch metrics.
func (r *Recorder) Property(key string, value any) *Recorder {
	r.properties[key] = value
	return r
}

// Document builds the EMF JSON document without writing it.
func (r *Recorder) Document() ([]byte, error) {
	doc := make(map[string]any)

	metricDefs := make([]metricDef, 0, len(r.metrics))
	for _, m := range r.metrics {
		metricDefs = append(metricDefs, m)
	}
	sort.Slice(metricDefs, func(i, j int) bool { return metricDefs[i].Name < metricDefs[j].Name })

	dimKeys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		dimKeys = append(dimKeys, k)
	}
	sort.Strings(dimKeys)

	doc["_aws"] = emfDirective{
		Timestamp: time.Now().UnixMilli(),
		CloudWatchMetrics: []cwMetric{{
			Namespace:  r.namespace,
			Dimensions: [][]string{dimKeys},
			Metrics:    metricDefs,
		}},
	}

	for k, v := range r.properties {
		doc[k] = v
	}
	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}

	return json.Marshal(doc)
}

// Flush serializes the EMF document as a single JSON line to Output.
// After flushing, the Recorder should not be reused.
func (r *Recorder) Flush() {
	if len(r.metrics) == 0 || !Enabled() {
		return
	}

	data, err := r.Document()
	if err != nil {
		fmt.Fprintf(os.Stderr, "emf: failed to marshal metrics: %v\n", err)
		return
	}
	fmt.Fprintln(Output, string(data))
}
