package metrics

import "time"

// RunStats summarises one presentation generation run.
type RunStats struct {
	SessionID     string
	TextProvider  string
	ImageProvider string
	Language      string
	Slides        int
	Refined       int
	Fallbacks     int
	Placeholders  int
	Duration      time.Duration
	Failed        bool
}

// RecordRun emits one EMF line for a finished generation run.
func RecordRun(s RunStats) {
	result := "completed"
	if s.Failed {
		result = "failed"
	}
	New(Namespace).
		Dimension("Operation", "generate").
		Dimension("ImageProvider", s.ImageProvider).
		Metric("RunDurationMs", float64(s.Duration.Milliseconds()), UnitMilliseconds).
		Metric("SlidesGenerated", float64(s.Slides), UnitCount).
		Metric("SlidesRefined", float64(s.Refined), UnitCount).
		Metric("FallbacksUsed", float64(s.Fallbacks), UnitCount).
		Metric("PlaceholderImages", float64(s.Placeholders), UnitCount).
		Property("sessionId", s.SessionID).
		Property("textProvider", s.TextProvider).
		Property("language", s.Language).
		Property("result", result).
		Flush()
}

// RecordFeedback emits one EMF line for a feedback revision request.
func RecordFeedback(mode string, slides, failed, regenerated int, d time.Duration) {
	New(Namespace).
		Dimension("Operation", "feedback").
		Dimension("Mode", mode).
		Metric("FeedbackDurationMs", float64(d.Milliseconds()), UnitMilliseconds).
		Metric("SlidesRevised", float64(slides-failed), UnitCount).
		Metric("RevisionFailures", float64(failed), UnitCount).
		Metric("ImagesRegenerated", float64(regenerated), UnitCount).
		Flush()
}
