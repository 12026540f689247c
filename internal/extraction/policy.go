package extraction

// Default decision thresholds. AccuracyThreshold gates AI escalation (cost
// control); ReviewThreshold gates the downstream human-review workflow.
const (
	DefaultAccuracyThreshold = 80.0
	DefaultReviewThreshold   = 60.0
)

// ShouldEscalate reports whether the AI extractor should be invoked given the
// primary OCR confidence. Escalate iff confidence is strictly below the
// threshold; a run exactly at the threshold stays on the cheap path.
func ShouldEscalate(primaryConfidence, threshold float64) bool {
	return primaryConfidence < threshold
}

// NeedsReview reports whether the final result should be routed to a human
// reviewer.
func NeedsReview(confidence, reviewThreshold float64) bool {
	return confidence < reviewThreshold
}
