package qwik

// DebugMode enables debug logging throughout the qwik package.
// This should be set at startup and not changed during runtime.
var DebugMode bool

// ReadinessStrategy decides when visible-task chores become eligible to run.
// A visible task never runs before its declared trigger point, even if the
// rest of the queue has drained.
type ReadinessStrategy uint8

const (
	// ReadinessDocumentReady releases visible tasks once the document (or
	// the relevant subtree) reports ready. The default.
	ReadinessDocumentReady ReadinessStrategy = iota

	// ReadinessDocumentIdle releases visible tasks only once the document
	// reports idle.
	ReadinessDocumentIdle
)

// String returns a human-readable name for the strategy.
func (r ReadinessStrategy) String() string {
	switch r {
	case ReadinessDocumentReady:
		return "document-ready"
	case ReadinessDocumentIdle:
		return "document-idle"
	default:
		return "unknown"
	}
}
