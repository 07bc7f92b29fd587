package trial

// Version constants recorded alongside stored sessions.
const (
	// SchemaVersion is the version of the trial record layout.
	SchemaVersion = "1"

	// ScorerVersion identifies the scoring rules that produced stored metrics.
	ScorerVersion = "1.0.0"
)
