package sweep

// State names a phase of the sweep lifecycle. It appears in log lines.
type State string

const (
	StateInitializing State = "initializing"
	StateResuming     State = "resuming"
	StateProcessing   State = "processing"
	StateAdvancing    State = "advancing"
	StateCompleted    State = "completed"
)
