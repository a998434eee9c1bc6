package streamers

// ExplorationHandler receives pipeline lifecycle events. Different
// implementations can render to a terminal, forward over a websocket, or
// both.
type ExplorationHandler interface {
	// RunStarted fires once when the exploration begins.
	RunStarted(explorationID, appName, persona string)

	// Progress reports coarse pipeline progress. Percent is 0-100, or -1
	// when the run has failed.
	Progress(message string, percent int)

	// StageChanged fires on every stage status transition.
	StageChanged(stageNumber int, status, message string)

	// Log carries free-form diagnostic output. Level is one of info,
	// success, warning, error.
	Log(level, message string)

	// RunCompleted fires once with the terminal status: completed, failed,
	// or stopped.
	RunCompleted(explorationID, status string)
}

// Multi fans every event out to all handlers in order.
type Multi []ExplorationHandler

func (m Multi) RunStarted(explorationID, appName, persona string) {
	for _, h := range m {
		h.RunStarted(explorationID, appName, persona)
	}
}

func (m Multi) Progress(message string, percent int) {
	for _, h := range m {
		h.Progress(message, percent)
	}
}

func (m Multi) StageChanged(stageNumber int, status, message string) {
	for _, h := range m {
		h.StageChanged(stageNumber, status, message)
	}
}

func (m Multi) Log(level, message string) {
	for _, h := range m {
		h.Log(level, message)
	}
}

func (m Multi) RunCompleted(explorationID, status string) {
	for _, h := range m {
		h.RunCompleted(explorationID, status)
	}
}

// Null discards every event.
type Null struct{}

func (Null) RunStarted(string, string, string) {}
func (Null) Progress(string, int)              {}
func (Null) StageChanged(int, string, string)  {}
func (Null) Log(string, string)                {}
func (Null) RunCompleted(string, string)       {}
