package wsbridge

// Streamer forwards exploration lifecycle events over the bridge
// connection so a remote UI can render live progress.
type Streamer struct {
	client        *Client
	explorationID string
	onStarted     func(explorationID string)
}

func NewStreamer(client *Client) *Streamer {
	return &Streamer{client: client}
}

func (s *Streamer) RunStarted(explorationID, appName, persona string) {
	s.explorationID = explorationID
	if s.onStarted != nil {
		s.onStarted(explorationID)
	}
	s.emit(EventRunStarted, &RunStartedData{
		AppName: appName,
		Persona: persona,
	})
}

func (s *Streamer) Progress(message string, percent int) {
	s.emit(EventProgress, &ProgressData{
		Message: message,
		Percent: percent,
	})
}

func (s *Streamer) StageChanged(stageNumber int, status, message string) {
	s.emit(EventStageChange, &StageChangeData{
		Stage:   stageNumber,
		Status:  status,
		Message: message,
	})
}

func (s *Streamer) Log(level, message string) {
	s.emit(EventLog, &LogData{
		Level:   level,
		Message: message,
	})
}

func (s *Streamer) RunCompleted(explorationID, status string) {
	s.emit(EventRunCompleted, &RunCompletedData{
		Status: status,
	})
}

func (s *Streamer) emit(eventType EventType, data any) {
	env, err := NewEvent(TypeExplorationEvent, &ExplorationEventPayload{
		ExplorationID: s.explorationID,
		EventType:     eventType,
		Data:          data,
	})
	if err != nil {
		s.client.logger.Warn("failed to build event", "error", err)
		return
	}
	if err := s.client.SendEvent(env); err != nil {
		s.client.logger.Warn("failed to send event", "error", err)
	}
}
