// Package wsbridge connects a running instance to a listening UI over a
// websocket: the bridge streams pipeline events out and accepts start, stop,
// and query commands in.
package wsbridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"uxscope/store"
)

// MessageType identifies an envelope on the wire.
type MessageType string

const (
	TypeRegister    MessageType = "register"
	TypeRegisterAck MessageType = "register_ack"

	TypeHeartbeat    MessageType = "heartbeat"
	TypeHeartbeatAck MessageType = "heartbeat_ack"

	TypeStartExploration    MessageType = "start_exploration"
	TypeStartExplorationAck MessageType = "start_exploration_ack"
	TypeStopExploration     MessageType = "stop_exploration"
	TypeStopExplorationAck  MessageType = "stop_exploration_ack"

	TypeListExplorations MessageType = "list_explorations"
	TypeExplorationList  MessageType = "exploration_list"
	TypeGetResult        MessageType = "get_result"
	TypeResult           MessageType = "result"

	TypeExplorationEvent MessageType = "exploration_event"
	TypeError            MessageType = "error"
)

// Envelope is the framing for every message in both directions.
type Envelope struct {
	Type      MessageType     `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func newEnvelope(t MessageType, requestID string, payload any) (*Envelope, error) {
	env := &Envelope{
		Type:      t,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		env.Payload = data
	}
	return env, nil
}

// NewRequest builds an envelope with a fresh request ID, expecting a
// response carrying the same ID.
func NewRequest(t MessageType, payload any) (*Envelope, error) {
	return newEnvelope(t, uuid.NewString(), payload)
}

// NewResponse builds a reply to the given request ID.
func NewResponse(requestID string, t MessageType, payload any) (*Envelope, error) {
	return newEnvelope(t, requestID, payload)
}

// NewEvent builds a one-way envelope with no request ID.
func NewEvent(t MessageType, payload any) (*Envelope, error) {
	return newEnvelope(t, "", payload)
}

// NewError builds an error reply.
func NewError(requestID, code, message string) (*Envelope, error) {
	return newEnvelope(TypeError, requestID, &ErrorPayload{Code: code, Message: message})
}

// DecodePayload unmarshals an envelope's payload into dst.
func DecodePayload(env *Envelope, dst any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", env.Type)
	}
	return json.Unmarshal(env.Payload, dst)
}

// =============================================================================
// Request / response payloads
// =============================================================================

type RegisterPayload struct {
	InstanceName string `json:"instanceName"`
	Version      string `json:"version"`
	Token        string `json:"token,omitempty"`
}

type RegisterAckPayload struct {
	Accepted   bool   `json:"accepted"`
	InstanceID string `json:"instanceId,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type HeartbeatAckPayload struct{}

type StartExplorationPayload struct {
	AppName          string `json:"appName"`
	Category         string `json:"category"`
	Persona          string `json:"persona"`
	CustomNavigation string `json:"customNavigation,omitempty"`
	MaxDepth         int    `json:"maxDepth,omitempty"`
	SaveToMemory     bool   `json:"saveToMemory,omitempty"`
}

type StartExplorationAckPayload struct {
	Accepted      bool   `json:"accepted"`
	ExplorationID string `json:"explorationId,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

type StopExplorationPayload struct {
	ExplorationID string `json:"explorationId"`
}

type StopExplorationAckPayload struct {
	Stopped bool   `json:"stopped"`
	Reason  string `json:"reason,omitempty"`
}

type ListExplorationsPayload struct {
	Category string `json:"category,omitempty"`
	Persona  string `json:"persona,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type ExplorationListPayload struct {
	Explorations []store.Exploration `json:"explorations"`
}

type GetResultPayload struct {
	ExplorationID string `json:"explorationId"`
}

type ResultPayload struct {
	Result *store.Result `json:"result"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// Exploration events
// =============================================================================

// EventType identifies the pipeline event inside an exploration_event
// envelope.
type EventType string

const (
	EventRunStarted   EventType = "run_started"
	EventProgress     EventType = "progress"
	EventStageChange  EventType = "stage_change"
	EventLog          EventType = "log"
	EventRunCompleted EventType = "run_completed"
)

type ExplorationEventPayload struct {
	ExplorationID string    `json:"explorationId"`
	EventType     EventType `json:"eventType"`
	Data          any       `json:"data,omitempty"`
}

type RunStartedData struct {
	AppName string `json:"appName"`
	Persona string `json:"persona"`
}

type ProgressData struct {
	Message string `json:"message"`
	Percent int    `json:"percent"`
}

type StageChangeData struct {
	Stage   int    `json:"stage"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type LogData struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type RunCompletedData struct {
	Status string `json:"status"`
}
