package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientCommand   MessageType = "client_command"
	TypeClientControl   MessageType = "client_control"
	TypeCommandAccepted MessageType = "command_accepted"
	TypeIntentResolved  MessageType = "intent_resolved"
	TypeCommandResult   MessageType = "command_result"
	TypeSpeechState     MessageType = "speech_state"
	TypeErrorEvent      MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientCommand is a text command submitted over the websocket.
type ClientCommand struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
}

// ClientControl carries speech controls: interrupt, resume, volume_up,
// volume_down, rate_up, rate_down.
type ClientControl struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Action    string      `json:"action"`
}

// CommandAccepted acknowledges a submitted command before processing.
type CommandAccepted struct {
	Type      MessageType `json:"type"`
	CommandID string      `json:"command_id"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
}

// IntentResolved reports the classifier's verdict for a command.
type IntentResolved struct {
	Type      MessageType    `json:"type"`
	CommandID string         `json:"command_id"`
	Category  string         `json:"category"`
	Action    string         `json:"action"`
	Params    map[string]any `json:"params,omitempty"`
}

// CommandResult carries the spoken response after execution.
type CommandResult struct {
	Type      MessageType `json:"type"`
	CommandID string      `json:"command_id"`
	Response  string      `json:"response"`
	TSMs      int64       `json:"ts_ms"`
}

// SpeechState mirrors the speech controller after every transition.
type SpeechState struct {
	Type     MessageType `json:"type"`
	Speaking bool        `json:"speaking"`
	Paused   bool        `json:"paused"`
	Volume   float64     `json:"volume"`
	Rate     int         `json:"rate"`
	Queued   int         `json:"queued"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	CommandID string      `json:"command_id,omitempty"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail"`
}

// NewCommandResult stamps the result with the current wall clock.
func NewCommandResult(commandID, response string) CommandResult {
	return CommandResult{
		Type:      TypeCommandResult,
		CommandID: commandID,
		Response:  response,
		TSMs:      time.Now().UnixMilli(),
	}
}

// ParseClientMessage validates inbound websocket payloads.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientCommand:
		var msg ClientCommand
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Text == "" {
			return nil, errors.New("invalid client_command")
		}
		return msg, nil
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Action == "" {
			return nil, errors.New("invalid client_control")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
