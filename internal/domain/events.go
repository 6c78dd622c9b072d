package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WebhookEventType discriminates inbound call/chat provider events.
type WebhookEventType string

const (
	EventCallSessionStarted     WebhookEventType = "call.session_started"
	EventCallParticipantLeft    WebhookEventType = "call.session_participant_left"
	EventCallSessionEnded       WebhookEventType = "call.session_ended"
	EventCallTranscriptionReady WebhookEventType = "call.transcription_ready"
	EventCallRecordingReady     WebhookEventType = "call.recording_ready"
	EventMessageNew             WebhookEventType = "message.new"
)

// WebhookEvent is the decoded, validated form of one provider event.
// Each concrete event type validates its own required fields, so handlers
// never re-check payload shape.
type WebhookEvent interface {
	EventType() WebhookEventType
}

// CallCustom carries the application metadata attached to a call room.
type CallCustom struct {
	MeetingID string `json:"meetingId"`
}

// CallInfo is the call object embedded in session lifecycle events.
type CallInfo struct {
	Custom CallCustom `json:"custom"`
}

// CallSessionStartedEvent signals that a call session began.
type CallSessionStartedEvent struct {
	Call CallInfo `json:"call"`
}

func (CallSessionStartedEvent) EventType() WebhookEventType { return EventCallSessionStarted }

// CallParticipantLeftEvent signals that a human participant left the call.
type CallParticipantLeftEvent struct {
	CallCID string `json:"call_cid"`
}

func (CallParticipantLeftEvent) EventType() WebhookEventType { return EventCallParticipantLeft }

// CallSessionEndedEvent signals that the call session ended.
type CallSessionEndedEvent struct {
	Call CallInfo `json:"call"`
}

func (CallSessionEndedEvent) EventType() WebhookEventType { return EventCallSessionEnded }

// CallTranscriptionReadyEvent carries the URL of a finished transcript artifact.
type CallTranscriptionReadyEvent struct {
	CallCID           string `json:"call_cid"`
	CallTranscription struct {
		URL string `json:"url"`
	} `json:"call_transcription"`
}

func (CallTranscriptionReadyEvent) EventType() WebhookEventType { return EventCallTranscriptionReady }

// CallRecordingReadyEvent carries the URL of a finished call recording.
type CallRecordingReadyEvent struct {
	CallCID       string `json:"call_cid"`
	CallRecording struct {
		URL string `json:"url"`
	} `json:"call_recording"`
}

func (CallRecordingReadyEvent) EventType() WebhookEventType { return EventCallRecordingReady }

// MessageNewEvent signals a new chat message on a meeting's channel.
type MessageNewEvent struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	ChannelID string `json:"channel_id"`
	Message   struct {
		Text string `json:"text"`
	} `json:"message"`
}

func (MessageNewEvent) EventType() WebhookEventType { return EventMessageNew }

// MeetingIDFromCID extracts the meeting id from a "callType:meetingId"
// call cid. Returns an empty string when the cid has no id segment.
func MeetingIDFromCID(cid string) string {
	parts := strings.SplitN(cid, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// DecodeWebhookEvent parses a raw webhook body into its typed event.
// Unknown event types return (nil, nil): the provider sends more event
// kinds than this service handles, and those must be acknowledged as
// no-ops rather than rejected. Known types with missing required fields
// return a ValidationError.
func DecodeWebhookEvent(body []byte) (WebhookEvent, error) {
	var envelope struct {
		Type WebhookEventType `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, NewValidationError("invalid JSON payload")
	}
	if envelope.Type == "" {
		return nil, NewValidationError("missing event type")
	}

	switch envelope.Type {
	case EventCallSessionStarted:
		var event CallSessionStartedEvent
		if err := decodeEvent(body, &event); err != nil {
			return nil, err
		}
		if event.Call.Custom.MeetingID == "" {
			return nil, NewValidationError("missing meetingId")
		}
		return &event, nil

	case EventCallParticipantLeft:
		var event CallParticipantLeftEvent
		if err := decodeEvent(body, &event); err != nil {
			return nil, err
		}
		if MeetingIDFromCID(event.CallCID) == "" {
			return nil, NewValidationError("missing meetingId")
		}
		return &event, nil

	case EventCallSessionEnded:
		var event CallSessionEndedEvent
		if err := decodeEvent(body, &event); err != nil {
			return nil, err
		}
		if event.Call.Custom.MeetingID == "" {
			return nil, NewValidationError("missing meetingId")
		}
		return &event, nil

	case EventCallTranscriptionReady:
		var event CallTranscriptionReadyEvent
		if err := decodeEvent(body, &event); err != nil {
			return nil, err
		}
		if MeetingIDFromCID(event.CallCID) == "" {
			return nil, NewValidationError("missing meetingId")
		}
		if event.CallTranscription.URL == "" {
			return nil, NewValidationError("missing transcription url")
		}
		return &event, nil

	case EventCallRecordingReady:
		var event CallRecordingReadyEvent
		if err := decodeEvent(body, &event); err != nil {
			return nil, err
		}
		if MeetingIDFromCID(event.CallCID) == "" {
			return nil, NewValidationError("missing meetingId")
		}
		if event.CallRecording.URL == "" {
			return nil, NewValidationError("missing recording url")
		}
		return &event, nil

	case EventMessageNew:
		var event MessageNewEvent
		if err := decodeEvent(body, &event); err != nil {
			return nil, err
		}
		if event.User.ID == "" || event.ChannelID == "" || event.Message.Text == "" {
			return nil, NewValidationError("missing required fields")
		}
		return &event, nil
	}

	return nil, nil
}

func decodeEvent(body []byte, target WebhookEvent) error {
	if err := json.Unmarshal(body, target); err != nil {
		return NewValidationError(fmt.Sprintf("malformed %s payload", target.EventType()))
	}
	return nil
}
