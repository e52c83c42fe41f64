package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionRequested EventType = "session_requested"
	EventSessionClaimed   EventType = "session_claimed"
	EventSessionEnded     EventType = "session_ended"
	EventQuestionAsked    EventType = "question_asked"
	EventQuestionAnswered EventType = "question_answered"
)

// ActorType distinguishes who triggered an event.
type ActorType string

const (
	ActorUser  ActorType = "user"
	ActorStaff ActorType = "staff"
	ActorAdmin ActorType = "admin"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    ActorType `json:"type"`
	UserID  int64     `json:"user_id,omitempty"`
	StaffID int64     `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by the dispatcher.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    int64       `json:"user_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionClaimedPayload payload.
type SessionClaimedPayload struct {
	StaffName string `json:"staff_name"`
}

// SessionEndedPayload payload.
type SessionEndedPayload struct {
	StaffName string `json:"staff_name,omitempty"`
	EndedBy   string `json:"ended_by"`
}

// QuestionAskedPayload payload.
type QuestionAskedPayload struct {
	QuestionID string `json:"question_id"`
}

// QuestionAnsweredPayload payload.
type QuestionAnsweredPayload struct {
	QuestionID string `json:"question_id"`
	StaffID    int64  `json:"staff_id"`
}
