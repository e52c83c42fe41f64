// Package transport defines the outbound side-effect instructions the core
// emits as data, the Messenger interface the delivery collaborator must
// implement, and the Executor that performs instructions outside the core's
// critical sections.
package transport

import "github.com/spec-kit/support-relay/internal/domain"

// Instruction is an outbound side effect produced by a core transition. The
// core never performs I/O itself; it returns instructions for the Executor.
type Instruction interface {
	instruction()
}

// DeliverToUser forwards relayed content to the user's private chat.
type DeliverToUser struct {
	UserID  int64
	Content domain.Content
}

// DeliverToStaffTopic forwards relayed content into a staff member's topic.
type DeliverToStaffTopic struct {
	TopicID int64
	Content domain.Content
}

// CreateNotification posts the message advertising a pending session to the
// notification topic. Action carries the claim callback payload. The Executor
// records the resulting message id in the notification tracker.
type CreateNotification struct {
	UserID int64
	Text   string
	Action string
}

// UpdateNotification edits a previously created notification in place.
type UpdateNotification struct {
	UserID    int64
	MessageID int64
	Text      string
}

// CloseNotification edits a notification to its closed form. MessageID of
// zero means the tracker held no entry and only a fresh closed notice is
// posted.
type CloseNotification struct {
	UserID    int64
	MessageID int64
	Text      string
}

// RenameTopic retitles a staff member's topic to reflect open/busy status.
type RenameTopic struct {
	TopicID int64
	Title   string
}

// NotifyStaff posts a service notice into a topic. Action, when set, attaches
// an actionable affordance (e.g. a question claim button).
type NotifyStaff struct {
	TopicID int64
	Text    string
	Action  string
}

// NotifyUser posts a service notice to the user's private chat.
type NotifyUser struct {
	UserID int64
	Text   string
}

func (DeliverToUser) instruction()       {}
func (DeliverToStaffTopic) instruction() {}
func (CreateNotification) instruction()  {}
func (UpdateNotification) instruction()  {}
func (CloseNotification) instruction()   {}
func (RenameTopic) instruction()         {}
func (NotifyStaff) instruction()         {}
func (NotifyUser) instruction()          {}
