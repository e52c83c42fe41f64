package dispatch

import "github.com/spec-kit/support-relay/internal/domain"

// Command enumerates the user-issued commands the dispatcher understands.
type Command string

const (
	CmdStart    Command = "start"
	CmdStop     Command = "stop"
	CmdChat     Command = "chat"
	CmdAsk      Command = "ask"
	CmdLanguage Command = "language"
	CmdFAQ      Command = "faq"
)

// Callback actions arriving from the staff side.
const (
	ActionClaimSession  = "connect"
	ActionClaimQuestion = "answer_question"
)

// AdminCmd enumerates administrative commands.
type AdminCmd string

const (
	AdminList   AdminCmd = "list"
	AdminResult AdminCmd = "result"
	AdminDelete AdminCmd = "delete"
)

// InboundEvent is one unit of work for the dispatch loop.
type InboundEvent interface {
	inbound()
}

// UserMessage is free-form content from a user's private chat.
type UserMessage struct {
	UserID  int64
	Content domain.Content
}

// UserCommand is a recognized command from a user's private chat.
type UserCommand struct {
	UserID int64
	Cmd    Command
}

// StaffMessage is content posted by a staff member inside their topic.
type StaffMessage struct {
	StaffChatID int64
	TopicID     int64
	Content     domain.Content
}

// StaffCallback is a tap on an actionable affordance by a staff member.
type StaffCallback struct {
	StaffChatID int64
	Action      string
	TargetID    string
}

// AdminCommand is an administrative command with its arguments.
type AdminCommand struct {
	AdminID int64
	Cmd     AdminCmd
	Args    []string
}

func (UserMessage) inbound()   {}
func (UserCommand) inbound()   {}
func (StaffMessage) inbound()  {}
func (StaffCallback) inbound() {}
func (AdminCommand) inbound()  {}
