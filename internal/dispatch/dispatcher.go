// Package dispatch owns the single-threaded event loop that serializes every
// registry and desk mutation. One inbound event is fully processed before the
// next begins; the side-effect instructions a handler returns are executed
// after the handler, outside any core lock, so no network I/O ever happens
// inside a critical section.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-relay/internal/domain"
	"github.com/spec-kit/support-relay/internal/events"
	"github.com/spec-kit/support-relay/internal/observability"
	"github.com/spec-kit/support-relay/internal/questions"
	"github.com/spec-kit/support-relay/internal/relay"
	"github.com/spec-kit/support-relay/internal/session"
	"github.com/spec-kit/support-relay/internal/text"
	"github.com/spec-kit/support-relay/internal/transport"
)

// ErrQueueFull is returned by Submit when the inbound queue is saturated.
var ErrQueueFull = errors.New("inbound queue is full")

// ProfileDirectory extends the read-only profile collaborator with the
// language preference write used by the language command.
type ProfileDirectory interface {
	session.ProfileStore
	SetLanguage(ctx context.Context, userID int64, lang domain.Language) error
}

// FAQSource supplies localized FAQ entries.
type FAQSource interface {
	Entries(lang domain.Language) []domain.FAQEntry
}

// Dispatcher consumes the ordered inbound queue on a single goroutine.
type Dispatcher struct {
	queue chan InboundEvent

	machine  *session.StateMachine
	relay    *relay.Relay
	desk     *questions.Desk
	registry *session.Registry
	profiles ProfileDirectory
	faq      FAQSource
	executor *transport.Executor
	events   events.Dispatcher
	metrics  *observability.Metrics
	logger   *zap.Logger
	adminIDs map[int64]bool

	// Conversational prompt state, touched only by the loop goroutine.
	askPending    map[int64]bool
	langPending   map[int64]bool
	faqPending    map[int64]bool
	answerPending map[int64]string // staff chat id -> question id
}

// Dependencies bundles the dispatcher collaborators.
type Dependencies struct {
	Machine  *session.StateMachine
	Relay    *relay.Relay
	Desk     *questions.Desk
	Registry *session.Registry
	Profiles ProfileDirectory
	FAQ      FAQSource
	Executor *transport.Executor
	Events   events.Dispatcher
	Metrics  *observability.Metrics
	Logger   *zap.Logger
	AdminIDs []int64
	Queue    int
}

// NewDispatcher creates the dispatcher with a bounded inbound queue.
func NewDispatcher(deps Dependencies) *Dispatcher {
	queueSize := deps.Queue
	if queueSize <= 0 {
		queueSize = 256
	}
	adminIDs := make(map[int64]bool, len(deps.AdminIDs))
	for _, id := range deps.AdminIDs {
		adminIDs[id] = true
	}
	return &Dispatcher{
		queue:         make(chan InboundEvent, queueSize),
		machine:       deps.Machine,
		relay:         deps.Relay,
		desk:          deps.Desk,
		registry:      deps.Registry,
		profiles:      deps.Profiles,
		faq:           deps.FAQ,
		executor:      deps.Executor,
		events:        deps.Events,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		adminIDs:      adminIDs,
		askPending:    make(map[int64]bool),
		langPending:   make(map[int64]bool),
		faqPending:    make(map[int64]bool),
		answerPending: make(map[int64]string),
	}
}

// Submit enqueues an inbound event without blocking.
func (d *Dispatcher) Submit(event InboundEvent) error {
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run consumes the queue until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatch loop started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatch loop stopped")
			return
		case event := <-d.queue:
			d.handle(ctx, event)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, event InboundEvent) {
	switch ev := event.(type) {
	case UserCommand:
		d.handleUserCommand(ctx, ev)
	case UserMessage:
		d.handleUserMessage(ctx, ev)
	case StaffMessage:
		d.handleStaffMessage(ctx, ev)
	case StaffCallback:
		d.handleStaffCallback(ctx, ev)
	case AdminCommand:
		d.handleAdminCommand(ctx, ev)
	}
}

func (d *Dispatcher) handleUserCommand(ctx context.Context, cmd UserCommand) {
	userID := cmd.UserID
	lang := d.languageOf(ctx, userID)

	switch cmd.Cmd {
	case CmdStart:
		d.clearPrompts(userID)
		d.machine.Restart(userID)
		d.notifyUser(ctx, userID, text.Get(text.KeyWelcome, lang))

	case CmdChat:
		instructions, err := d.machine.StartWaiting(ctx, userID)
		if err != nil {
			d.notifyUser(ctx, userID, d.startNotice(err, lang))
			return
		}
		// Entering the waiting state supersedes any prompt still armed for
		// this user; the next message must hit the waiting-state rules.
		d.clearPrompts(userID)
		d.metrics.RecordTransition("start_waiting")
		d.executor.Execute(ctx, instructions)
		d.publish(ctx, events.EventSessionRequested, userID, events.Actor{Type: events.ActorUser, UserID: userID}, nil)

	case CmdStop:
		if d.clearPrompts(userID) {
			d.notifyUser(ctx, userID, text.Get(text.KeySelectOption, lang))
			return
		}
		instructions, err := d.machine.UserDisconnect(ctx, userID)
		if err != nil {
			d.notifyUser(ctx, userID, text.Get(text.KeyNothingToStop, lang))
			return
		}
		d.metrics.RecordTransition("user_disconnect")
		d.executor.Execute(ctx, instructions)
		d.publish(ctx, events.EventSessionEnded, userID,
			events.Actor{Type: events.ActorUser, UserID: userID},
			events.SessionEndedPayload{EndedBy: "user"})

	case CmdAsk:
		switch d.registry.Phase(userID) {
		case domain.PhaseWaiting, domain.PhaseConnected:
			d.notifyUser(ctx, userID, text.Get(text.KeyExitChatFirst, lang))
			return
		}
		d.clearPrompts(userID)
		d.askPending[userID] = true
		d.notifyUser(ctx, userID, text.Get(text.KeyAskQuestion, lang))

	case CmdLanguage:
		d.clearPrompts(userID)
		d.langPending[userID] = true
		d.notifyUser(ctx, userID, text.Get(text.KeySelectLanguage, lang))

	case CmdFAQ:
		entries := d.faq.Entries(lang)
		var b strings.Builder
		b.WriteString(text.Get(text.KeyFAQTitle, lang))
		for _, entry := range entries {
			fmt.Fprintf(&b, "\n%s. %s", entry.Number, entry.Question)
		}
		b.WriteString("\n\n" + text.Get(text.KeyFAQPrompt, lang))
		d.clearPrompts(userID)
		d.faqPending[userID] = true
		d.notifyUser(ctx, userID, b.String())
	}
}

func (d *Dispatcher) handleUserMessage(ctx context.Context, msg UserMessage) {
	userID := msg.UserID
	lang := d.languageOf(ctx, userID)

	if d.langPending[userID] {
		d.handleLanguageChoice(ctx, msg)
		return
	}
	if d.faqPending[userID] {
		d.handleFAQChoice(ctx, msg, lang)
		return
	}
	if d.askPending[userID] {
		delete(d.askPending, userID)
		id, instructions, err := d.desk.Ask(ctx, userID, msg.Content)
		if err != nil {
			d.notifyUser(ctx, userID, d.askNotice(err, lang))
			return
		}
		d.metrics.RecordTransition("question_asked")
		d.executor.Execute(ctx, instructions)
		d.publish(ctx, events.EventQuestionAsked, userID,
			events.Actor{Type: events.ActorUser, UserID: userID},
			events.QuestionAskedPayload{QuestionID: id})
		return
	}

	instruction, err := d.relay.Relay(relay.RoleUser, userID, msg.Content)
	switch {
	case err == nil:
		d.metrics.RecordRelay("user_to_staff")
		d.executor.Execute(ctx, []transport.Instruction{instruction})
	case errors.Is(err, session.ErrNotWaiting):
		// A waiting user may only cancel; anything else is rejected, not
		// forwarded and not swallowed.
		d.notifyUser(ctx, userID, text.Get(text.KeyWaitOrCancel, lang))
	case errors.Is(err, session.ErrRestartRequired):
		d.notifyUser(ctx, userID, text.Get(text.KeyRestartRequired, lang))
	case errors.Is(err, session.ErrStaffRosterInconsistency):
		d.executor.Execute(ctx, d.machine.Teardown(ctx, userID, err))
	default:
		d.notifyUser(ctx, userID, text.Get(text.KeySelectOption, lang))
	}
}

func (d *Dispatcher) handleLanguageChoice(ctx context.Context, msg UserMessage) {
	userID := msg.UserID
	lang, ok := text.ParseLanguage(strings.TrimSpace(strings.ToLower(msg.Content.Text)))
	if !ok {
		d.notifyUser(ctx, userID, text.Get(text.KeySelectLanguage, d.languageOf(ctx, userID)))
		return
	}
	delete(d.langPending, userID)
	if err := d.profiles.SetLanguage(ctx, userID, lang); err != nil {
		d.logger.Warn("language update failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	d.notifyUser(ctx, userID, text.Get(text.KeyLanguageSelected, lang))
}

func (d *Dispatcher) handleFAQChoice(ctx context.Context, msg UserMessage, lang domain.Language) {
	userID := msg.UserID
	number := strings.TrimSpace(msg.Content.Text)
	for _, entry := range d.faq.Entries(lang) {
		if entry.Number == number {
			delete(d.faqPending, userID)
			d.notifyUser(ctx, userID, entry.Question+"\n\n"+entry.Answer)
			return
		}
	}
	d.notifyUser(ctx, userID, text.Get(text.KeyFAQNotFound, lang))
}

func (d *Dispatcher) handleStaffMessage(ctx context.Context, msg StaffMessage) {
	staffChatID := msg.StaffChatID

	if msg.Content.Kind == domain.ContentText && strings.TrimSpace(msg.Content.Text) == "/stop" {
		instructions, err := d.machine.StaffDisconnect(ctx, staffChatID)
		switch {
		case err == nil:
			d.metrics.RecordTransition("staff_disconnect")
			d.executor.Execute(ctx, instructions)
			d.publish(ctx, events.EventSessionEnded, 0,
				events.Actor{Type: events.ActorStaff, StaffID: staffChatID},
				events.SessionEndedPayload{EndedBy: "staff"})
		case errors.Is(err, session.ErrNoBinding):
			// Stray staff chatter outside an active session is dropped.
			d.logger.Debug("staff stop without binding", zap.Int64("staff_chat_id", staffChatID))
		default:
			d.executor.Execute(ctx, instructions)
		}
		return
	}

	if questionID, ok := d.answerPending[staffChatID]; ok {
		delete(d.answerPending, staffChatID)
		staffName := d.staffNameOf(staffChatID)
		instructions, err := d.desk.Answer(staffChatID, questionID, staffName, msg.Content)
		if err != nil {
			d.notifyTopic(ctx, msg.TopicID, d.answerNotice(err, questionID))
			return
		}
		d.metrics.RecordTransition("question_answered")
		d.executor.Execute(ctx, instructions)
		d.publish(ctx, events.EventQuestionAnswered, 0,
			events.Actor{Type: events.ActorStaff, StaffID: staffChatID},
			events.QuestionAnsweredPayload{QuestionID: questionID, StaffID: staffChatID})
		return
	}

	instruction, err := d.relay.Relay(relay.RoleStaff, staffChatID, msg.Content)
	switch {
	case err == nil:
		d.metrics.RecordRelay("staff_to_user")
		d.executor.Execute(ctx, []transport.Instruction{instruction})
	case errors.Is(err, session.ErrNoBinding):
		d.logger.Debug("staff message without binding dropped", zap.Int64("staff_chat_id", staffChatID))
	case errors.Is(err, session.ErrInconsistentBinding), errors.Is(err, session.ErrStaffRosterInconsistency):
		if userID, ok := d.registry.UserFor(staffChatID); ok {
			d.executor.Execute(ctx, d.machine.Teardown(ctx, userID, err))
		}
		d.notifyTopic(ctx, msg.TopicID, "The link was broken and the session has been closed.")
	}
}

func (d *Dispatcher) handleStaffCallback(ctx context.Context, cb StaffCallback) {
	switch cb.Action {
	case ActionClaimSession:
		userID, err := strconv.ParseInt(cb.TargetID, 10, 64)
		if err != nil {
			d.logger.Warn("malformed claim target", zap.String("target", cb.TargetID))
			return
		}
		instructions, err := d.machine.Claim(ctx, cb.StaffChatID, userID)
		switch {
		case err == nil:
			d.metrics.RecordTransition("claim")
			d.executor.Execute(ctx, instructions)
			staffName := d.staffNameOf(cb.StaffChatID)
			d.publish(ctx, events.EventSessionClaimed, userID,
				events.Actor{Type: events.ActorStaff, StaffID: cb.StaffChatID},
				events.SessionClaimedPayload{StaffName: staffName})
		case errors.Is(err, session.ErrNotWaiting):
			// Stale claim affordance: close what is left and tell the
			// claimant; never crash.
			d.executor.Execute(ctx, instructions)
			if staff, ok := d.registry.StaffByChat(cb.StaffChatID); ok {
				d.notifyTopic(ctx, staff.TopicID, "The user is no longer waiting for a connection.")
			}
		case errors.Is(err, session.ErrUnknownStaff):
			d.logger.Info("claim from unknown staff chat", zap.Int64("staff_chat_id", cb.StaffChatID))
		default:
			d.logger.Error("claim failed", zap.Error(err))
		}

	case ActionClaimQuestion:
		if _, ok := d.registry.StaffByChat(cb.StaffChatID); !ok && !d.adminIDs[cb.StaffChatID] {
			d.logger.Info("question claim from unknown staff chat", zap.Int64("staff_chat_id", cb.StaffChatID))
			return
		}
		instructions, err := d.desk.Claim(cb.StaffChatID, cb.TargetID)
		if err != nil {
			if staff, ok := d.registry.StaffByChat(cb.StaffChatID); ok {
				d.notifyTopic(ctx, staff.TopicID, d.claimNotice(err, cb.TargetID))
			}
			return
		}
		d.answerPending[cb.StaffChatID] = cb.TargetID
		d.executor.Execute(ctx, instructions)
	}
}

func (d *Dispatcher) handleAdminCommand(ctx context.Context, cmd AdminCommand) {
	if !d.adminIDs[cmd.AdminID] {
		d.logger.Info("admin command from non-admin", zap.Int64("user_id", cmd.AdminID))
		d.notifyUser(ctx, cmd.AdminID, "You do not have permission to use this command.")
		return
	}

	switch cmd.Cmd {
	case AdminList:
		d.notifyUser(ctx, cmd.AdminID, d.buildListReport(ctx))
	case AdminResult:
		d.notifyUser(ctx, cmd.AdminID, d.buildResultReport())
	case AdminDelete:
		d.handleAdminDelete(ctx, cmd)
	}
}

func (d *Dispatcher) handleAdminDelete(ctx context.Context, cmd AdminCommand) {
	if len(cmd.Args) != 2 {
		d.notifyUser(ctx, cmd.AdminID, "Usage:\n/delete question <id>\n/delete chat <id>")
		return
	}
	kind, target := cmd.Args[0], cmd.Args[1]

	switch kind {
	case "question":
		if err := d.desk.Delete(target); err != nil {
			d.notifyUser(ctx, cmd.AdminID, fmt.Sprintf("Question #%s not found", target))
			return
		}
		d.notifyUser(ctx, cmd.AdminID, fmt.Sprintf("Question #%s deleted", target))

	case "chat":
		userID, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			d.notifyUser(ctx, cmd.AdminID, fmt.Sprintf("Invalid user id %q", target))
			return
		}
		instructions, err := d.machine.ForceDisconnect(ctx, userID)
		if err != nil {
			d.notifyUser(ctx, cmd.AdminID, fmt.Sprintf("No chat or waiting entry for user %d", userID))
			return
		}
		d.metrics.RecordTransition("force_disconnect")
		d.executor.Execute(ctx, instructions)
		d.publish(ctx, events.EventSessionEnded, userID,
			events.Actor{Type: events.ActorAdmin, UserID: cmd.AdminID},
			events.SessionEndedPayload{EndedBy: "admin"})
		d.notifyUser(ctx, cmd.AdminID, fmt.Sprintf("Session with user %d deleted", userID))

	default:
		d.notifyUser(ctx, cmd.AdminID, "Usage:\n/delete question <id>\n/delete chat <id>")
	}
}

func (d *Dispatcher) buildListReport(ctx context.Context) string {
	var b strings.Builder

	b.WriteString("Active chats:\n")
	active := d.registry.ActiveSessions()
	if len(active) == 0 {
		b.WriteString("none\n")
	}
	for _, s := range active {
		profile, _ := d.profiles.Get(ctx, s.UserID)
		name := ""
		if profile != nil {
			name = profile.FullName
		}
		fmt.Fprintf(&b, "ID: %d\nName: %s\nStaff: %s\n", s.UserID, name, s.StaffName)
	}

	b.WriteString("\nWaiting users:\n")
	waiting := d.registry.WaitingUsers()
	if len(waiting) == 0 {
		b.WriteString("none\n")
	}
	for _, userID := range waiting {
		profile, _ := d.profiles.Get(ctx, userID)
		name := ""
		if profile != nil {
			name = profile.FullName
		}
		fmt.Fprintf(&b, "ID: %d\nName: %s\n", userID, name)
	}

	b.WriteString("\nPending questions:\n")
	pending := d.desk.Pending()
	if len(pending) == 0 {
		b.WriteString("none")
	}
	for _, q := range pending {
		fmt.Fprintf(&b, "ID: %s\nFrom: %s\nCourse: %s\nFaculty: %s\nGroup: %s\n",
			q.ID, q.Profile.FullName, q.Profile.Course, q.Profile.Faculty, q.Profile.Group)
	}
	return b.String()
}

func (d *Dispatcher) buildResultReport() string {
	stats := d.desk.Snapshot()
	return fmt.Sprintf("Statistics:\nTotal questions: %d\nAnswered questions: %d\nActive chats: %d\nWaiting users: %d",
		stats.Total, stats.Answered,
		len(d.registry.ActiveSessions()), len(d.registry.WaitingUsers()))
}

func (d *Dispatcher) startNotice(err error, lang domain.Language) string {
	switch {
	case errors.Is(err, session.ErrBanned):
		return text.Get(text.KeyBannedUser, lang)
	case errors.Is(err, session.ErrNotRegistered):
		return text.Get(text.KeyRegisterFirst, lang)
	case errors.Is(err, session.ErrAlreadyActive):
		return text.Get(text.KeyAlreadyInChat, lang)
	}
	return text.Get(text.KeySelectOption, lang)
}

func (d *Dispatcher) askNotice(err error, lang domain.Language) string {
	switch {
	case errors.Is(err, questions.ErrBanned):
		return text.Get(text.KeyBannedUser, lang)
	case errors.Is(err, questions.ErrNotRegistered):
		return text.Get(text.KeyRegisterFirst, lang)
	case errors.Is(err, questions.ErrInChat):
		return text.Get(text.KeyExitChatFirst, lang)
	}
	return text.Get(text.KeySelectOption, lang)
}

func (d *Dispatcher) claimNotice(err error, questionID string) string {
	switch {
	case errors.Is(err, questions.ErrQuestionNotFound):
		return fmt.Sprintf("Question #%s not found.", questionID)
	case errors.Is(err, questions.ErrQuestionAnswered):
		return fmt.Sprintf("Question #%s has already been answered.", questionID)
	case errors.Is(err, questions.ErrQuestionClaimed):
		return fmt.Sprintf("Question #%s is already being handled by someone else.", questionID)
	}
	return "The question could not be claimed."
}

func (d *Dispatcher) answerNotice(err error, questionID string) string {
	switch {
	case errors.Is(err, questions.ErrQuestionNotFound):
		return fmt.Sprintf("Question #%s not found.", questionID)
	case errors.Is(err, questions.ErrWrongClaimant):
		return "You cannot answer this question."
	case errors.Is(err, questions.ErrQuestionAnswered):
		return fmt.Sprintf("Question #%s has already been answered.", questionID)
	}
	return "The answer could not be sent."
}

func (d *Dispatcher) clearPrompts(userID int64) bool {
	cleared := d.askPending[userID] || d.langPending[userID] || d.faqPending[userID]
	delete(d.askPending, userID)
	delete(d.langPending, userID)
	delete(d.faqPending, userID)
	return cleared
}

func (d *Dispatcher) notifyUser(ctx context.Context, userID int64, message string) {
	d.executor.Execute(ctx, []transport.Instruction{
		transport.NotifyUser{UserID: userID, Text: message},
	})
}

func (d *Dispatcher) notifyTopic(ctx context.Context, topicID int64, message string) {
	d.executor.Execute(ctx, []transport.Instruction{
		transport.NotifyStaff{TopicID: topicID, Text: message},
	})
}

func (d *Dispatcher) staffNameOf(staffChatID int64) string {
	if staff, ok := d.registry.StaffByChat(staffChatID); ok {
		return staff.Name
	}
	return "Staff"
}

func (d *Dispatcher) languageOf(ctx context.Context, userID int64) domain.Language {
	profile, err := d.profiles.Get(ctx, userID)
	if err != nil || profile == nil || profile.Language == "" {
		return domain.LanguageRU
	}
	return profile.Language
}

func (d *Dispatcher) publish(ctx context.Context, eventType events.EventType, userID int64, actor events.Actor, payload interface{}) {
	if d.events == nil {
		return
	}
	_ = d.events.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Actor:     actor,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
