package dispatch

import (
	"context"
	"strings"
	"testing"

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

type recordedSend struct {
	op     string
	target int64
	text   string
	action string
}

type fakeMessenger struct {
	sent   []recordedSend
	nextID int64
}

func (f *fakeMessenger) SendToUser(ctx context.Context, userID int64, content domain.Content) error {
	f.sent = append(f.sent, recordedSend{op: "sendUser", target: userID, text: content.Text})
	return nil
}

func (f *fakeMessenger) SendToTopic(ctx context.Context, topicID int64, content domain.Content) error {
	f.sent = append(f.sent, recordedSend{op: "sendTopic", target: topicID, text: content.Text})
	return nil
}

func (f *fakeMessenger) PostToTopic(ctx context.Context, topicID int64, text, action string) (int64, error) {
	f.nextID++
	f.sent = append(f.sent, recordedSend{op: "post", target: topicID, text: text, action: action})
	return f.nextID, nil
}

func (f *fakeMessenger) EditMessage(ctx context.Context, messageID int64, text string) error {
	f.sent = append(f.sent, recordedSend{op: "edit", target: messageID, text: text})
	return nil
}

func (f *fakeMessenger) EditMessageNoPreview(ctx context.Context, messageID int64, text string) error {
	f.sent = append(f.sent, recordedSend{op: "editNoPreview", target: messageID, text: text})
	return nil
}

func (f *fakeMessenger) RenameTopic(ctx context.Context, topicID int64, title string) error {
	f.sent = append(f.sent, recordedSend{op: "rename", target: topicID, text: title})
	return nil
}

func (f *fakeMessenger) userTexts(userID int64) []string {
	var out []string
	for _, s := range f.sent {
		if s.op == "sendUser" && s.target == userID {
			out = append(out, s.text)
		}
	}
	return out
}

type fakeDirectory struct {
	profiles  map[int64]*domain.Profile
	languages map[int64]domain.Language
}

func (f *fakeDirectory) Get(ctx context.Context, userID int64) (*domain.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, session.ErrNotFound
	}
	return p, nil
}

func (f *fakeDirectory) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	_, ok := f.profiles[userID]
	return ok, nil
}

func (f *fakeDirectory) SetLanguage(ctx context.Context, userID int64, lang domain.Language) error {
	f.languages[userID] = lang
	return nil
}

type fakeBans struct{}

func (fakeBans) IsBanned(ctx context.Context, userID int64) (bool, error) { return false, nil }

type fakeFAQ struct{}

func (fakeFAQ) Entries(lang domain.Language) []domain.FAQEntry {
	return []domain.FAQEntry{
		{Number: "1", Question: "Как зарегистрироваться?", Answer: "Через меню регистрации."},
	}
}

type fixture struct {
	dispatcher *Dispatcher
	messenger  *fakeMessenger
	registry   *session.Registry
	desk       *questions.Desk
	directory  *fakeDirectory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	registry := session.NewRegistry([]domain.StaffMember{
		{Name: "Aigerim", ChatID: 100, TopicID: 2},
		{Name: "Daniyar", ChatID: 200, TopicID: 4},
	})
	tracker := session.NewNotificationTracker()
	directory := &fakeDirectory{
		profiles: map[int64]*domain.Profile{
			1: {UserID: 1, FullName: "Olzhas", Language: domain.LanguageRU},
			2: {UserID: 2, FullName: "Dana", Language: domain.LanguageEN},
		},
		languages: make(map[int64]domain.Language),
	}
	machine := session.NewStateMachine(session.Dependencies{
		Registry: registry,
		Tracker:  tracker,
		Profiles: directory,
		Bans:     fakeBans{},
		Logger:   logger,
	})
	desk := questions.NewDesk(questions.DeskDependencies{
		Registry: registry,
		Profiles: directory,
		Bans:     fakeBans{},
		Topics:   questions.Topics{BroadcastTopicID: 10, ClaimTopicID: 11},
		Logger:   logger,
	})
	messenger := &fakeMessenger{}
	executor := transport.NewExecutor(messenger, tracker, 77, logger)

	dispatcher := NewDispatcher(Dependencies{
		Machine:  machine,
		Relay:    relay.New(registry, logger),
		Desk:     desk,
		Registry: registry,
		Profiles: directory,
		FAQ:      fakeFAQ{},
		Executor: executor,
		Events:   events.NewInMemoryDispatcher(),
		Metrics:  observability.NewMetrics(),
		Logger:   logger,
		AdminIDs: []int64{999},
		Queue:    8,
	})
	return &fixture{
		dispatcher: dispatcher,
		messenger:  messenger,
		registry:   registry,
		desk:       desk,
		directory:  directory,
	}
}

func TestChatCommandStartsWaiting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdChat})

	if !f.registry.IsWaiting(1) {
		t.Fatal("user should be waiting")
	}
	var sawNotification bool
	for _, s := range f.messenger.sent {
		if s.op == "post" && s.target == 77 && s.action == "connect_1" {
			sawNotification = true
		}
	}
	if !sawNotification {
		t.Fatalf("no claimable notification posted: %+v", f.messenger.sent)
	}
}

func TestClaimCallbackConnects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdChat})
	f.dispatcher.handle(ctx, StaffCallback{StaffChatID: 100, Action: ActionClaimSession, TargetID: "1"})

	if !f.registry.IsActive(1) {
		t.Fatal("user should be connected")
	}
	staffName, _ := f.registry.StaffFor(1)
	if staffName != "Aigerim" {
		t.Fatalf("staff = %q", staffName)
	}
}

func TestFullRelayRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdChat})
	f.dispatcher.handle(ctx, StaffCallback{StaffChatID: 100, Action: ActionClaimSession, TargetID: "1"})

	f.dispatcher.handle(ctx, UserMessage{UserID: 1, Content: domain.TextContent("нужна справка")})
	var relayedToTopic bool
	for _, s := range f.messenger.sent {
		if s.op == "sendTopic" && s.target == 2 && s.text == "нужна справка" {
			relayedToTopic = true
		}
	}
	if !relayedToTopic {
		t.Fatalf("user message not relayed: %+v", f.messenger.sent)
	}

	f.dispatcher.handle(ctx, StaffMessage{StaffChatID: 100, TopicID: 2, Content: domain.TextContent("сейчас помогу")})
	var relayedToUser bool
	for _, s := range f.messenger.sent {
		if s.op == "sendUser" && s.target == 1 && s.text == "сейчас помогу" {
			relayedToUser = true
		}
	}
	if !relayedToUser {
		t.Fatalf("staff message not relayed: %+v", f.messenger.sent)
	}

	f.dispatcher.handle(ctx, StaffMessage{StaffChatID: 100, TopicID: 2, Content: domain.TextContent("/stop")})
	if f.registry.Phase(1) != domain.PhaseDisconnectedByStaff {
		t.Fatalf("phase = %s", f.registry.Phase(1))
	}

	// Parked user must be told to restart, not relayed.
	before := len(f.messenger.sent)
	f.dispatcher.handle(ctx, UserMessage{UserID: 1, Content: domain.TextContent("ау")})
	after := f.messenger.sent[before:]
	if len(after) != 1 || after[0].op != "sendUser" {
		t.Fatalf("parked user handling = %+v", after)
	}
}

func TestStaleClaimNotifiesLoser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdChat})
	f.dispatcher.handle(ctx, StaffCallback{StaffChatID: 100, Action: ActionClaimSession, TargetID: "1"})
	f.dispatcher.handle(ctx, StaffCallback{StaffChatID: 200, Action: ActionClaimSession, TargetID: "1"})

	staffName, _ := f.registry.StaffFor(1)
	if staffName != "Aigerim" {
		t.Fatalf("winner changed: %q", staffName)
	}
	var loserNotice bool
	for _, s := range f.messenger.sent {
		if s.op == "post" && s.target == 4 && strings.Contains(s.text, "no longer waiting") {
			loserNotice = true
		}
	}
	if !loserNotice {
		t.Fatalf("loser not notified: %+v", f.messenger.sent)
	}
}

func TestStrayStaffMessageDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, StaffMessage{StaffChatID: 100, TopicID: 2, Content: domain.TextContent("кто здесь?")})
	if len(f.messenger.sent) != 0 {
		t.Fatalf("stray staff chatter must be dropped, sent %+v", f.messenger.sent)
	}
}

func TestLanguageSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdLanguage})
	f.dispatcher.handle(ctx, UserMessage{UserID: 1, Content: domain.TextContent("en")})

	if f.directory.languages[1] != domain.LanguageEN {
		t.Fatalf("language = %q", f.directory.languages[1])
	}

	// "kz" is accepted as an alias for Kazakh.
	f.dispatcher.handle(ctx, UserCommand{UserID: 2, Cmd: CmdLanguage})
	f.dispatcher.handle(ctx, UserMessage{UserID: 2, Content: domain.TextContent("KZ")})
	if f.directory.languages[2] != domain.LanguageKK {
		t.Fatalf("language = %q", f.directory.languages[2])
	}
}

func TestChatCommandSupersedesPendingPrompt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdLanguage})
	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdChat})
	f.dispatcher.handle(ctx, UserMessage{UserID: 1, Content: domain.TextContent("hello")})

	if _, set := f.directory.languages[1]; set {
		t.Fatal("message while waiting must not be consumed as a language choice")
	}
	texts := f.messenger.userTexts(1)
	want := text.Get(text.KeyWaitOrCancel, domain.LanguageRU)
	if len(texts) == 0 || texts[len(texts)-1] != want {
		t.Fatalf("texts = %v, want final %q", texts, want)
	}
}

func TestAskCommandSupersedesPendingPrompt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdFAQ})
	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdAsk})
	f.dispatcher.handle(ctx, UserMessage{UserID: 1, Content: domain.TextContent("Где деканат?")})

	question, ok := f.desk.Get("1")
	if !ok {
		t.Fatal("message after /ask must be recorded as a question")
	}
	if question.Content.Text != "Где деканат?" {
		t.Fatalf("question text = %q", question.Content.Text)
	}
}

func TestFAQFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdFAQ})
	f.dispatcher.handle(ctx, UserMessage{UserID: 1, Content: domain.TextContent("1")})

	texts := f.messenger.userTexts(1)
	if len(texts) != 2 {
		t.Fatalf("texts = %v", texts)
	}
	if !strings.Contains(texts[1], "Через меню регистрации.") {
		t.Fatalf("answer not delivered: %q", texts[1])
	}

	// Unknown number keeps the prompt open.
	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdFAQ})
	f.dispatcher.handle(ctx, UserMessage{UserID: 1, Content: domain.TextContent("42")})
	f.dispatcher.handle(ctx, UserMessage{UserID: 1, Content: domain.TextContent("1")})
	texts = f.messenger.userTexts(1)
	if !strings.Contains(texts[len(texts)-1], "Через меню регистрации.") {
		t.Fatalf("retry not honored: %q", texts[len(texts)-1])
	}
}

func TestQuestionFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdAsk})
	f.dispatcher.handle(ctx, UserMessage{UserID: 1, Content: domain.TextContent("Где деканат?")})

	question, ok := f.desk.Get("1")
	if !ok || question.AskerID != 1 {
		t.Fatalf("question = %+v, %v", question, ok)
	}

	f.dispatcher.handle(ctx, StaffCallback{StaffChatID: 100, Action: ActionClaimQuestion, TargetID: "1"})
	f.dispatcher.handle(ctx, StaffMessage{StaffChatID: 100, TopicID: 11, Content: domain.TextContent("Второй этаж.")})

	question, _ = f.desk.Get("1")
	if question.Status != domain.QuestionStatusAnswered {
		t.Fatalf("status = %s", question.Status)
	}
	texts := f.messenger.userTexts(1)
	last := texts[len(texts)-1]
	if !strings.Contains(last, "Второй этаж.") || !strings.Contains(last, "Aigerim") {
		t.Fatalf("answer text = %q", last)
	}
}

func TestStopClearsPromptInsteadOfSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdAsk})
	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdStop})

	// The prompt is gone; the next message is not recorded as a question.
	f.dispatcher.handle(ctx, UserMessage{UserID: 1, Content: domain.TextContent("Где деканат?")})
	if _, ok := f.desk.Get("1"); ok {
		t.Fatal("question must not be created after the prompt was cancelled")
	}
}

func TestAdminCommandRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, AdminCommand{AdminID: 1, Cmd: AdminList})
	texts := f.messenger.userTexts(1)
	if len(texts) != 1 || !strings.Contains(texts[0], "permission") {
		t.Fatalf("texts = %v", texts)
	}

	f.dispatcher.handle(ctx, AdminCommand{AdminID: 999, Cmd: AdminResult})
	adminTexts := f.messenger.userTexts(999)
	if len(adminTexts) != 1 || !strings.Contains(adminTexts[0], "Statistics") {
		t.Fatalf("admin texts = %v", adminTexts)
	}
}

func TestAdminDeleteChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.handle(ctx, UserCommand{UserID: 1, Cmd: CmdChat})
	f.dispatcher.handle(ctx, StaffCallback{StaffChatID: 100, Action: ActionClaimSession, TargetID: "1"})
	f.dispatcher.handle(ctx, AdminCommand{AdminID: 999, Cmd: AdminDelete, Args: []string{"chat", "1"}})

	if f.registry.Phase(1) != domain.PhaseIdle {
		t.Fatalf("phase = %s", f.registry.Phase(1))
	}
}

func TestSubmitQueueFull(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 8; i++ {
		if err := f.dispatcher.Submit(UserCommand{UserID: int64(i), Cmd: CmdStart}); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	if err := f.dispatcher.Submit(UserCommand{UserID: 9, Cmd: CmdStart}); err != ErrQueueFull {
		t.Fatalf("Submit on full queue = %v, want ErrQueueFull", err)
	}
}
