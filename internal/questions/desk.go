// Package questions implements the one-shot ask/claim/answer flow. It shares
// the staff roster and notification idioms with the session core but each
// request is claimed and answered exactly once instead of opening a
// continuous relay.
package questions

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-relay/internal/domain"
	"github.com/spec-kit/support-relay/internal/session"
	"github.com/spec-kit/support-relay/internal/text"
	"github.com/spec-kit/support-relay/internal/transport"
)

// Topics carries the two staff-side topics the desk posts into: a read-only
// broadcast copy and a claimable copy.
type Topics struct {
	BroadcastTopicID int64
	ClaimTopicID     int64
}

// Stats is the counters snapshot for the admin surface.
type Stats struct {
	Total    int
	Pending  int
	Answered int
}

// Desk owns the question store. Ids come from a strictly increasing
// in-memory counter starting at 1 and are never reused, even after deletion.
// The counter resets on process restart; ids are not durable.
type Desk struct {
	mu        sync.Mutex
	questions map[string]*domain.Question
	nextID    int64

	registry *session.Registry
	profiles session.ProfileStore
	bans     session.BanList
	topics   Topics
	logger   *zap.Logger
}

// DeskDependencies bundles the desk collaborators.
type DeskDependencies struct {
	Registry *session.Registry
	Profiles session.ProfileStore
	Bans     session.BanList
	Topics   Topics
	Logger   *zap.Logger
}

// NewDesk creates the desk.
func NewDesk(deps DeskDependencies) *Desk {
	return &Desk{
		questions: make(map[string]*domain.Question),
		nextID:    1,
		registry:  deps.Registry,
		profiles:  deps.Profiles,
		bans:      deps.Bans,
		topics:    deps.Topics,
		logger:    deps.Logger,
	}
}

// Ask stores a new pending question and advertises it to the staff side:
// a broadcast copy, a claimable copy, and a receipt to the asker.
func (d *Desk) Ask(ctx context.Context, userID int64, content domain.Content) (string, []transport.Instruction, error) {
	if banned, err := d.bans.IsBanned(ctx, userID); err == nil && banned {
		return "", nil, ErrBanned
	}
	registered, err := d.profiles.IsRegistered(ctx, userID)
	if err != nil {
		d.logger.Warn("registration check failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	if !registered {
		return "", nil, ErrNotRegistered
	}
	switch d.registry.Phase(userID) {
	case domain.PhaseWaiting, domain.PhaseConnected:
		return "", nil, ErrInChat
	}

	profile := d.profileOf(ctx, userID)

	d.mu.Lock()
	id := strconv.FormatInt(d.nextID, 10)
	d.nextID++
	d.questions[id] = &domain.Question{
		ID:      id,
		AskerID: userID,
		Profile: profile,
		Content: content,
		Status:  domain.QuestionStatusPending,
		AskedAt: time.Now(),
	}
	d.mu.Unlock()

	d.logger.Info("question asked",
		zap.String("question_id", id),
		zap.Int64("user_id", userID))

	card := questionCard(id, profile, content)
	return id, []transport.Instruction{
		transport.NotifyUser{
			UserID: userID,
			Text:   fmt.Sprintf(text.Get(text.KeyQuestionAccepted, profile.Language), id),
		},
		transport.NotifyStaff{TopicID: d.topics.BroadcastTopicID, Text: card},
		transport.NotifyStaff{
			TopicID: d.topics.ClaimTopicID,
			Text:    card,
			Action:  "answer_question_" + id,
		},
	}, nil
}

// Claim records staffID as the handler of a pending question and prompts the
// claimant for answer content. A pending question already claimed by a
// different staff member is rejected; the first claimant keeps ownership.
func (d *Desk) Claim(staffID int64, questionID string) ([]transport.Instruction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	question, ok := d.questions[questionID]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	if question.Status == domain.QuestionStatusAnswered {
		return nil, ErrQuestionAnswered
	}
	if question.ClaimedBy != 0 && question.ClaimedBy != staffID {
		return nil, ErrQuestionClaimed
	}
	question.ClaimedBy = staffID

	d.logger.Info("question claimed",
		zap.String("question_id", questionID),
		zap.Int64("staff_id", staffID))

	return []transport.Instruction{
		transport.NotifyStaff{
			TopicID: d.topics.ClaimTopicID,
			Text: fmt.Sprintf("Write your answer to question #%s:\n%s",
				questionID, contentPreview(question.Content)),
		},
	}, nil
}

// Answer closes a claimed question and delivers the answer to the asker with
// their localized labels. Only the claimant may answer; the question becomes
// immutable afterwards.
func (d *Desk) Answer(staffID int64, questionID string, staffName string, content domain.Content) ([]transport.Instruction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	question, ok := d.questions[questionID]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	if question.Status == domain.QuestionStatusAnswered {
		return nil, ErrQuestionAnswered
	}
	if question.ClaimedBy != staffID {
		return nil, ErrWrongClaimant
	}

	answer := content
	question.Status = domain.QuestionStatusAnswered
	question.Answer = &answer

	lang := question.Profile.Language
	header := fmt.Sprintf(text.Get(text.KeyAnswerReceivedTitle, lang), questionID) +
		"\n\n" + text.Get(text.KeyQuestionLabel, lang) + "\n" + contentPreview(question.Content) +
		"\n\n" + fmt.Sprintf(text.Get(text.KeyAnswerFromLabel, lang), staffName) + "\n"
	footer := "\n\n" + text.Get(text.KeyMenuHint, lang)

	delivered := answer
	if delivered.Kind == domain.ContentText {
		delivered.Text = header + delivered.Text + footer
	} else {
		delivered.Caption = header + delivered.Caption + footer
	}

	d.logger.Info("question answered",
		zap.String("question_id", questionID),
		zap.Int64("staff_id", staffID))

	return []transport.Instruction{
		transport.DeliverToUser{UserID: question.AskerID, Content: delivered},
		transport.NotifyStaff{
			TopicID: d.topics.ClaimTopicID,
			Text:    fmt.Sprintf("Answer to question #%s has been sent.", questionID),
		},
	}, nil
}

// Delete removes the record entirely, regardless of status. Ids are never
// reissued afterwards.
func (d *Desk) Delete(questionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.questions[questionID]; !ok {
		return ErrQuestionNotFound
	}
	delete(d.questions, questionID)
	d.logger.Info("question deleted", zap.String("question_id", questionID))
	return nil
}

// Get returns a copy of the question.
func (d *Desk) Get(questionID string) (domain.Question, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	question, ok := d.questions[questionID]
	if !ok {
		return domain.Question{}, false
	}
	return *question, true
}

// Pending snapshots all unanswered questions in id order.
func (d *Desk) Pending() []domain.Question {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []domain.Question
	for id := int64(1); id < d.nextID; id++ {
		if q, ok := d.questions[strconv.FormatInt(id, 10)]; ok && q.Status == domain.QuestionStatusPending {
			out = append(out, *q)
		}
	}
	return out
}

// Snapshot reports desk counters.
func (d *Desk) Snapshot() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := Stats{Total: len(d.questions)}
	for _, q := range d.questions {
		if q.Status == domain.QuestionStatusAnswered {
			stats.Answered++
		} else {
			stats.Pending++
		}
	}
	return stats
}

func (d *Desk) profileOf(ctx context.Context, userID int64) domain.Profile {
	profile, err := d.profiles.Get(ctx, userID)
	if err != nil || profile == nil {
		return domain.Profile{UserID: userID, Language: domain.LanguageRU}
	}
	if profile.Language == "" {
		profile.Language = domain.LanguageRU
	}
	return *profile
}

func questionCard(id string, profile domain.Profile, content domain.Content) string {
	return fmt.Sprintf("New question #%s\nFrom: %s\nCourse: %s\nFaculty: %s\nGroup: %s\n\n%s",
		id, profile.FullName, profile.Course, profile.Faculty, profile.Group,
		contentPreview(content))
}

func contentPreview(content domain.Content) string {
	if content.Kind == domain.ContentText {
		return content.Text
	}
	preview := "[" + string(content.Kind) + "]"
	if content.Caption != "" {
		preview += "\n" + content.Caption
	}
	return preview
}
