package domain

import "time"

// QuestionStatus enumerates the one-shot question lifecycle.
type QuestionStatus string

const (
	QuestionStatusPending  QuestionStatus = "PENDING"
	QuestionStatusAnswered QuestionStatus = "ANSWERED"
)

// Question is a one-shot request owned by the question desk. Ids are the
// string form of a strictly increasing counter and are never reused, even
// after deletion.
type Question struct {
	ID        string
	AskerID   int64
	Profile   Profile
	Content   Content
	Status    QuestionStatus
	ClaimedBy int64
	Answer    *Content
	AskedAt   time.Time
}
