package questions

import "errors"

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrQuestionAnswered = errors.New("question is already answered")
	// ErrQuestionClaimed rejects a claim on a pending question another
	// staff member is already handling.
	ErrQuestionClaimed = errors.New("question is claimed by another staff member")
	ErrWrongClaimant   = errors.New("question may only be answered by its claimant")
	ErrBanned          = errors.New("user is banned")
	ErrNotRegistered   = errors.New("user is not registered")
	ErrInChat          = errors.New("user must exit the chat state first")
)
