package store

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrTooManySessions   = errors.New("too many active sessions for client")
	ErrHintAlreadyUsed   = errors.New("hint already used for this question")
	ErrInterviewComplete = errors.New("interview already complete")
	ErrStaleAnswer       = errors.New("answer does not match the current question")
)
