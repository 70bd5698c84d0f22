package session

import "errors"

var (
	ErrAlreadyStarted   = errors.New("session already started")
	ErrNotStarted       = errors.New("session not started")
	ErrSessionCompleted = errors.New("session already completed")
	ErrNoQuestions      = errors.New("session has no questions")
	ErrUnknownQuestion  = errors.New("question not part of this session")
	ErrInvalidChoice    = errors.New("invalid answer choice")
	ErrQuestionLocked   = errors.New("question is locked")
	ErrIndexOutOfRange  = errors.New("question index out of range")
)
