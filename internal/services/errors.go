package services

import (
	"errors"
)

// Service errors are recovered at the handler boundary into user-facing
// messages; nothing here is ever fatal to the caller's session.
var (
	ErrAuthRequired     = errors.New("you must be logged in to do that")
	ErrNotFound         = errors.New("not found")
	ErrNotOwnDiscussion = errors.New("you can only delete your own discussions")
	ErrNotOwnReply      = errors.New("you can only delete your own replies")
)
