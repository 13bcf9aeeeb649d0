package contracts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrSelfChat        = errors.New("cannot chat with self")
	ErrNotAParticipant = errors.New("sender is not a chat participant")
	ErrDuplicateEmail  = errors.New("email already in use")
	ErrRateLimited     = errors.New("too many messages")
)

const (
	ErrorCategoryAPI          = "api"
	ErrorCategoryStore        = "store"
	ErrorCategoryLifecycle    = "lifecycle"
	ErrorCategorySubscription = "subscription"
)

type CategorizedError struct {
	Category string
	Err      error
}

func (e *CategorizedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}

func normalizeErrorCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case ErrorCategoryStore:
		return ErrorCategoryStore
	case ErrorCategoryLifecycle:
		return ErrorCategoryLifecycle
	case ErrorCategorySubscription:
		return ErrorCategorySubscription
	default:
		return ErrorCategoryAPI
	}
}

func WrapCategorizedError(category string, err error) error {
	if err == nil {
		return nil
	}
	var existing *CategorizedError
	if errors.As(err, &existing) {
		return &CategorizedError{
			Category: normalizeErrorCategory(existing.Category),
			Err:      existing.Err,
		}
	}
	return &CategorizedError{
		Category: normalizeErrorCategory(category),
		Err:      err,
	}
}

func ErrorCategory(err error) string {
	if err == nil {
		return ""
	}
	var classified *CategorizedError
	if errors.As(err, &classified) {
		return normalizeErrorCategory(classified.Category)
	}
	return ErrorCategoryAPI
}

// UserMessage maps a taxonomy error to the short, specific message shown by
// the UI layer. Unknown errors keep their own text rather than collapsing
// into a generic failure.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Not found."
	case errors.Is(err, ErrInvalidInput):
		return "Message needs text or an image."
	case errors.Is(err, ErrSelfChat):
		return "You cannot start a chat with yourself."
	case errors.Is(err, ErrNotAParticipant):
		return "You are not a member of this chat."
	case errors.Is(err, ErrDuplicateEmail):
		return "That email is already registered to another account."
	case errors.Is(err, ErrRateLimited):
		return "You are sending messages too quickly. Please slow down."
	default:
		return err.Error()
	}
}
