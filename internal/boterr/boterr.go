// Package boterr defines the tagged error type for user-visible failures
// and its mapping to reply payloads.
package boterr

import (
	"fmt"
	"strings"

	"github.com/marketbrief/marketbrief/models"
)

// Kind is the closed set of user-visible failure categories.
type Kind int

const (
	InvalidInput Kind = iota
	RateLimited
	NotFound
	UpstreamFailure
	PartialFailure
	Unknown
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid-input"
	case RateLimited:
		return "rate-limited"
	case NotFound:
		return "not-found"
	case UpstreamFailure:
		return "upstream-failure"
	case PartialFailure:
		return "partial-failure"
	case Unknown:
		return "unknown"
	}
	return "unknown"
}

// Error carries a kind, a message safe to show the user, optional symbol
// suggestions, and metadata meant for logs only.
type Error struct {
	Kind        Kind
	Message     string
	Suggestions []string
	Meta        map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithSuggestions attaches alternate symbols to offer the user.
func (e *Error) WithSuggestions(suggestions []string) *Error {
	e.Suggestions = suggestions
	return e
}

// WithMeta attaches a log-only detail. Never rendered to the user.
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[key] = value
	return e
}

func (k Kind) emoji() string {
	switch k {
	case InvalidInput:
		return "🤔"
	case RateLimited:
		return "⏳"
	case NotFound:
		return "🔍"
	case UpstreamFailure:
		return "⚠️"
	case PartialFailure:
		return "⚠️"
	case Unknown:
		return "❌"
	}
	return "❌"
}

// Format renders the error as a reply. Every error reply is private to the
// requester and never exposes Meta.
func Format(e *Error) models.Reply {
	var sb strings.Builder
	sb.WriteString(e.Kind.emoji())
	sb.WriteString(" ")
	sb.WriteString(e.Message)

	if len(e.Suggestions) > 0 {
		sb.WriteString("\n\nDid you mean: ")
		sb.WriteString(strings.Join(e.Suggestions, ", "))
	}

	return models.Reply{
		IsPrivate: true,
		Text:      sb.String(),
	}
}
