// Package zerr defines the error taxonomy shared across the rewrite
// pipeline (spec §7): story-extraction failures, LLM transport/response
// failures, and validation rejects. Callers compare against Kind (with Is,
// or errors.As and a check of Error.Kind) rather than matching error
// strings.
package zerr

import "fmt"

// Kind classifies an error into one of the buckets the retry state
// machine and the caller need to react differently to.
type Kind int

const (
	// KindCorruptStory means a story-file read fell outside the mapped
	// bytes (truncated or malformed file).
	KindCorruptStory Kind = iota
	// KindUnsupportedVersion means the story's header version byte was
	// outside the 3-8 range this layer understands.
	KindUnsupportedVersion
	// KindNoDictionary means the header's dictionary base address was 0.
	KindNoDictionary
	// KindInvalidDictionary means the dictionary table's entry_count or
	// entry_length fields were out of the sane range.
	KindInvalidDictionary
	// KindLlmTransport means the network/TLS/timeout layer failed.
	KindLlmTransport
	// KindLlmResponse means the provider responded but without usable
	// content (missing fields, safety block).
	KindLlmResponse
	// KindValidationReject means a candidate rewrite failed C9 checks.
	KindValidationReject
)

func (k Kind) String() string {
	switch k {
	case KindCorruptStory:
		return "corrupt_story"
	case KindUnsupportedVersion:
		return "unsupported_version"
	case KindNoDictionary:
		return "no_dictionary"
	case KindInvalidDictionary:
		return "invalid_dictionary"
	case KindLlmTransport:
		return "llm_transport"
	case KindLlmResponse:
		return "llm_response"
	case KindValidationReject:
		return "validation_reject"
	default:
		return "unknown"
	}
}

// Error is the concrete error type carried through the pipeline. It wraps
// an optional underlying cause so %w chains keep working.
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no underlying cause.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap builds an *Error carrying an underlying cause.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Cause: cause}
}

// Is reports whether err is itself a *Error of the given kind. It does not
// unwrap err; for an *Error wrapped inside another error, callers do:
//
//	var zerror *zerr.Error
//	if errors.As(err, &zerror) && zerror.Kind == zerr.KindCorruptStory { ... }
func Is(err error, kind Kind) bool {
	var e *Error
	if err == nil {
		return false
	}
	if ae, ok := err.(*Error); ok {
		e = ae
	} else {
		return false
	}
	return e.Kind == kind
}
