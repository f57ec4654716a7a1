package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per Kind. Match them with errors.Is.
var (
	ErrMissingCorpus     = errors.New("corpus not found")
	ErrCorruptIndex      = errors.New("corrupt index")
	ErrEmbeddingService  = errors.New("embedding service failed")
	ErrCompletionService = errors.New("completion service failed")
	ErrInvalidInput      = errors.New("invalid input")
)

// Kind classifies failures at the core boundary so callers can tell
// "no law applies" apart from "system malfunction".
type Kind int

const (
	KindUnknown Kind = iota
	KindMissingCorpus
	KindCorruptIndex
	KindEmbeddingService
	KindCompletionService
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindMissingCorpus:
		return "missing_corpus"
	case KindCorruptIndex:
		return "corrupt_index"
	case KindEmbeddingService:
		return "embedding_service"
	case KindCompletionService:
		return "completion_service"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindMissingCorpus:
		return ErrMissingCorpus
	case KindCorruptIndex:
		return ErrCorruptIndex
	case KindEmbeddingService:
		return ErrEmbeddingService
	case KindCompletionService:
		return ErrCompletionService
	case KindInvalidInput:
		return ErrInvalidInput
	default:
		return nil
	}
}

// Error is a classified failure. Op names the failing operation.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// E builds an *Error of the given kind.
func E(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	s := e.Op
	if e.Msg != "" {
		if s != "" {
			s += ": "
		}
		s += e.Msg
	}
	if e.Err != nil {
		if s != "" {
			return fmt.Sprintf("%s: %v", s, e.Err)
		}
		return e.Err.Error()
	}
	if s == "" {
		return e.Kind.String()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	for _, k := range []Kind{KindMissingCorpus, KindCorruptIndex, KindEmbeddingService, KindCompletionService, KindInvalidInput} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindUnknown
}

// Retryable reports whether the failure came from an external service and may succeed on retry.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindEmbeddingService, KindCompletionService:
		return true
	}
	return false
}
