package domain

import "errors"

type Kind int

const (
	KindValidation Kind = iota + 1
	KindDuplicate
	KindUnauthenticated
	KindForbidden
	KindStorage
	KindUpload
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindStorage:
		return "storage"
	case KindUpload:
		return "upload"
	}
	return "unknown"
}

// Error carries a client-facing message and, for storage/upload failures, the
// internal cause. Msg is safe to return to callers; Err is for logs only.
type Error struct {
	Kind      Kind
	Msg       string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind and message so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == e.Msg
}

func Validation(msg string) error      { return &Error{Kind: KindValidation, Msg: msg} }
func Duplicate(msg string) error       { return &Error{Kind: KindDuplicate, Msg: msg} }
func Unauthenticated(msg string) error { return &Error{Kind: KindUnauthenticated, Msg: msg} }
func Forbidden(msg string) error       { return &Error{Kind: KindForbidden, Msg: msg} }
func Upload(msg string) error          { return &Error{Kind: KindUpload, Msg: msg} }

func Storage(msg string, err error) error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// StorageRetryable marks a backend timeout or unavailability.
func StorageRetryable(msg string, err error) error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err, Retryable: true}
}

var (
	ErrDuplicateEmail     = Duplicate("email already registered")
	ErrInvalidCredentials = Unauthenticated("invalid email or password")
	ErrNotFound           = errors.New("not found")
)

// KindOf returns the kind of err, or 0 for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
