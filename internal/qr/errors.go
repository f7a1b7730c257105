package qr

import "fmt"

// Kind classifies a decode failure
type Kind int

const (
	KindIO Kind = iota + 1
	KindNotFound
	KindDecodeFailed
)

// Error is returned by the Decoder. KindIO wraps the load failure.
type Error struct {
	Kind Kind
	Err  error
}

var (
	ErrIO           = &Error{Kind: KindIO}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrDecodeFailed = &Error{Kind: KindDecodeFailed}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindIO:
		if e.Err == nil {
			return "Could not load qr from file"
		}
		return fmt.Sprintf("Could not load qr from file: %s", e.Err)
	case KindNotFound:
		return "Could not detect qr on image"
	case KindDecodeFailed:
		return "Failed to decode any qr"
	default:
		return "Unknown qr error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func ioError(err error) error {
	return &Error{Kind: KindIO, Err: err}
}
