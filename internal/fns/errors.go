package fns

import (
	"fmt"
	"log/slog"
)

// Kind identifies which part of the FNS workflow failed
type Kind int

const (
	KindHTTP Kind = iota + 1
	KindAuthorization
	KindTicketCreation
	KindBillFetching
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindAuthorization:
		return "authorization"
	case KindTicketCreation:
		return "ticket_creation"
	case KindBillFetching:
		return "bill_fetching"
	default:
		return "unknown"
	}
}

// Error is returned by Resolve. Only KindHTTP carries a detail message;
// step failures expose the coarse kind and the cause is logged instead.
type Error struct {
	Kind   Kind
	Detail string
}

var (
	ErrHTTP           = &Error{Kind: KindHTTP}
	ErrAuthorization  = &Error{Kind: KindAuthorization}
	ErrTicketCreation = &Error{Kind: KindTicketCreation}
	ErrBillFetching   = &Error{Kind: KindBillFetching}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindAuthorization:
		return "Failed to authorize"
	case KindTicketCreation:
		return "Failed to create ticket"
	case KindBillFetching:
		return "Failed to fetch bill"
	case KindHTTP:
		return fmt.Sprintf("Failed to perform request: %s", e.Detail)
	default:
		return "Unknown FNS error"
	}
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrAuthorization)
// works regardless of detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// httpError maps a failure that happened before a request reached the wire
func httpError(err error) error {
	return &Error{Kind: KindHTTP, Detail: err.Error()}
}

// stepError logs the underlying failure and returns the coarse step kind
func stepError(logger *slog.Logger, kind Kind, msg string, err error) error {
	logger.Error(msg, "step", kind.String(), "error", err)
	return &Error{Kind: kind}
}
