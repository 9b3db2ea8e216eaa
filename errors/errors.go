// Package errors defines the error taxonomy of the messaging subsystem
// and its mapping to transport status codes. Validation errors surface
// as 400, authorization as 403, unknown entities as 404; anything else
// is a fatal persistence failure for the request.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidParticipant = fmt.Errorf("recipient is not a valid participant")
	ErrSelfChat           = fmt.Errorf("cannot start a chat with yourself")
	ErrSelfMessage        = fmt.Errorf("cannot send a message to yourself")
	ErrEmptyContent       = fmt.Errorf("message content required")
	ErrNotParticipant     = fmt.Errorf("not a participant of this chat")
	ErrChatNotFound       = fmt.Errorf("chat not found")
	ErrUnauthenticated    = fmt.Errorf("authentication required")
)

// HTTPStatus maps a domain error to its HTTP-equivalent signal.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, ErrChatNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidParticipant),
		errors.Is(err, ErrSelfChat),
		errors.Is(err, ErrSelfMessage),
		errors.Is(err, ErrEmptyContent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Is re-exports errors.Is so call sites importing this package do not
// need the stdlib package under an alias.
func Is(err, target error) bool { return errors.Is(err, target) }
