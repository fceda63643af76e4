package conversation

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/fsg-chatbot/widget/backend/internal/model/profile"
)

// Outcome labels how a dialogue round trip ended.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeEmpty        Outcome = "empty"
	OutcomeConnectivity Outcome = "connectivity_error"
	OutcomeHTTP         Outcome = "http_error"
	OutcomeGeneric      Outcome = "generic_error"
)

// ConnectivityError means the request never reached the dialogue server.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("dialogue endpoint unreachable: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// HTTPError means the dialogue server answered with a non-2xx status.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("dialogue endpoint returned status %d", e.StatusCode)
}

// GenericError covers every other failure of the cycle, such as a body that
// is not a JSON array.
type GenericError struct {
	Err error
}

func (e *GenericError) Error() string {
	return fmt.Sprintf("dialogue exchange failed: %v", e.Err)
}

func (e *GenericError) Unwrap() error { return e.Err }

// Classify maps an exchange error to its outcome. A nil error is a success.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}

	var connErr *ConnectivityError
	if errors.As(err, &connErr) {
		return OutcomeConnectivity
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return OutcomeHTTP
	}
	return OutcomeGeneric
}

// Texts are the localized strings used for synthetic bot records.
type Texts = profile.Texts

// errorText picks the user-visible string for a failed exchange.
func errorText(texts Texts, err error) string {
	switch Classify(err) {
	case OutcomeConnectivity:
		return texts.Connectivity
	case OutcomeHTTP:
		return texts.ServerError
	default:
		return texts.Generic
	}
}
