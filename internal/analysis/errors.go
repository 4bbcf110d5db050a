package analysis

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies a failed analysis for the user
type Kind string

const (
	NetworkLost              Kind = "network_lost"
	EmptyOrMalformedResponse Kind = "empty_or_malformed_response"
	Timeout                  Kind = "timeout"
	Unknown                  Kind = "unknown"
)

const (
	msgOffline     = "Connection lost. Please check your internet connection and try again."
	msgNetworkLost = "Network error. Connection lost during analysis. Please check your internet connection."
	msgMalformed   = "The AI returned an incomplete response. Please try again."
	msgTimeout     = "The analysis took too long. Please try again with fewer images."
	msgUnknown     = "Failed to process images. Please check your API key and try again."
)

// Error is the single error type returned by a failed analysis
type Error struct {
	Kind    Kind
	Detail  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("analysis failed (%s): %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("analysis failed (%s)", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the human-readable copy shown next to the generate action
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case NetworkLost:
		return msgNetworkLost
	case EmptyOrMalformedResponse:
		return msgMalformed
	default:
		if e.Detail != "" {
			return e.Detail
		}
		return msgUnknown
	}
}

// IsKind reports whether err is an analysis Error of the given kind
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// Offline is the error reported when a batch is submitted without connectivity
func Offline() *Error {
	return &Error{Kind: NetworkLost, Detail: "offline before request", Message: msgOffline}
}

func malformed(err error) *Error {
	return &Error{Kind: EmptyOrMalformedResponse, Detail: err.Error(), Err: err}
}

func timedOut(err error) *Error {
	return &Error{Kind: Timeout, Detail: err.Error(), Message: msgTimeout, Err: err}
}

func networkLost(err error) *Error {
	return &Error{Kind: NetworkLost, Detail: err.Error(), Message: msgNetworkLost, Err: err}
}

func unknown(err error) *Error {
	return &Error{Kind: Unknown, Detail: err.Error(), Err: err}
}

// looksLikeNetworkFailure matches transport failures by type or by the
// wording transports use for them.
func looksLikeNetworkFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "network") || strings.Contains(msg, "fetch")
}
