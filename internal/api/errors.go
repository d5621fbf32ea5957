package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorKind classifies a gateway failure.
type ErrorKind int

const (
	// NetworkFailure means the request never produced a response.
	NetworkFailure ErrorKind = iota
	// ServerRejected means the server answered with a non-2xx status.
	ServerRejected
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkFailure:
		return "network_failure"
	case ServerRejected:
		return "server_rejected"
	default:
		return "unknown"
	}
}

// ErrorDetail holds the server-supplied detail of a rejection. The server
// sends either a plain string or a structured validation object, so callers
// must go through Message instead of assuming one shape.
type ErrorDetail struct {
	text       string
	structured map[string]json.RawMessage
}

// UnmarshalJSON accepts both the string and the object form.
func (d *ErrorDetail) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		return json.Unmarshal(data, &d.text)
	}
	if strings.HasPrefix(trimmed, "{") {
		return json.Unmarshal(data, &d.structured)
	}
	// Numbers, arrays and anything else keep their raw text so the
	// message is never silently lost.
	d.text = trimmed
	return nil
}

// IsStructured reports whether the server sent the object form.
func (d ErrorDetail) IsStructured() bool {
	return d.structured != nil
}

// Message extracts a human-readable message from either form. Empty when
// the server sent no detail at all.
func (d ErrorDetail) Message() string {
	if d.text != "" {
		return d.text
	}
	if d.structured == nil {
		return ""
	}
	for _, key := range []string{"msg", "message", "error"} {
		if raw, ok := d.structured[key]; ok {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil && s != "" {
				return s
			}
		}
	}
	return "request rejected"
}

// Field returns a raw structured field by name, for callers that want to
// inspect validation objects beyond the message.
func (d ErrorDetail) Field(name string) (json.RawMessage, bool) {
	raw, ok := d.structured[name]
	return raw, ok
}

// RemoteError is the normalized failure surfaced by every gateway call.
type RemoteError struct {
	Kind   ErrorKind
	Status int
	Detail ErrorDetail
	cause  error
}

func (e *RemoteError) Error() string {
	switch e.Kind {
	case NetworkFailure:
		return fmt.Sprintf("remote call failed: %v", e.cause)
	case ServerRejected:
		if msg := e.Detail.Message(); msg != "" {
			return fmt.Sprintf("server rejected request (status %d): %s", e.Status, msg)
		}
		return fmt.Sprintf("server rejected request (status %d)", e.Status)
	default:
		return "remote call failed"
	}
}

func (e *RemoteError) Unwrap() error {
	return e.cause
}

// IsAuthFailure reports whether the rejection was an authorization failure.
// A present-but-expired credential is only discovered here, never by the
// session guard.
func (e *RemoteError) IsAuthFailure() bool {
	return e.Kind == ServerRejected && (e.Status == 401 || e.Status == 403)
}
