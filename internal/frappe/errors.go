package frappe

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsAPIError reports whether err (or anything it wraps) is an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

func newAPIError(status int, body []byte) *APIError {
	msg := extractMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("backend request failed (HTTP %d)", status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

// extractMessage pulls the most user-facing text out of a backend error payload.
// Order: _server_messages, message, exception.
func extractMessage(body []byte) string {
	var payload struct {
		ServerMessages string          `json:"_server_messages"`
		Message        json.RawMessage `json:"message"`
		Exception      string          `json:"exception"`
		ExcType        string          `json:"exc_type"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if payload.ServerMessages != "" {
		var raw []string
		if err := json.Unmarshal([]byte(payload.ServerMessages), &raw); err == nil {
			msgs := make([]string, 0, len(raw))
			for _, r := range raw {
				if m := messageText(r); m != "" {
					msgs = append(msgs, m)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "\n")
			}
		}
	}

	if len(payload.Message) > 0 {
		var s string
		if err := json.Unmarshal(payload.Message, &s); err == nil && s != "" {
			return cleanText(s)
		}
	}

	if payload.Exception != "" {
		// "frappe.exceptions.ValidationError: Import file is missing"
		if idx := strings.Index(payload.Exception, ": "); idx >= 0 {
			return cleanText(payload.Exception[idx+2:])
		}
		return cleanText(payload.Exception)
	}

	return ""
}

// messageText returns the text of one server message, which is either a
// JSON object with a "message" key or a bare string.
func messageText(raw string) string {
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return cleanText(obj.Message)
	}
	return cleanText(raw)
}

func cleanText(s string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(s, ""))
}
