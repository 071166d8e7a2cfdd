package recordsink

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// maxRawErrorMessage bounds how much of a non-JSON error body is kept.
const maxRawErrorMessage = 256

type Record struct {
	Timestamp time.Time
	Name      string
	Email     string
	Phone     string
}

// SaveResult is the outcome of a mirror attempt. Skipped means the sink is
// not configured; Err is set on any failure. Callers log it and carry on.
type SaveResult struct {
	Skipped bool
	Err     error
}

func (r SaveResult) OK() bool {
	return !r.Skipped && r.Err == nil
}

type fields struct {
	Name      string `json:"Name"`
	Email     string `json:"Email"`
	Phone     string `json:"Phone"`
	Timestamp string `json:"Timestamp"`
}

type recordPayload struct {
	Fields fields `json:"fields"`
}

type createRequest struct {
	Records []recordPayload `json:"records"`
}

// APIError is the structured error body returned by the record store. It
// arrives either as {"error":"TYPE"} or {"error":{"type":..,"message":..}}.
// Any other body is kept, truncated, as Message.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.Type != "" && e.Message != "":
		return fmt.Sprintf("record store returned status %d: %s: %s", e.StatusCode, e.Type, e.Message)
	case e.Type != "":
		return fmt.Sprintf("record store returned status %d: %s", e.StatusCode, e.Type)
	case e.Message != "":
		return fmt.Sprintf("record store returned status %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("record store returned status %d", e.StatusCode)
	}
}

func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		apiErr.Message = rawMessage(body)
		return apiErr
	}

	var errType string
	if err := json.Unmarshal(envelope.Error, &errType); err == nil {
		apiErr.Type = errType
		return apiErr
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		apiErr.Type = detail.Type
		apiErr.Message = detail.Message
	}
	return apiErr
}

func rawMessage(body []byte) string {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxRawErrorMessage {
		msg = strings.ToValidUTF8(msg[:maxRawErrorMessage], "") + "..."
	}
	return msg
}
