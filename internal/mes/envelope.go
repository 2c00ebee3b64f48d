package mes

import (
	"encoding/json"
	"fmt"
)

// Envelope is the uniform response shape of the backend:
// { code, subCode, message, data }. code 0 or 200 means success; an absent
// code on a 2xx response is also treated as success (the login endpoint
// omits it).
type Envelope struct {
	Code    *int            `json:"code"`
	SubCode string          `json:"subCode"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Success reports whether the envelope carries a success application code
func (e *Envelope) Success() bool {
	return e.Code == nil || *e.Code == 0 || *e.Code == 200
}

// CodeValue returns the application code, or -1 when absent
func (e *Envelope) CodeValue() int {
	if e.Code == nil {
		return -1
	}
	return *e.Code
}

// DecodeData unmarshals the data field into v. An absent data field is an
// error: callers that can tolerate empty data should check first.
func (e *Envelope) DecodeData(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("response has no data field")
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// asError converts a non-success envelope into the matching typed error.
// Auth-flavored sub-codes become AuthError so the caller can refresh and
// retry; everything else is a BusinessError with the server message.
func (e *Envelope) asError() error {
	if isAuthSubCode(e.SubCode) {
		return &AuthError{SubCode: e.SubCode, Message: e.Message}
	}
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("business error (code: %d, subCode: %s)", e.CodeValue(), e.SubCode)
	}
	return &BusinessError{Code: e.CodeValue(), SubCode: e.SubCode, Message: msg}
}
