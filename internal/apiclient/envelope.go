package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/and161185/voicenotes/internal/errs"
)

// Envelope is the single shape every response body is normalized into.
type Envelope struct {
	Data    json.RawMessage
	Message string
	Error   string
}

// Normalize accepts either {"data": X, "message"?, "error"?} or a bare X.
// When "data" is absent or null the whole body is the data.
func Normalize(body []byte) Envelope {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Envelope{}
	}
	if trimmed[0] != '{' {
		return Envelope{Data: json.RawMessage(trimmed)}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return Envelope{Data: json.RawMessage(trimmed)}
	}

	env := Envelope{
		Message: stringField(obj["message"]),
		Error:   stringField(obj["error"]),
	}
	if d, ok := obj["data"]; ok && !isNull(d) {
		env.Data = d
	} else {
		env.Data = json.RawMessage(trimmed)
	}
	return env
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Envelope   Envelope
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the normalized data into v.
func (r *Response) Decode(v any) error {
	if len(r.Envelope.Data) == 0 {
		return fmt.Errorf("%w: empty body", errs.ErrUnexpectedResponse)
	}
	if err := json.Unmarshal(r.Envelope.Data, v); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrUnexpectedResponse, err)
	}
	return nil
}

// Err returns nil for 2xx, otherwise an *errs.APIError carrying the server's
// error message or fallback.
func (r *Response) Err(fallback string) error {
	if r.OK() {
		return nil
	}
	msg := r.Envelope.Error
	if msg == "" {
		msg = fallback
	}
	return &errs.APIError{StatusCode: r.StatusCode, Message: msg}
}
