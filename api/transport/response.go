package transport

import "encoding/json"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// fallbackBody is sent when an envelope cannot be encoded.
var fallbackBody = []byte(`{"status":"error","code":"INTERNAL","error":"internal server error"}`)

// Envelope wraps every API response. Code is the machine-readable error
// kind and is only set on failures.
type Envelope struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
	Meta   any    `json:"meta,omitempty"`
}

func Success(data any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data}
}

func Failure(code, message string) Envelope {
	return Envelope{Status: StatusError, Code: code, Error: message}
}

// WithMeta attaches auxiliary information such as dependency status.
func (e Envelope) WithMeta(meta any) Envelope {
	e.Meta = meta
	return e
}

// Bytes encodes the envelope, degrading to a generic internal error.
func (e Envelope) Bytes() []byte {
	out, err := json.Marshal(e)
	if err != nil {
		return fallbackBody
	}
	return out
}

// MessageResponse is returned by operations without a resource to show.
type MessageResponse struct {
	Message string `json:"message"`
}
