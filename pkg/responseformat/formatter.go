// Package responseformat encodes API responses as JSON or MessagePack.
package responseformat

import (
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Formatter handles encoding and writing responses in JSON or MessagePack format
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// ErrorBody is the payload written for failed API requests
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteResponse writes data with the given status code. JSON is the default
// format; MessagePack is used when the request carries format=msgpack.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, status int, data any, headers map[string]string) error {
	for k, v := range headers {
		w.Header().Set(k, v)
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")

	if req.URL.Query().Get("format") == "msgpack" {
		return f.writeMsgPack(w, status, data)
	}
	return f.writeJSON(w, status, data)
}

// WriteError writes an ErrorBody for status using the negotiated format
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, status int, msg string) error {
	return f.WriteResponse(w, req, status, ErrorBody{
		Error:   http.StatusText(status),
		Message: msg,
	}, nil)
}

func (f *Formatter) writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func (f *Formatter) writeMsgPack(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/x-msgpack")
	w.WriteHeader(status)
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}
