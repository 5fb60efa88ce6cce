// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"encoding/json"
	"net/http"

	"campus-openings/internal/apperr"

	"github.com/rs/zerolog"
)

type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type ErrorEnvelope struct {
	Envelope
	Errors []string `json:"errors"`
}

// JSON writes a success envelope. Statuses of 400 and above are reported as
// unsuccessful.
func JSON(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// Fail writes an error envelope without data.
func Fail(w http.ResponseWriter, status int, message string, errs ...string) {
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, status, ErrorEnvelope{
		Envelope: Envelope{StatusCode: status, Message: message},
		Errors:   errs,
	})
}

// Error maps err to its status and writes the envelope. Causes of server
// errors are logged with the request logger and never sent to the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	status := ae.Status()
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("kind", string(ae.Kind)).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	Fail(w, status, ae.Message, ae.Fields...)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
