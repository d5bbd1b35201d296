// Package respond writes JSON responses. Two shapes are used: plain objects
// for catalog routes and the {data, success} / {error, success} envelope for
// engagement and assistant routes. Error messages are sanitized before they
// reach clients.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"blog-api/internal/domain/entity"
)

// internalErrorMessage replaces every 5xx error message.
const internalErrorMessage = "internal server error"

// safePhrases mark error messages written for clients.
var safePhrases = []string{
	"required",
	"invalid",
	"not found",
	"must be",
	"cannot be",
	"too long",
	"too short",
}

// Envelope is the success/failure wrapper of engagement and assistant routes.
type Envelope struct {
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

// JSON writes v with status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are already sent
		slog.Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes {"error": err} without sanitizing.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// SafeError writes {"error": msg} where msg is ClientMessage(code, err).
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	JSON(w, code, map[string]string{"error": ClientMessage(code, err)})
}

// Success writes {"data": data, "success": true}.
func Success(w http.ResponseWriter, code int, data any) {
	JSON(w, code, Envelope{Data: data, Success: true})
}

// Failure writes {"error": msg, "success": false}.
func Failure(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, Envelope{Error: msg, Success: false})
}

// SafeFailure is Failure with the message produced by ClientMessage.
func SafeFailure(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	Failure(w, code, ClientMessage(code, err))
}

// ClientMessage returns the message a client may see for err. 5xx errors
// and messages not written for clients are logged and replaced.
func ClientMessage(code int, err error) string {
	if code < 500 {
		var ve *entity.ValidationError
		if errors.As(err, &ve) {
			return ve.Message
		}
		lower := strings.ToLower(err.Error())
		for _, p := range safePhrases {
			if strings.Contains(lower, p) {
				return err.Error()
			}
		}
	}

	slog.Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	return internalErrorMessage
}
