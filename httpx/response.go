package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody is the error part of the envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the JSON error envelope: {"success":false,"error":{...}}.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// InternalErrorHook is called with every error WriteError maps to a 500, so the
// application can log it. The error itself never reaches the client.
type InternalErrorHook func(r *http.Request, err error)

var internalHook InternalErrorHook

// SetInternalErrorHook configures the global hook used by WriteError.
func SetInternalErrorHook(h InternalErrorHook) { internalHook = h }

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success":false,"error":{"code":"INTERNAL_ERROR","message":"encode error"}}`))
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

// WriteError renders err with the envelope. *AppError values keep their status
// and code; anything else becomes a 500 INTERNAL_ERROR.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		JSONError(w, appErr.Status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	if internalHook != nil {
		internalHook(r, err)
	}
	JSONError(w, http.StatusInternalServerError, CodeInternal, "An internal server error occurred", nil)
}

// Message writes {"success":true,"message":msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]any{"success": true, "message": msg})
}
