package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ENVELOPE:
// Every response from this API — success or error — has the same shape:
//
//	{"status": "success", "data": {...},  "detail": null}
//	{"status": "error",   "data": null,   "detail": "Invalid credentials"}
//
// On success, data carries the payload and detail is null. On error, data
// is null and detail carries a human-readable reason. Clients only ever
// need one parser.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/farhan/auth-service/internal/apperror"
)

// envelope is the uniform response body for every endpoint.
//
// Data and Detail are `any` (not typed structs or strings) so that the zero
// value serializes as JSON null — the envelope contract requires explicit
// nulls, not omitted fields.
type envelope struct {
	Status string `json:"status"` // "success" or "error"
	Data   any    `json:"data"`
	Detail any    `json:"detail"`
}

// tokenPayload is the success data for register/login/edit-profile.
type tokenPayload struct {
	JWTToken  string `json:"jwt_token"`
	TokenType string `json:"token_type"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// You MUST set headers and status code BEFORE writing the body.
// Once you call w.Write() (which Encode does internally), the headers are sent.
// Any header changes after that are silently ignored.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// If encoding fails, the headers are already sent — we can only log it.
		logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeSuccess sends a 200 envelope with the given payload in data.
// Pass nil for endpoints with no payload (logout).
func writeSuccess(w http.ResponseWriter, logger *slog.Logger, data any) {
	writeJSON(w, logger, http.StatusOK, envelope{
		Status: "success",
		Data:   data,
		Detail: nil,
	})
}

// writeError maps a domain error to the appropriate HTTP status code and
// sends the error envelope.
//
// ERROR MAPPING:
// This is where error KINDS (from the service layer) get translated to HTTP:
//
//	apperror.ErrUnauthorized → 401
//	apperror.ErrConflict     → 409
//	apperror.ErrBadRequest   → 400
//	anything else            → 500, detail "Server error"
//
// WHY HERE AND NOT IN THE SERVICE?
// The service layer should not know about HTTP status codes. It returns
// error kinds; only this boundary knows that "conflict" means 409.
//
// NO DIAGNOSTICS LEAK:
// Unexpected errors are logged server-side with their full message, but the
// client only ever sees the generic "Server error" detail. Raw error strings
// can contain SQL fragments, file paths, or other internals.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError

	// errors.As walks the wrap chain and fills appErr if an *AppError is
	// anywhere inside it.
	if errors.As(err, &appErr) {
		status := 0
		switch {
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized // 401
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict // 409
		case errors.Is(err, apperror.ErrBadRequest):
			status = http.StatusBadRequest // 400
		}

		if status != 0 {
			writeJSON(w, logger, status, envelope{
				Status: "error",
				Data:   nil,
				Detail: appErr.Message,
			})
			return
		}
		// Other kinds (e.g. a not-found that escaped service translation)
		// fall through to the generic 500 below.
	}

	logger.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, logger, http.StatusInternalServerError, envelope{
		Status: "error",
		Data:   nil,
		Detail: "Server error",
	})
}
