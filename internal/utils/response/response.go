// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Error responses always have the same shape, so API consumers can rely
// on a single "detail" key whatever went wrong.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records-api/internal/errs"
)

// Response is the envelope returned for error cases:
//
//	{ "detail": "Student not found" }
type Response struct {
	Detail string `json:"detail"`
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

// NoContent writes a bare 204 with no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error converts err into an *errs.Error and writes it. Server-side
// failures are logged as errors, and client-facing errors that hide a
// cause (a store failure reported as UpdateFailed, say) as warnings.
// The client only ever sees Detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errs.FromError(err)

	switch {
	case appErr.Status >= http.StatusInternalServerError:
		logFailure(r, slog.LevelError, appErr)
	case appErr.Err != nil:
		logFailure(r, slog.LevelWarn, appErr)
	}

	_ = WriteJSON(w, appErr.Status, Response{Detail: appErr.Detail})
}

func logFailure(r *http.Request, level slog.Level, appErr *errs.Error) {
	slog.Log(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("kind", string(appErr.Kind)),
		slog.String("error", appErr.Error()),
	)
}
