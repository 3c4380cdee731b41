package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "loomline/pkg/domain-errors"
	"loomline/pkg/requestcontext"
)

// RespondJSON writes a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RespondError maps a domain error onto an HTTP status and a JSON body
// carrying the code for programmatic dispatch plus the human-readable
// message. Internal causes are logged, not leaked.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	message := err.Error()
	if code == dErrors.CodeInternal {
		logger.ErrorContext(r.Context(), "request failed",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		message = "internal error"
	}
	RespondJSON(w, status, errorBody{Error: string(code), Message: message})
}

// DecodeBody decodes a JSON request body into dst, translating failures into
// bad-request domain errors.
func DecodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body")
	}
	return nil
}
