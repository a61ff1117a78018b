// Package httputil holds the JSON helpers shared by HTTP handlers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "sdnguard/pkg/domain-errors"
)

// MaxBodyBytes caps request bodies; a bulk request of a few thousand names fits easily.
const MaxBodyBytes = 1 << 20

// Validatable is implemented by request bodies that validate and normalise themselves.
type Validatable interface {
	Validate() error
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a JSON error envelope. Internal errors never
// leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}

	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		body["error_description"] = de.Message
	}
	WriteJSON(w, dErrors.HTTPStatus(code), body)
}

// DecodeJSON decodes a size-limited JSON body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body")
	}
	return nil
}

// DecodeAndPrepare decodes and validates a request body. On failure it writes the
// error response, logs it and returns ok=false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req := PT(new(T))
	if err := DecodeJSON(r, req); err != nil {
		logRejected(ctx, logger, requestID, err)
		WriteError(w, err)
		return nil, false
	}
	if err := req.Validate(); err != nil {
		logRejected(ctx, logger, requestID, err)
		WriteError(w, err)
		return nil, false
	}
	return (*T)(req), true
}

func logRejected(ctx context.Context, logger *slog.Logger, requestID string, err error) {
	if logger == nil {
		return
	}
	logger.WarnContext(ctx, "request rejected",
		"request_id", requestID,
		"error", err,
	)
}
