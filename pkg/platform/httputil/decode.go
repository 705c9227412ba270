package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "mastery/pkg/domain-errors"
)

// Request DTOs opt into preparation steps by implementing these. Sanitize
// runs first and must not fail; Validate checks presence and shape only.
type (
	sanitizer interface{ Sanitize() }
	validator interface{ Validate() error }
)

// decodeBody reads exactly one JSON object into dst. Unknown fields and
// anything after the object are rejected.
func decodeBody(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// PrepareRequest sanitizes then validates req. A validation failure that
// carries no domain code is reported as CodeValidation.
func PrepareRequest(req any) error {
	if s, ok := req.(sanitizer); ok {
		s.Sanitize()
	}
	v, ok := req.(validator)
	if !ok {
		return nil
	}
	err := v.Validate()
	if err == nil {
		return nil
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.New(dErrors.CodeValidation, err.Error())
}

// DecodeAndPrepare decodes the body of r into a new T and prepares it. On
// failure it writes the error response and returns false: a body that is not
// a single well-formed object is a bad_request, a body that fails Validate a
// validation_error. Range checks are left to the ledger.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req := new(T)
	if err := decodeBody(r.Body, req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}

	if err := PrepareRequest(req); err != nil {
		logger.WarnContext(ctx, "invalid request",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
