package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	"mastery/pkg/requestcontext"
)

// ErrorResponse is the body written for every rejected request.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, so an encoding failure cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError translates a domain error into its HTTP status and error body.
// Errors without a domain code are reported as internal errors and their
// message is not exposed.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorResponse{
			Error:            DomainCodeToHTTPCode(domainErr.Code),
			ErrorDescription: domainErr.Message,
		})
		return
	}

	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvariantViolation,
		dErrors.CodeInvalidCourseID, dErrors.CodeInvalidScore, dErrors.CodeInvalidThreshold,
		dErrors.CodeInvalidProof, dErrors.CodeInvalidVerificationType, dErrors.CodeInvalidDifficulty,
		dErrors.CodeInvalidExpiry, dErrors.CodeInvalidMetadata, dErrors.CodeInvalidUpdateParam:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotAuthorized, dErrors.CodeOracleNotAuthorized:
		return http.StatusForbidden
	case dErrors.CodeAlreadyVerified, dErrors.CodeNftAlreadyIssued:
		return http.StatusConflict
	case dErrors.CodeNotVerified, dErrors.CodeMaxVerificationsExceeded:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTransferFailed:
		return http.StatusPaymentRequired
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the "error" field of
// the JSON body. Ledger codes pass through unchanged.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return "validation_error"
	case dErrors.CodeTimeout:
		return "ledger_timeout"
	case "":
		return string(dErrors.CodeInternal)
	default:
		if DomainCodeToHTTPStatus(code) == http.StatusInternalServerError {
			return string(dErrors.CodeInternal)
		}
		return string(code)
	}
}

// RequirePrincipal extracts the authenticated caller from context.
// A missing caller behind the auth middleware is a wiring fault, not a client
// error, so it is reported as internal.
func RequirePrincipal(ctx context.Context, logger *slog.Logger) (id.Principal, error) {
	caller := requestcontext.Principal(ctx)
	if caller.IsNil() {
		if logger != nil {
			logger.ErrorContext(ctx, "principal missing from context despite auth middleware",
				"request_id", requestcontext.RequestID(ctx))
		}
		return "", dErrors.New(dErrors.CodeInternal, "authentication context error")
	}
	return caller, nil
}
