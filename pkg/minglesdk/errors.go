package minglesdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/mingle/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest  = "invalid_request"
	ErrorCodeValidation      = "validation_error"
	ErrorCodeUnauthorized    = "unauthorized"
	ErrorCodeForbidden       = "forbidden"
	ErrorCodeNotFound        = "not_found"
	ErrorCodeConflict        = "conflict"
	ErrorCodeInvalidCode     = "invalid_code"
	ErrorCodeTooManyRequests = "rate_limit_exceeded"
	ErrorCodeServerError     = "server_error"
)

// APIError is an error returned by the API. Handlers write it with
// WriteError; the client returns it for any unexpected status.
type APIError struct {
	StatusCode  int               `json:"-"`
	Code        string            `json:"error"`
	Description string            `json:"error_description"`
	Details     map[string]string `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{Error: e.Code, ErrorDescription: e.Description})
}

// NewAPIError builds an error to hand to WriteError.
func NewAPIError(status int, code, description string) *APIError {
	return &APIError{StatusCode: status, Code: code, Description: description}
}

// WriteValidationError writes a 400 listing the failing fields.
func WriteValidationError(w http.ResponseWriter, details map[string]string) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Code:    ErrorCodeValidation,
		Message: "request validation failed",
		Details: details,
	})
}

// parseErrorResponse understands both error shapes and falls back to the
// bare status when the body is neither.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var v ValidationErrorResponse
	if err := json.Unmarshal(body, &v); err == nil && v.Code == ErrorCodeValidation {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        v.Code,
			Description: v.Message,
			Details:     v.Details,
		}
	}

	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Code: e.Error, Description: e.ErrorDescription}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("unexpected status %d", resp.StatusCode),
	}
}
