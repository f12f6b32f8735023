package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Pipeline error kinds. Each carries an explicit recovery action in the
// component that raises it: parse errors drop a single feed message, fetch
// and decode errors abandon one notification's enrichment, persistence
// errors drop or truncate the affected rows. None of them is process-fatal.
var (
	ErrParse       = NewError("PARSE_ERROR", "malformed feed payload", http.StatusBadRequest)
	ErrFetch       = NewError("FETCH_ERROR", "artifact retrieval failed", http.StatusBadGateway)
	ErrDecode      = NewError("DECODE_ERROR", "artifact decoding failed", http.StatusUnprocessableEntity)
	ErrPersistence = NewError("PERSISTENCE_ERROR", "database operation failed", http.StatusServiceUnavailable)
	ErrValidation  = NewError("VALIDATION_ERROR", "validation failed", http.StatusBadRequest)
	ErrInternal    = NewError("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
)

type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Cause   error
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match any wrapped instance against its sentinel kind.
func (e *Error) Is(target error) bool {
	var appErr *Error
	if errors.As(target, &appErr) {
		return e.Code == appErr.Code
	}
	return false
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	details := make(map[string]interface{}, len(err.Details)+1)
	for k, v := range err.Details {
		details[k] = v
	}
	details[key] = value
	err.Details = details
	return &err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

func IsParse(err error) bool       { return hasCode(err, ErrParse.Code) }
func IsFetch(err error) bool       { return hasCode(err, ErrFetch.Code) }
func IsDecode(err error) bool      { return hasCode(err, ErrDecode.Code) }
func IsPersistence(err error) bool { return hasCode(err, ErrPersistence.Code) }
func IsValidation(err error) bool  { return hasCode(err, ErrValidation.Code) }

func hasCode(err error, code string) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func ToHTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

func ToErrorResponse(err error) map[string]interface{} {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternal.WithCause(err)
	}

	response := map[string]interface{}{
		"error":      appErr.Message,
		"error_code": appErr.Code,
	}

	if len(appErr.Details) > 0 {
		response["details"] = appErr.Details
	}

	return response
}
