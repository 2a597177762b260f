package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
)

// Largest accepted JSON body; an itinerary of a long trip fits easily
const maxBodySize = 1 << 20

var validate = validator.New()

func init() {
	configureValidator(validate)
}

type Struct any

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONWithStatus(w, data, http.StatusOK)
}

// Render ServiceError
func ServiceError(w http.ResponseWriter, error string, code int) {
	JSONWithStatus(w, ErrorResponse{Error: error}, code)
}

// Render ServiceError with details, usually the upstream reason
func ServiceErrorDetails(w http.ResponseWriter, error string, details string, code int) {
	JSONWithStatus(w, ErrorResponse{Error: error, Details: details}, code)
}

// Render plain text response
func Text(w http.ResponseWriter, text string, code int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = fmt.Fprintln(w, text)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	JSONWithStatus(w, ErrorResponse{Error: DecodingErrorType, Details: DecodeErrorDetails(err)}, http.StatusBadRequest)
}

// Human readable reason of JSON decoding failure
func DecodeErrorDetails(err error) string {
	var typeErr *json.UnmarshalTypeError
	var sizeErr *http.MaxBytesError

	// Try to provide more specific error message based on error type
	switch {
	case errors.As(err, &typeErr):
		return fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	case errors.As(err, &sizeErr):
		return fmt.Sprintf("Request body is larger than %d bytes", sizeErr.Limit)
	default:
		return fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}
}

// Render ValidationErrors
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	JSONWithStatus(w, ErrorResponse{
		Error:   ValidationErrorType,
		Details: "Request validation failed",
		Fields:  ValidationFields(errs),
	}, http.StatusBadRequest)
}

// Create user-friendly error messages based on validation tag
func ValidationFields(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))

	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required", "notblank":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		default:
			message = "Invalid value"
		}

		fields[fieldError.Field()] = message
	}

	return fields
}

// Decode JSON request body into type T and validate it using struct tags.
// Writes nothing: returned error is either decoding error or validator.ValidationErrors
func Decode[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		return value, err
	}

	return value, validate.Struct(value)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	value, err := Decode[T](w, r)

	var errs validator.ValidationErrors
	switch {
	case err == nil:
		return value, nil
	case errors.As(err, &errs):
		ValidationErrors(w, errs)
	default:
		DecodeError(w, err)
	}

	return value, err
}

// JSONWithStatus sends data as json and enforces status code
func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
