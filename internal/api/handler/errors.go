package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/Rrens/rag-chatbot/internal/api/response"
	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names so details match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// On failure it writes the 400 response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, message string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			response.ValidationError(w, message, fieldErrors(validationErrors))
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}
	return true
}

func fieldErrors(validationErrors validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			details[field] = "field is required"
		case "oneof":
			details[field] = "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
		case "min":
			details[field] = "must be at least " + e.Param()
		case "max":
			details[field] = "must be at most " + e.Param() + " characters"
		default:
			details[field] = "validation failed on " + e.Tag()
		}
	}
	return details
}

// writeError maps a service error to its HTTP status. Unexpected errors are
// logged and reported with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr  *domain.ValidationError
		authErr        *domain.AuthError
		notFoundErr    *domain.NotFoundError
		providerErr    *domain.ProviderCallError
		unsupportedErr *domain.UnsupportedProviderError
	)

	switch {
	case errors.As(err, &validationErr):
		response.ValidationError(w, validationErr.Message, validationErr.Fields)
	case errors.As(err, &authErr):
		response.Unauthorized(w, "Invalid API key")
	case errors.As(err, &notFoundErr):
		response.NotFound(w, notFoundErr.Error())
	case errors.As(err, &providerErr):
		logError(r, err)
		response.InternalError(w, providerErr.PublicMessage())
	case errors.As(err, &unsupportedErr):
		logError(r, err)
		response.InternalError(w, unsupportedErr.Error())
	default:
		logError(r, err)
		response.InternalError(w, "Internal server error")
	}
}

func logError(r *http.Request, err error) {
	log.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Request failed")
}
