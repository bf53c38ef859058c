package response

import (
	"encoding/json"
	"net/http"

	"pcbank/domain/entities"

	log "github.com/sirupsen/logrus"
)

// ErrorBody is the JSON body of every failed request
type ErrorBody struct {
	Error     string `json:"error"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// JSON writes v with the given status code
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response body")
	}
}

// OK writes v with 200
func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

// Created writes v with 201
func Created(w http.ResponseWriter, v any) {
	JSON(w, http.StatusCreated, v)
}

// Error maps err to a status code and writes the error body. Errors that are
// not domain errors are reported as internal failures without detail.
func Error(w http.ResponseWriter, err error) {
	de, ok := entities.AsDomainError(err)
	if !ok {
		JSON(w, http.StatusInternalServerError, ErrorBody{
			Error:   "internal",
			Reason:  "internal",
			Message: "internal server error",
		})
		return
	}

	JSON(w, StatusFor(de), ErrorBody{
		Error:     string(de.Kind),
		Reason:    string(de.Reason),
		Message:   de.Message,
		Retryable: de.Retryable,
	})
}

// StatusFor returns the HTTP status of a domain error. Storage failures are
// 503 only when retrying can succeed.
func StatusFor(de *entities.DomainError) int {
	switch de.Kind {
	case entities.ErrorKindValidation:
		return http.StatusBadRequest
	case entities.ErrorKindForbidden:
		return http.StatusForbidden
	case entities.ErrorKindNotFound:
		return http.StatusNotFound
	case entities.ErrorKindConflict:
		return http.StatusConflict
	case entities.ErrorKindPrecondition:
		return http.StatusUnprocessableEntity
	case entities.ErrorKindStorage:
		if de.Retryable {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
