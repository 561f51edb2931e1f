// Package respond writes the JSON envelopes every endpoint answers with.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"social-service/pkg/apperror"
)

const internalMessage = "Internal server error"

// Envelope is the top level of every response body.
type Envelope map[string]interface{}

func JSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("Error happened in JSON marshal. Err: %s", err)
	}
}

// Success adds "success": true to payload and writes it.
func Success(w http.ResponseWriter, status int, payload Envelope) {
	if payload == nil {
		payload = Envelope{}
	}
	payload["success"] = true
	JSON(w, status, payload)
}

func Message(w http.ResponseWriter, status int, message string) {
	Success(w, status, Envelope{"message": message})
}

// Error answers with the status that err's kind maps to.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ErrorWithStatus(w, r, apperror.HTTPStatus(err), err)
}

// ErrorWithStatus is Error with the status chosen by the caller.
func ErrorWithStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	body := Envelope{"success": false}

	var appErr *apperror.Error
	switch {
	case !errors.As(err, &appErr):
		log.WithField("path", r.URL.Path).Errorf("Unhandled error: %v", err)
		body["error"] = internalMessage
	case appErr.Kind == apperror.KindInternal:
		log.WithField("path", r.URL.Path).Errorf("%v", err)
		body["error"] = internalMessage
	default:
		if status >= http.StatusInternalServerError {
			log.WithField("path", r.URL.Path).Errorf("%v", err)
		}
		body["error"] = appErr.Message
		if len(appErr.Details) > 1 {
			body["errors"] = appErr.Details
		}
	}

	JSON(w, status, body)
}
