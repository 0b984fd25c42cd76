package utils

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// ErrorBody is the JSON body of failed debug and document API calls.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON marshals data and writes it with statusCode and a JSON content
// type. When marshaling fails nothing but a 500 is written and the error is
// returned.
//
//	utils.WriteJSON(w, report, http.StatusOK)
func WriteJSON(w http.ResponseWriter, data any, statusCode int) (int, error) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "error writing data to JSON", http.StatusInternalServerError)
		return 0, fmt.Errorf("error writing data to JSON: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return w.Write(body)
}

// WriteError writes err as an [ErrorBody]. A nil err falls back to the
// status text.
func WriteError(w http.ResponseWriter, err error, statusCode int) {
	msg := http.StatusText(statusCode)
	if err != nil {
		msg = err.Error()
	}
	WriteJSON(w, ErrorBody{Error: msg}, statusCode)
}
