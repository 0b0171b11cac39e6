package http

import (
	"encoding/json"
	"net/http"
)

type response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, status bool, message string, data, errs any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response{
		Status:  status,
		Message: message,
		Data:    data,
		Errors:  errs,
	})
}

func respondOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, true, message, data, nil)
}

func respondCreated(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, true, message, data, nil)
}

func respondBadRequest(w http.ResponseWriter, message string, errs any) {
	writeJSON(w, http.StatusBadRequest, false, message, nil, errs)
}
