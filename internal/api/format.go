package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Formatter writes response bodies as JSON, or as MessagePack when the
// request carries format=msgpack.
type Formatter struct{}

// Write encodes data with the requested status code.
func (f Formatter) Write(w http.ResponseWriter, r *http.Request, status int, data any) {
	var err error
	if r.URL.Query().Get("format") == "msgpack" {
		err = f.writeMsgPack(w, status, data)
	} else {
		err = f.writeJSON(w, status, data)
	}
	if err != nil {
		zap.L().Warn("api: write response", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func (f Formatter) writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func (f Formatter) writeMsgPack(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/x-msgpack")
	w.WriteHeader(status)
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	return enc.Encode(data)
}

// errorBody is the envelope every failed request returns.
type errorBody struct {
	Error            string   `json:"error"`
	Message          string   `json:"message,omitempty"`
	ValidationErrors []string `json:"validation_errors,omitempty"`
	Status           string   `json:"status"`
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	body := errorBody{Error: msg, Status: statusError}
	if err != nil {
		body.Message = err.Error()
		zap.L().Error("api: request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	s.format.Write(w, r, status, body)
}

func (s *Server) respondValidation(w http.ResponseWriter, r *http.Request, errs []string) {
	s.format.Write(w, r, http.StatusBadRequest, errorBody{
		Error:            "Validation failed",
		ValidationErrors: errs,
		Status:           statusError,
	})
}

func timestamp(now time.Time) string {
	return now.Format(time.RFC3339)
}
