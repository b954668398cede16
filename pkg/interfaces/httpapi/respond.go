package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/domain/errs"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Current   string `json:"current_status,omitempty"`
	Attempted string `json:"attempted_status,omitempty"`
}

// StatusFor maps the error taxonomy onto HTTP status codes
func StatusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindWorkflow:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) respond(w http.ResponseWriter, r *http.Request, status int, body any, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, body)
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: err.Error(), Kind: errs.KindOf(err).String()}

	var wf *errs.WorkflowError
	if errors.As(err, &wf) {
		resp.Current = wf.Current
		resp.Attempted = wf.Attempted
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		resp.Error = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeJSON reads a request body; optional bodies may be empty
func decodeJSON(r *http.Request, out any, optional bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return errs.Validation("request body", "%v", err)
	}
	return nil
}
