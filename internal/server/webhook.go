package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/teemow/availcheck/internal/availability"
	"github.com/teemow/availcheck/internal/logging"
	"github.com/teemow/availcheck/internal/report"
	"github.com/teemow/availcheck/internal/timeparse"
	"github.com/teemow/availcheck/internal/trigger"
)

// FormSubmitPath is the route the form's submit hook posts to.
const FormSubmitPath = "/v1/form-submit"

// maxBodyBytes bounds the size of a submission payload.
const maxBodyBytes = 1 << 20

// SubmissionHandler processes one form submission.
type SubmissionHandler interface {
	Handle(ctx context.Context, sub trigger.Submission) (*trigger.Outcome, error)
}

// FormSubmitRequest mirrors the namedValues of a form submit event.
type FormSubmitRequest struct {
	NamedValues map[string][]string `json:"namedValues"`
	// RespondentEmail is set when the form collects emails. It only feeds
	// the audit log.
	RespondentEmail string `json:"respondentEmail,omitempty"`
}

// FormSubmitResponse is returned for a processed submission.
type FormSubmitResponse struct {
	RunID     string                   `json:"run_id"`
	Available []string                 `json:"available"`
	Busy      []string                 `json:"busy"`
	Errors    []availability.UserError `json:"errors"`
}

// ErrorResponse is the body of every non-2xx webhook response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FormHandler serves FormSubmitPath.
type FormHandler struct {
	handler SubmissionHandler
	health  *HealthChecker
	logger  *slog.Logger
}

// NewFormHandler creates a FormHandler. health may be nil.
func NewFormHandler(h SubmissionHandler, health *HealthChecker, logger *slog.Logger) *FormHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormHandler{
		handler: h,
		health:  health,
		logger:  logging.WithOperation(logger, "form_submit"),
	}
}

func (f *FormHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	var req FormSubmitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	if req.NamedValues == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "namedValues is required"})
		return
	}

	ctx := r.Context()
	if req.RespondentEmail != "" {
		ctx = trigger.WithRequester(ctx, req.RespondentEmail)
	}

	out, err := f.handler.Handle(ctx, trigger.Submission(req.NamedValues))
	if f.health != nil {
		runID := ""
		if out != nil {
			runID = out.RunID
		}
		f.health.RecordRun(runID, err)
	}
	if err != nil {
		code := statusForError(err)
		if code >= http.StatusInternalServerError {
			f.logger.Error("form submission failed", logging.Err(err))
		}
		writeJSON(w, code, ErrorResponse{Error: err.Error()})
		return
	}

	resp := FormSubmitResponse{
		RunID:     out.RunID,
		Available: nonNil(out.Result.Available),
		Busy:      nonNil(out.Result.Busy),
		Errors:    out.Result.Errors,
	}
	if resp.Errors == nil {
		resp.Errors = []availability.UserError{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusForError(err error) int {
	var inputErr *trigger.InputError
	var writeErr *report.WriteError
	switch {
	case errors.As(err, &inputErr), errors.Is(err, timeparse.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.As(err, &writeErr):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
