package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/studioluxe/leadflow/internal/model"
	"github.com/studioluxe/leadflow/internal/pipeline"
)

type contactHandler struct {
	processor Processor
	maxBody   int64
}

// ServeHTTP decodes a contact-form submission and runs the pipeline. The
// body is always a PipelineResult; the status code tells operators and
// proxies what kind of failure occurred.
func (h *contactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var sub model.LeadSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		zap.L().Warn("http: undecodable contact body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, model.Failed(pipeline.MsgInvalidFields))
		return
	}

	// A submission runs to the end once accepted: the lead may already have
	// its reply when the browser goes away. Stage timeouts still apply.
	rep := h.processor.Process(context.WithoutCancel(r.Context()), sub)
	writeJSON(w, StatusFor(rep), rep.Result)
}

// StatusFor maps a pipeline report to an HTTP status code.
func StatusFor(rep pipeline.Report) int {
	if rep.Result.Success {
		return http.StatusOK
	}
	switch rep.Kind {
	case pipeline.KindValidation:
		return http.StatusUnprocessableEntity
	case pipeline.KindConfig:
		return http.StatusInternalServerError
	}
	if rep.Transient() {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("http: write response", zap.Error(err))
	}
}
