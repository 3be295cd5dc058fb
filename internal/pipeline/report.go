package pipeline

import (
	"github.com/studioluxe/leadflow/internal/model"
	"github.com/studioluxe/leadflow/internal/resilience"
)

// Stage is a pipeline state. States only move forward.
type Stage string

const (
	StageValidating Stage = "validating"
	StageAnalyzing  Stage = "analyzing"
	StageNotifying  Stage = "notifying"
	StageSyncing    Stage = "syncing"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Kind classifies why a submission failed.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindConfig
	KindUpstream
)

// outcome is the metrics label for a finished submission.
func (k Kind) outcome() string {
	switch k {
	case KindValidation:
		return "invalid"
	case KindConfig:
		return "config_error"
	case KindUpstream:
		return "upstream_error"
	default:
		return "success"
	}
}

func (k Kind) message(err error) string {
	switch k {
	case KindValidation:
		return MsgInvalidFields
	case KindConfig:
		return MsgConfigError
	}
	if err == nil || err.Error() == "" {
		return MsgUnknownError
	}
	return err.Error()
}

// Report is the outcome of one Process call. Only Result is meant for the
// submitter; the rest is for logs and transport status mapping.
type Report struct {
	SubmissionID string
	Result       model.Result
	// Stage is the terminal state, StageDone or StageFailed.
	Stage Stage
	// FailedAt is the stage that failed, empty on success.
	FailedAt Stage
	// Trace lists every state entered, in order.
	Trace    []Stage
	Kind     Kind
	Err      error
	Analysis *model.LeadAnalysis
	CRMID    string
}

// Transient reports whether the failure came from an upstream service in
// a way that is expected to clear on its own.
func (r Report) Transient() bool {
	return r.Kind == KindUpstream && resilience.IsTransient(r.Err)
}

func (r *Report) enter(s Stage) {
	r.Stage = s
	r.Trace = append(r.Trace, s)
}
