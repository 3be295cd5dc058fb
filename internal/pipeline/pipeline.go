// Package pipeline runs one lead submission through validation, analysis,
// notification and the optional CRM sync.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studioluxe/leadflow/internal/crm"
	"github.com/studioluxe/leadflow/internal/model"
	"github.com/studioluxe/leadflow/internal/monitoring"
	"github.com/studioluxe/leadflow/internal/resilience"
	"github.com/studioluxe/leadflow/internal/validate"
)

// Caller-visible failure messages.
const (
	MsgInvalidFields = "Invalid fields"
	MsgConfigError   = "Server configuration error: operator email missing"
	MsgUnknownError  = "Unknown error"
)

// Validator checks a raw submission.
type Validator interface {
	Submission(sub model.LeadSubmission) (model.LeadSubmission, error)
}

// Analyzer produces the structured lead analysis.
type Analyzer interface {
	Analyze(ctx context.Context, sub model.LeadSubmission) (*model.LeadAnalysis, error)
}

// Notifier sends the lead reply and the operator summary.
type Notifier interface {
	Ready() error
	Notify(ctx context.Context, sub model.LeadSubmission, analysis *model.LeadAnalysis) error
}

// Pipeline wires the stage collaborators. It holds no per-submission state
// and is safe for concurrent use.
type Pipeline struct {
	validator Validator
	analyzer  Analyzer
	notifier  Notifier
	sink      crm.Sink
	metrics   *monitoring.LeadMetrics
}

// New creates a Pipeline. sink may be nil, in which case the sync stage is
// skipped; metrics may be nil.
func New(v Validator, a Analyzer, n Notifier, sink crm.Sink, metrics *monitoring.LeadMetrics) *Pipeline {
	return &Pipeline{
		validator: v,
		analyzer:  a,
		notifier:  n,
		sink:      sink,
		metrics:   metrics,
	}
}

// CRMEnabled reports whether the sync stage will run.
func (p *Pipeline) CRMEnabled() bool {
	return p.sink != nil
}

// Process runs one submission to completion. It never panics on collaborator
// errors and always returns a Report whose Result is safe to show the caller.
func (p *Pipeline) Process(ctx context.Context, raw model.LeadSubmission) Report {
	rep := Report{SubmissionID: uuid.NewString()}
	log := zap.L().With(zap.String("submission_id", rep.SubmissionID))
	start := time.Now()

	defer func() {
		p.metrics.ObserveSubmission(rep.Kind.outcome())
		log.Info("pipeline: submission finished",
			zap.String("stage", string(rep.Stage)),
			zap.Bool("success", rep.Result.Success),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}()

	// Validating.
	rep.enter(StageValidating)
	sub, err := p.validator.Submission(raw)
	if err != nil {
		log.Warn("pipeline: submission rejected", zap.Strings("fields", validate.Fields(err)))
		p.fail(&rep, KindValidation, err)
		return rep
	}
	log = log.With(zap.String("email", sub.Email), zap.String("budget", string(sub.Budget)))

	// A missing operator address would only surface after the analyzer
	// call; check it before spending one.
	if err := p.notifier.Ready(); err != nil {
		log.Error("pipeline: configuration error", zap.Error(err))
		p.fail(&rep, KindConfig, err)
		return rep
	}

	// Analyzing.
	var analysis *model.LeadAnalysis
	err = p.track(log, &rep, StageAnalyzing, func() error {
		var aerr error
		analysis, aerr = p.analyzer.Analyze(ctx, sub)
		return aerr
	})
	if err != nil {
		return rep
	}
	rep.Analysis = analysis
	p.metrics.ObserveAnalysis(string(analysis.Intent), analysis.IsHighTicket)
	log.Info("pipeline: lead analyzed",
		zap.Int("lead_score", analysis.LeadScore),
		zap.String("intent", string(analysis.Intent)),
		zap.Bool("high_ticket", analysis.IsHighTicket),
	)

	// Notifying.
	err = p.track(log, &rep, StageNotifying, func() error {
		return p.notifier.Notify(ctx, sub, analysis)
	})
	if err != nil {
		return rep
	}

	// Syncing.
	if p.sink != nil {
		err = p.track(log, &rep, StageSyncing, func() error {
			id, cerr := p.sink.CreateLead(ctx, crm.NewRecord(sub, analysis))
			rep.CRMID = id
			return cerr
		})
		if err != nil {
			return rep
		}
		log.Info("pipeline: crm record created",
			zap.String("provider", p.sink.Name()),
			zap.String("crm_id", rep.CRMID),
		)
	}

	rep.enter(StageDone)
	rep.Result = model.Succeeded()
	return rep
}

// track runs one upstream stage, timing it and recording failure.
func (p *Pipeline) track(log *zap.Logger, rep *Report, stage Stage, fn func() error) error {
	rep.enter(stage)
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	p.metrics.ObserveStageLatency(string(stage), elapsed.Seconds())

	if err != nil {
		log.Error("pipeline: stage failed",
			zap.String("stage", string(stage)),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
			zap.Bool("transient", resilience.IsTransient(err)),
			zap.Error(err),
		)
		p.fail(rep, KindUpstream, err)
		return err
	}
	log.Debug("pipeline: stage complete",
		zap.String("stage", string(stage)),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return nil
}

func (p *Pipeline) fail(rep *Report, kind Kind, err error) {
	p.metrics.ObserveStageFailure(string(rep.Stage))
	rep.FailedAt = rep.Stage
	rep.enter(StageFailed)
	rep.Kind = kind
	rep.Err = err
	rep.Result = model.Failed(kind.message(err))
}
