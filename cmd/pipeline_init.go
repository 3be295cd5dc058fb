package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/studioluxe/leadflow/internal/analyzer"
	"github.com/studioluxe/leadflow/internal/config"
	"github.com/studioluxe/leadflow/internal/crm"
	"github.com/studioluxe/leadflow/internal/monitoring"
	"github.com/studioluxe/leadflow/internal/notify"
	"github.com/studioluxe/leadflow/internal/pipeline"
	"github.com/studioluxe/leadflow/internal/validate"
	anthropicpkg "github.com/studioluxe/leadflow/pkg/anthropic"
	"github.com/studioluxe/leadflow/pkg/sendgrid"
)

// pipelineEnv holds the pipeline and the metrics registry used by the
// serve and submit commands.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	Registry *prometheus.Registry
}

// initPipeline validates config for mode, builds every client and wires the
// Pipeline. The CRM sink is resolved once here.
func initPipeline(c *config.Config, mode string) (*pipelineEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewLeadMetrics(reg)

	aiClient := anthropicpkg.NewClient(c.Anthropic.Key, anthropicpkg.WithBaseURL(c.Anthropic.BaseURL))
	mailClient := sendgrid.NewClient(c.Email.SendGridKey, sendgrid.WithBaseURL(c.Email.BaseURL))

	sink, err := crm.New(c)
	if err != nil {
		return nil, eris.Wrap(err, "init pipeline")
	}

	notifier := notify.New(mailClient, c)
	if err := notifier.Ready(); err != nil {
		zap.L().Warn("operator email missing; every submission will fail with a configuration error")
	}

	p := pipeline.New(
		validate.New(),
		analyzer.New(aiClient, c),
		notifier,
		sink,
		metrics,
	)
	zap.L().Info("pipeline initialized",
		zap.String("model", c.Anthropic.Model),
		zap.Bool("crm_enabled", p.CRMEnabled()),
		zap.String("crm_provider", c.CRM.Provider),
	)

	return &pipelineEnv{Pipeline: p, Registry: reg}, nil
}
