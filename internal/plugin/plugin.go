// Package plugin wires one host job through the analyzer and back out as a report.
package plugin

import (
	"context"
	"fmt"

	"github.com/straja-ai/nlp-phishing/internal/analyzer"
	"github.com/straja-ai/nlp-phishing/internal/job"
	"github.com/straja-ai/nlp-phishing/internal/redact"
	"github.com/straja-ai/nlp-phishing/internal/report"
)

type Plugin struct {
	analyzer *analyzer.Analyzer
	opts     report.Options
}

// New checks that the report options can rate the analyzer's labels.
func New(a *analyzer.Analyzer, opts report.Options) (*Plugin, error) {
	if err := opts.CheckLabels(a.Labels()); err != nil {
		return nil, err
	}
	return &Plugin{analyzer: a, opts: opts}, nil
}

// Run reads the job, analyzes it and writes exactly one report.
func (p *Plugin) Run(ctx context.Context, jobIO *job.IO) error {
	j, err := jobIO.Read()
	if err != nil {
		failure := &analyzer.Error{Kind: analyzer.KindDecode, Msg: "invalid job input", Err: err}
		redact.Logf("nlp-phishing: %v", failure)
		return jobIO.Write(report.Failure(failure, nil))
	}

	rep := p.Handle(ctx, jobIO, j)
	if err := jobIO.Write(rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Handle runs the analysis for j and formats the result.
func (p *Plugin) Handle(ctx context.Context, jobIO *job.IO, j job.Job) report.Report {
	payload := j.Payload()
	if j.DataType == analyzer.DataTypeFile && jobIO != nil {
		payload = jobIO.ResolvePath(payload)
	}

	pred, err := p.analyzer.Analyze(ctx, analyzer.Request{DataType: j.DataType, Payload: payload})
	if err != nil {
		redact.Logf("nlp-phishing: analysis failed type=%s: %v", j.DataType, err)
		return report.Failure(err, j.Echo())
	}
	return report.Success(pred, p.opts)
}
