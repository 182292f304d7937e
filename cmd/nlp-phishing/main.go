package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/straja-ai/nlp-phishing/internal/analyzer"
	"github.com/straja-ai/nlp-phishing/internal/classifier"
	"github.com/straja-ai/nlp-phishing/internal/config"
	"github.com/straja-ai/nlp-phishing/internal/job"
	"github.com/straja-ai/nlp-phishing/internal/plugin"
	"github.com/straja-ai/nlp-phishing/internal/redact"
	"github.com/straja-ai/nlp-phishing/internal/report"
)

func main() {
	configPath := flag.String("config", "nlp-phishing.yaml", "Path to analyzer config file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		redact.Fatalf("failed to load config: %v", err)
	}
	if flag.NArg() > 0 {
		cfg.Job.Dir = flag.Arg(0)
	}
	if err := config.Validate(cfg); err != nil {
		redact.Fatalf("invalid config: %v", err)
	}

	model, err := classifier.LoadModel(classifier.Options{
		Dir:          cfg.Model.Dir,
		SeqLen:       cfg.Model.SeqLen,
		IntraThreads: cfg.Model.IntraThreads,
		InterThreads: cfg.Model.InterThreads,
	})
	if err != nil {
		redact.Fatalf("load classifier model: %v", err)
	}

	runID := uuid.NewString()
	ctx := analyzer.WithRunID(context.Background(), runID)

	jobIO := job.Open(cfg.Job.Dir, os.Stdin, os.Stdout)
	redact.Logf("nlp-phishing: run=%s job_dir=%s dir_mode=%t", runID, cfg.Job.Dir, jobIO.DirMode())

	p, err := plugin.New(
		analyzer.New(model, analyzer.Options{MaxChars: cfg.Model.MaxChars}),
		report.Options{
			Namespace:      cfg.Report.Namespace,
			Predicate:      cfg.Report.Predicate,
			PhishingLabels: cfg.Report.PhishingLabels,
			Warn:           cfg.Report.Thresholds.Warn,
			Block:          cfg.Report.Thresholds.Block,
		},
	)
	if err != nil {
		_ = model.Close()
		redact.Fatalf("invalid report config: %v", err)
	}
	runErr := p.Run(ctx, jobIO)

	if err := model.Close(); err != nil {
		redact.Logf("nlp-phishing: run=%s release model: %v", runID, err)
	}
	if runErr != nil {
		redact.Fatalf("nlp-phishing: run=%s %v", runID, runErr)
	}
}
