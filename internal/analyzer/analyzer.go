// Package analyzer turns a host job into a phishing/legitimate prediction:
// resolve the input, extract the mail body, classify it.
package analyzer

import (
	"context"
	"strings"

	"github.com/straja-ai/nlp-phishing/internal/classifier"
	"github.com/straja-ai/nlp-phishing/internal/mailtext"
	"github.com/straja-ai/nlp-phishing/internal/redact"
)

type runIDKey struct{}

// WithRunID attaches a run id to ctx for log correlation.
func WithRunID(ctx context.Context, runID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runIDKey{}, runID)
}

func runIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runIDKey{}).(string); ok {
		return v
	}
	return ""
}

// Options tune an Analyzer.
type Options struct {
	// MaxChars is the character budget for the classifier input; 0 disables truncation.
	MaxChars int
}

// Analyzer runs one request through resolve -> extract -> classify.
type Analyzer struct {
	clf      classifier.Classifier
	maxChars int
}

func New(clf classifier.Classifier, opts Options) *Analyzer {
	return &Analyzer{clf: clf, maxChars: opts.MaxChars}
}

// Labels are the classifier's output labels.
func (a *Analyzer) Labels() []string { return a.clf.Labels() }

// Analyze returns the classifier's top prediction for req, or an *Error.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (classifier.Prediction, error) {
	runID := runIDFromContext(ctx)

	in, err := resolve(req)
	if err != nil {
		return classifier.Prediction{}, err
	}

	text := in.text
	if in.isMIME {
		if err := sniffMessage(in.raw); err != nil {
			return classifier.Prediction{}, err
		}
		text, err = mailtext.Extract(in.raw)
		if err != nil {
			return classifier.Prediction{}, newError(KindNoContent, "no text content found to analyze", err)
		}
		redact.Logf("nlp-phishing: run=%s extracted %d chars from %d bytes of %s data", runID, len(text), len(in.raw), req.DataType)
	}

	if strings.TrimSpace(text) == "" {
		return classifier.Prediction{}, newError(KindNoContent, "no text content found to analyze", nil)
	}

	snippet := classifier.Truncate(text, a.maxChars)
	pred, err := a.clf.Classify(snippet)
	if err != nil {
		return classifier.Prediction{}, newError(KindInference, "classifier failed", err)
	}
	redact.Logf("nlp-phishing: run=%s label=%s score=%.4f snippet=%q", runID, pred.Label, pred.Score, redact.Preview(snippet, 60))
	return pred, nil
}
