// Package report builds the host-facing success and error documents.
package report

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/straja-ai/nlp-phishing/internal/analyzer"
	"github.com/straja-ai/nlp-phishing/internal/classifier"
)

// Taxonomy levels understood by the host.
const (
	LevelInfo       = "info"
	LevelSafe       = "safe"
	LevelSuspicious = "suspicious"
	LevelMalicious  = "malicious"
)

// Options decide how a prediction maps to a taxonomy.
type Options struct {
	Namespace      string
	Predicate      string
	PhishingLabels []string
	Warn           float64
	Block          float64
}

type Taxonomy struct {
	Level     string `json:"level"`
	Namespace string `json:"namespace"`
	Predicate string `json:"predicate"`
	Value     string `json:"value"`
}

type Summary struct {
	Label      string     `json:"label"`
	Score      float64    `json:"score"`
	Taxonomies []Taxonomy `json:"taxonomies"`
}

// Report is the single document written back to the host. Success reports
// carry Summary and Full; error reports carry ErrorMessage, ErrorKind and Input.
type Report struct {
	Success      bool                   `json:"success"`
	Summary      *Summary               `json:"summary,omitempty"`
	Full         *classifier.Prediction `json:"full,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	ErrorKind    string                 `json:"errorKind,omitempty"`
	Input        any                    `json:"input,omitempty"`
}

// Success packages a prediction. The summary score is rounded to 4 decimals.
func Success(pred classifier.Prediction, opts Options) Report {
	score := Round(pred.Score, 4)
	full := pred
	return Report{
		Success: true,
		Summary: &Summary{
			Label: pred.Label,
			Score: score,
			Taxonomies: []Taxonomy{{
				Level:     Level(pred, opts),
				Namespace: opts.Namespace,
				Predicate: opts.Predicate,
				Value:     fmt.Sprintf("%s (%.4f)", pred.Label, score),
			}},
		},
		Full: &full,
	}
}

// Failure packages an error. input is echoed back for the host's job view.
func Failure(err error, input any) Report {
	if err == nil {
		err = errors.New("unknown failure")
	}
	kind := "UnknownError"
	if k, ok := analyzer.KindOf(err); ok {
		kind = k.String()
	}
	return Report{
		Success:      false,
		ErrorMessage: err.Error(),
		ErrorKind:    kind,
		Input:        input,
	}
}

// Level maps a prediction to a taxonomy level.
func Level(pred classifier.Prediction, opts Options) string {
	if !isPhishingLabel(pred.Label, opts.PhishingLabels) {
		return LevelSafe
	}
	switch {
	case pred.Score >= opts.Block:
		return LevelMalicious
	case pred.Score >= opts.Warn:
		return LevelSuspicious
	default:
		return LevelInfo
	}
}

// CheckLabels fails when none of the configured phishing labels is one the
// model can produce; every report would then be rated safe.
func (o Options) CheckLabels(modelLabels []string) error {
	for _, l := range modelLabels {
		if isPhishingLabel(l, o.PhishingLabels) {
			return nil
		}
	}
	return fmt.Errorf("phishing labels %v match none of the model labels %v", o.PhishingLabels, modelLabels)
}

func isPhishingLabel(label string, labels []string) bool {
	for _, l := range labels {
		if strings.EqualFold(strings.TrimSpace(l), label) {
			return true
		}
	}
	return false
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
