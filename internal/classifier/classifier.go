// Package classifier runs a pretrained sequence-classification model over
// email text and returns its top-ranked label.
package classifier

import (
	"errors"
	"math"
	"os"
	"strconv"
	"strings"
)

// DefaultMaxChars is the character budget applied before tokenization. It
// approximates the 512-token limit of BERT-family models.
const DefaultMaxChars = 512

// Prediction is the top-ranked class for one input.
type Prediction struct {
	Label  string             `json:"label"`
	Score  float64            `json:"score"`
	Scores map[string]float64 `json:"scores,omitempty"`
}

// Classifier is a text classifier invoked once per input.
type Classifier interface {
	Classify(text string) (Prediction, error)
	Labels() []string
}

// Truncate returns the first maxChars code points of text. maxChars <= 0
// leaves text untouched.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}

func predictionFromLogits(logits []float32, labels []string) (Prediction, error) {
	if len(logits) == 0 {
		return Prediction{}, errors.New("model returned no logits")
	}
	if len(labels) > 0 && len(logits) > len(labels) {
		logits = logits[:len(labels)]
	}

	var probs []float32
	if len(logits) == 1 {
		probs = []float32{sigmoid(logits[0])}
	} else {
		probs = softmax(logits)
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	scores := make(map[string]float64, len(probs))
	for i, p := range probs {
		scores[labelAt(labels, i)] = float64(p)
	}
	return Prediction{
		Label:  labelAt(labels, best),
		Score:  float64(probs[best]),
		Scores: scores,
	}, nil
}

func labelAt(labels []string, idx int) string {
	if idx < len(labels) && labels[idx] != "" {
		return labels[idx]
	}
	return "LABEL_" + strconv.Itoa(idx)
}

func softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	sum := 0.0
	out := make([]float32, len(logits))
	for i, v := range logits {
		exp := math.Exp(float64(v - maxVal))
		out[i] = float32(exp)
		sum += exp
	}
	if sum == 0 {
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

func sigmoid(v float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(v))))
}

func debugML() bool {
	return strings.TrimSpace(os.Getenv("NLP_PHISHING_DEBUG_ML")) == "1"
}
