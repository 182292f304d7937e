package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"github.com/straja-ai/nlp-phishing/internal/classifier"
	"github.com/straja-ai/nlp-phishing/internal/config"
)

func main() {
	cfgPath := flag.String("config", "nlp-phishing.yaml", "path to config yaml")
	n := flag.Int("n", 200, "number of iterations")
	text := flag.String("text", "Your account has been suspended, click here to verify your identity.", "text to classify")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	model, err := classifier.LoadModel(classifier.Options{
		Dir:          cfg.Model.Dir,
		SeqLen:       cfg.Model.SeqLen,
		IntraThreads: cfg.Model.IntraThreads,
		InterThreads: cfg.Model.InterThreads,
	})
	if err != nil {
		log.Fatalf("load classifier model: %v", err)
	}
	defer model.Close()

	snippet := classifier.Truncate(*text, cfg.Model.MaxChars)

	// Warmup
	var pred classifier.Prediction
	for i := 0; i < 5; i++ {
		if pred, err = model.Classify(snippet); err != nil {
			log.Fatalf("warmup classify failed: %v", err)
		}
	}

	if *n <= 0 {
		*n = 1
	}

	durations := make([]time.Duration, 0, *n)
	for i := 0; i < *n; i++ {
		start := time.Now()
		if _, err := model.Classify(snippet); err != nil {
			log.Fatalf("classify failed: %v", err)
		}
		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	avg := float64(total.Microseconds()) / 1000.0 / float64(len(durations))
	p50 := float64(durations[len(durations)/2].Microseconds()) / 1000.0
	p95 := float64(durations[int(float64(len(durations))*0.95)].Microseconds()) / 1000.0

	fmt.Printf("bench: n=%d avg_ms=%.2f p50_ms=%.2f p95_ms=%.2f seq_len=%d model_dir=%s label=%s score=%.4f\n",
		len(durations),
		avg,
		p50,
		p95,
		model.SeqLen(),
		cfg.Model.Dir,
		pred.Label,
		pred.Score,
	)
}
