package classifier

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/straja-ai/nlp-phishing/internal/redact"
)

// Options controls how a model bundle is loaded.
type Options struct {
	Dir          string
	SeqLen       int
	IntraThreads int
	InterThreads int
}

// Model wraps the ONNX session and tokenizer of a sequence-classification model.
// It is built once per process and released with Close.
type Model struct {
	session   *ort.AdvancedSession
	tokenizer Tokenizer
	labels    []string
	seqLen    int

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]

	mu     sync.Mutex
	closed bool
}

// LoadModel initializes the ONNX runtime, session, tokenizer and labels.
func LoadModel(opts Options) (*Model, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("model dir is empty")
	}

	modelPath := resolveModelPath(dir)
	if modelPath == "" {
		return nil, fmt.Errorf("no model.onnx found in %s", dir)
	}
	meta, err := loadModelMeta(dir)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	tokenizer, err := LoadTokenizerFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	seqLen := opts.SeqLen
	if seqLen <= 0 {
		seqLen = 512
	}
	if meta.MaxPositions > 0 && seqLen > meta.MaxPositions {
		seqLen = meta.MaxPositions
	}

	if err := initRuntime(dir); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfoWithOptions(modelPath, nil)
	if err != nil {
		return nil, fmt.Errorf("inspect model: %w", err)
	}
	outputName, err := selectOutput(outputs)
	if err != nil {
		return nil, fmt.Errorf("output selection: %w", err)
	}
	needsTokenType := hasInput(inputs, "token_type_ids")

	m := &Model{
		tokenizer: tokenizer,
		labels:    meta.Labels,
		seqLen:    seqLen,
	}
	if err := m.newSession(modelPath, outputName, needsTokenType, opts); err != nil {
		m.destroyTensors()
		return nil, err
	}

	redact.Logf("classifier: loaded %s labels=%v seq_len=%d token_type_ids=%t", filepath.Base(modelPath), m.labels, m.seqLen, needsTokenType)
	return m, nil
}

func (m *Model) newSession(modelPath, outputName string, includeTokenType bool, o Options) error {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("create session options: %w", err)
	}
	defer opts.Destroy()

	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return fmt.Errorf("set graph optimization: %w", err)
	}
	if o.IntraThreads > 0 {
		if err := opts.SetIntraOpNumThreads(o.IntraThreads); err != nil {
			return fmt.Errorf("set intra threads: %w", err)
		}
	}
	if o.InterThreads > 0 {
		if err := opts.SetInterOpNumThreads(o.InterThreads); err != nil {
			return fmt.Errorf("set inter threads: %w", err)
		}
	}

	inputShape := ort.NewShape(1, int64(m.seqLen))
	if m.inputIDs, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		return fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	if m.attentionMask, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		return fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	inputNames := []string{"input_ids", "attention_mask"}
	inputValues := []ort.Value{m.inputIDs, m.attentionMask}
	if includeTokenType {
		if m.tokenTypeIDs, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
			return fmt.Errorf("allocate token_type_ids tensor: %w", err)
		}
		inputNames = append(inputNames, "token_type_ids")
		inputValues = append(inputValues, m.tokenTypeIDs)
	}
	if m.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(m.labels)))); err != nil {
		return fmt.Errorf("allocate output tensor: %w", err)
	}

	m.session, err = ort.NewAdvancedSession(
		modelPath,
		inputNames,
		[]string{outputName},
		inputValues,
		[]ort.Value{m.output},
		opts,
	)
	if err != nil {
		return fmt.Errorf("create onnx session: %w", err)
	}
	return nil
}

// Classify runs one inference over text and returns the top-ranked label.
func (m *Model) Classify(text string) (Prediction, error) {
	if m == nil || m.session == nil || m.tokenizer == nil {
		return Prediction{}, errors.New("classifier model not initialized")
	}
	if strings.TrimSpace(text) == "" {
		return Prediction{}, errors.New("empty input text")
	}

	inputIDs, attn := m.tokenizer.Encode(text, m.seqLen)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Prediction{}, errors.New("classifier model closed")
	}

	copy(m.inputIDs.GetData(), inputIDs)
	copy(m.attentionMask.GetData(), attn)
	if m.tokenTypeIDs != nil {
		clear(m.tokenTypeIDs.GetData())
	}
	if debugML() {
		logTokenization(m.seqLen, inputIDs, attn)
	}

	if err := m.session.Run(); err != nil {
		return Prediction{}, fmt.Errorf("onnx run: %w", err)
	}

	raw := append([]float32(nil), m.output.GetData()...)
	pred, err := predictionFromLogits(raw, m.labels)
	if err != nil {
		return Prediction{}, err
	}
	if debugML() {
		redact.Logf("classifier debug ml: logits=%v label=%s score=%.4f", raw, pred.Label, pred.Score)
	}
	return pred, nil
}

// Labels returns the model's output labels in class-index order.
func (m *Model) Labels() []string {
	return append([]string(nil), m.labels...)
}

// SeqLen is the effective token limit used for encoding.
func (m *Model) SeqLen() int { return m.seqLen }

// Close releases the session, its tensors and the ONNX runtime environment.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	if m.session != nil {
		errs = append(errs, m.session.Destroy())
	}
	errs = append(errs, m.destroyTensors())
	if ort.IsInitialized() {
		errs = append(errs, ort.DestroyEnvironment())
	}
	return errors.Join(errs...)
}

func (m *Model) destroyTensors() error {
	var errs []error
	for _, t := range []*ort.Tensor[int64]{m.inputIDs, m.attentionMask, m.tokenTypeIDs} {
		if t != nil {
			errs = append(errs, t.Destroy())
		}
	}
	if m.output != nil {
		errs = append(errs, m.output.Destroy())
	}
	return errors.Join(errs...)
}

func selectOutput(outputs []ort.InputOutputInfo) (string, error) {
	if len(outputs) == 0 {
		return "", fmt.Errorf("no outputs found")
	}
	for _, out := range outputs {
		if strings.EqualFold(out.Name, "logits") {
			return out.Name, nil
		}
	}
	if len(outputs) == 1 {
		return outputs[0].Name, nil
	}
	names := make([]string, 0, len(outputs))
	for _, out := range outputs {
		names = append(names, out.Name)
	}
	return "", fmt.Errorf("multiple outputs found without logits: %v", names)
}

func hasInput(inputs []ort.InputOutputInfo, name string) bool {
	for _, in := range inputs {
		if in.Name == name {
			return true
		}
	}
	return false
}

func logTokenization(maxTokens int, inputIDs, attn []int64) {
	count := 0
	for _, v := range attn {
		if v > 0 {
			count++
		}
	}
	preview := inputIDs
	if len(preview) > 8 {
		preview = preview[:8]
	}
	redact.Logf("classifier debug ml: max_tokens=%d token_count=%d first_ids=%v", maxTokens, count, preview)
}
