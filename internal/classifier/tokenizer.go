package classifier

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxInputCharsPerWord mirrors the BERT tokenizer: longer words map to [UNK].
const maxInputCharsPerWord = 100

type Tokenizer interface {
	Encode(text string, seqLen int) ([]int64, []int64)
}

// WordPieceTokenizer implements a minimal BERT-compatible tokenizer.
type WordPieceTokenizer struct {
	vocab        map[string]int64
	lowerCase    bool
	clsID        int64
	sepID        int64
	padID        int64
	unkID        int64
	continuation string
}

// LoadWordPieceTokenizer builds the tokenizer from vocab.txt.
func LoadWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		vocab[token] = idx
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}

	t := newTokenizerFromVocab(vocab)
	if lower, ok := lowerCaseFromConfig(filepath.Dir(path)); ok {
		t.lowerCase = lower
	}
	return t, nil
}

// LoadTokenizerFromDir loads a tokenizer from vocab.txt or tokenizer.json.
func LoadTokenizerFromDir(dir string) (Tokenizer, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("tokenizer dir is empty")
	}
	candidates := []string{
		filepath.Join(dir, "vocab.txt"),
		filepath.Join(dir, "tokenizer", "vocab.txt"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return LoadWordPieceTokenizer(path)
		}
	}

	jsonCandidates := []string{
		filepath.Join(dir, "tokenizer.json"),
		filepath.Join(dir, "tokenizer", "tokenizer.json"),
	}
	for _, path := range jsonCandidates {
		if _, err := os.Stat(path); err == nil {
			return loadTokenizerFromJSON(path)
		}
	}
	return nil, fmt.Errorf("tokenizer assets not found (vocab.txt or tokenizer.json)")
}

func loadTokenizerFromJSON(path string) (*WordPieceTokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer.json: %w", err)
	}
	var raw struct {
		Normalizer *struct {
			Lowercase *bool `json:"lowercase"`
		} `json:"normalizer"`
		Model struct {
			Type                    string `json:"type"`
			Vocab                   any    `json:"vocab"`
			ContinuingSubwordPrefix string `json:"continuing_subword_prefix"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode tokenizer.json: %w", err)
	}
	if typ := strings.TrimSpace(raw.Model.Type); typ != "" && !strings.EqualFold(typ, "wordpiece") {
		return nil, fmt.Errorf("unsupported tokenizer model type %q", typ)
	}

	vocab := vocabFromAny(raw.Model.Vocab)
	if len(vocab) == 0 {
		return nil, fmt.Errorf("tokenizer.json missing vocab")
	}
	t := newTokenizerFromVocab(vocab)
	if raw.Model.ContinuingSubwordPrefix != "" {
		t.continuation = raw.Model.ContinuingSubwordPrefix
	}
	if raw.Normalizer != nil && raw.Normalizer.Lowercase != nil {
		t.lowerCase = *raw.Normalizer.Lowercase
	}
	return t, nil
}

func newTokenizerFromVocab(vocab map[string]int64) *WordPieceTokenizer {
	return &WordPieceTokenizer{
		vocab:        vocab,
		lowerCase:    true,
		continuation: "##",
		clsID:        vocab["[CLS]"],
		sepID:        vocab["[SEP]"],
		padID:        vocab["[PAD]"],
		unkID:        vocab["[UNK]"],
	}
}

// lowerCaseFromConfig reads do_lower_case from tokenizer_config.json next to the vocab.
func lowerCaseFromConfig(dir string) (bool, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "tokenizer_config.json"))
	if err != nil {
		return false, false
	}
	var cfg struct {
		DoLowerCase *bool `json:"do_lower_case"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil || cfg.DoLowerCase == nil {
		return false, false
	}
	return *cfg.DoLowerCase, true
}

func vocabFromAny(raw any) map[string]int64 {
	switch v := raw.(type) {
	case map[string]any:
		out := make(map[string]int64, len(v))
		for k, val := range v {
			if num, ok := asInt64(val); ok {
				out[k] = num
			}
		}
		return out
	case []any:
		out := make(map[string]int64, len(v))
		for i, item := range v {
			token, ok := item.(string)
			if !ok || token == "" {
				continue
			}
			out[token] = int64(i)
		}
		return out
	default:
		return nil
	}
}

func asInt64(v any) (int64, bool) {
	switch num := v.(type) {
	case float64:
		return int64(num), true
	case int64:
		return num, true
	case int:
		return int64(num), true
	default:
		return 0, false
	}
}

// Encode converts text into token IDs and an attention mask of length seqLen.
// The sequence is framed by [CLS] and [SEP]; tokens past the limit are dropped.
func (t *WordPieceTokenizer) Encode(text string, seqLen int) ([]int64, []int64) {
	if seqLen <= 0 {
		return nil, nil
	}

	maxBody := seqLen - 2
	if maxBody < 0 {
		maxBody = 0
	}
	body := make([]int64, 0, maxBody)
	for _, w := range t.basicTokenize(text) {
		if len(body) >= maxBody {
			break
		}
		pieces := t.wordPiece(w)
		if room := maxBody - len(body); len(pieces) > room {
			pieces = pieces[:room]
		}
		body = append(body, pieces...)
	}

	ids := make([]int64, seqLen)
	attn := make([]int64, seqLen)
	pos := 0
	put := func(id int64) {
		if pos < seqLen {
			ids[pos] = id
			attn[pos] = 1
			pos++
		}
	}
	put(t.clsID)
	for _, id := range body {
		put(id)
	}
	put(t.sepID)
	for ; pos < seqLen; pos++ {
		ids[pos] = t.padID
	}
	return ids, attn
}

// basicTokenize cleans text, splits on whitespace and isolates punctuation.
func (t *WordPieceTokenizer) basicTokenize(text string) []string {
	var words []string
	for _, w := range strings.Fields(cleanText(text)) {
		if t.lowerCase {
			w = stripAccents(strings.ToLower(w))
		}
		words = append(words, splitPunctuation(w)...)
	}
	return words
}

func cleanText(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0 || r == unicode.ReplacementChar:
			return -1
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, text)
}

func stripAccents(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func splitPunctuation(word string) []string {
	var out []string
	var cur []rune
	for _, r := range word {
		if isPunctuation(r) {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = cur[:0]
			}
			out = append(out, string(r))
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func (t *WordPieceTokenizer) wordPiece(token string) []int64 {
	if id, ok := t.vocab[token]; ok {
		return []int64{id}
	}
	runes := []rune(token)
	if len(runes) > maxInputCharsPerWord {
		return []int64{t.unkID}
	}

	var pieces []int64
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := false
		for end > start {
			sub := string(runes[start:end])
			if start > 0 {
				sub = t.continuation + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, id)
				start = end
				found = true
				break
			}
			end--
		}
		if !found {
			return []int64{t.unkID}
		}
	}
	if len(pieces) == 0 {
		return []int64{t.unkID}
	}
	return pieces
}
