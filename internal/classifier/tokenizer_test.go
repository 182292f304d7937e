package classifier

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

var testVocab = []string{
	"[PAD]", "[UNK]", "[CLS]", "[SEP]",
	"your", "account", "has", "been", "suspend", "##ed", ",", "click", "here", "!", "cafe",
}

func writeVocab(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "vocab.txt")
	if err := os.WriteFile(path, []byte(strings.Join(testVocab, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}
	return path
}

func TestWordPieceEncode(t *testing.T) {
	tok, err := LoadWordPieceTokenizer(writeVocab(t, t.TempDir()))
	if err != nil {
		t.Fatalf("load tokenizer: %v", err)
	}

	ids, attn := tok.Encode("Your account has been suspended, click here!", 16)
	wantIDs := []int64{2, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 3, 0, 0, 0, 0}
	wantAttn := []int64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0}
	if !reflect.DeepEqual(ids, wantIDs) {
		t.Fatalf("ids = %v, want %v", ids, wantIDs)
	}
	if !reflect.DeepEqual(attn, wantAttn) {
		t.Fatalf("attn = %v, want %v", attn, wantAttn)
	}
}

func TestWordPieceEncodeTruncatesToSeqLen(t *testing.T) {
	tok, err := LoadWordPieceTokenizer(writeVocab(t, t.TempDir()))
	if err != nil {
		t.Fatalf("load tokenizer: %v", err)
	}
	ids, attn := tok.Encode("your account has been suspended", 6)
	if want := []int64{2, 4, 5, 6, 7, 3}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i, v := range attn {
		if v != 1 {
			t.Fatalf("expected full attention at %d, got %v", i, attn)
		}
	}
}

func TestWordPieceUnknownAndAccents(t *testing.T) {
	tok, err := LoadWordPieceTokenizer(writeVocab(t, t.TempDir()))
	if err != nil {
		t.Fatalf("load tokenizer: %v", err)
	}
	ids, _ := tok.Encode("Café zzz", 5)
	if want := []int64{2, 14, 1, 3, 0}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestTokenizerConfigDisablesLowerCase(t *testing.T) {
	dir := t.TempDir()
	path := writeVocab(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "tokenizer_config.json"), []byte(`{"do_lower_case": false}`), 0o644); err != nil {
		t.Fatalf("write tokenizer config: %v", err)
	}
	tok, err := LoadWordPieceTokenizer(path)
	if err != nil {
		t.Fatalf("load tokenizer: %v", err)
	}
	ids, _ := tok.Encode("Your", 3)
	if want := []int64{2, 1, 3}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestLoadTokenizerFromJSON(t *testing.T) {
	dir := t.TempDir()
	body := `{
  "normalizer": {"type": "BertNormalizer", "lowercase": true},
  "model": {
    "type": "WordPiece",
    "continuing_subword_prefix": "##",
    "vocab": {"[PAD]": 0, "[UNK]": 1, "[CLS]": 2, "[SEP]": 3, "click": 4, "here": 5}
  }
}`
	if err := os.WriteFile(filepath.Join(dir, "tokenizer.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write tokenizer.json: %v", err)
	}
	tok, err := LoadTokenizerFromDir(dir)
	if err != nil {
		t.Fatalf("load tokenizer: %v", err)
	}
	ids, _ := tok.Encode("CLICK here", 5)
	if want := []int64{2, 4, 5, 3, 0}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestLoadTokenizerFromDirMissing(t *testing.T) {
	if _, err := LoadTokenizerFromDir(t.TempDir()); err == nil {
		t.Fatalf("expected error when no tokenizer assets exist")
	}
}
