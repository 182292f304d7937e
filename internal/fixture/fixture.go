// Package fixture turns sample .eml files into mail job descriptors for manual testing.
package fixture

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/straja-ai/nlp-phishing/internal/job"
)

// FromEML wraps raw message bytes in a mail job.
func FromEML(raw []byte, tlp int) job.Job {
	return job.Job{
		DataType: "mail",
		TLP:      tlp,
		Data:     base64.StdEncoding.EncodeToString(raw),
	}
}

// Convert reads the .eml at in and writes the mail job JSON to out.
func Convert(in, out string, tlp int) error {
	raw, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read eml: %w", err)
	}

	data, err := json.Marshal(FromEML(raw, tlp))
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write job: %w", err)
	}
	return nil
}
