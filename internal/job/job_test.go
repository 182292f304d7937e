package job

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStdioMode(t *testing.T) {
	in := strings.NewReader(`{"dataType":"text","tlp":2,"data":"hello","config":{"api_key":"x"}}`)
	var out bytes.Buffer
	o := Open(filepath.Join(t.TempDir(), "missing"), in, &out)
	if o.DirMode() {
		t.Fatalf("expected stdio mode without input.json")
	}

	j, err := o.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if j.DataType != "text" || j.Data != "hello" || j.TLP != 2 {
		t.Fatalf("unexpected job %+v", j)
	}
	if j.Echo().Config != nil {
		t.Fatalf("echo must drop config")
	}
	if got := o.ResolvePath("mail.eml"); got != "mail.eml" {
		t.Fatalf("stdio mode must not rewrite paths, got %s", got)
	}

	if err := o.Write(map[string]any{"success": true}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.TrimSpace(out.String()) != `{"success":true}` {
		t.Fatalf("unexpected stdout %q", out.String())
	}
}

func TestDirMode(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "input"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := `{"dataType":"file","tlp":1,"file":"attachment.eml","filename":"Testmail.eml"}`
	if err := os.WriteFile(filepath.Join(dir, "input", "input.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	o := Open(dir, nil, nil)
	if !o.DirMode() {
		t.Fatalf("expected job directory mode")
	}
	j, err := o.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if j.Payload() != "attachment.eml" {
		t.Fatalf("unexpected payload %q", j.Payload())
	}
	if got, want := o.ResolvePath(j.Payload()), filepath.Join(dir, "input", "attachment.eml"); got != want {
		t.Fatalf("ResolvePath = %s, want %s", got, want)
	}
	if abs := filepath.Join(dir, "x.eml"); o.ResolvePath(abs) != abs {
		t.Fatalf("absolute paths must be kept")
	}

	if err := o.Write(map[string]any{"success": false, "errorMessage": "boom"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "output", "output.json"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got["errorMessage"] != "boom" {
		t.Fatalf("unexpected output %s", data)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "output"))
	if len(entries) != 1 {
		t.Fatalf("expected only output.json, found %d entries", len(entries))
	}
}

func TestPayloadFallsBackToData(t *testing.T) {
	j := Job{DataType: "file", Data: "/tmp/mail.eml"}
	if j.Payload() != "/tmp/mail.eml" {
		t.Fatalf("unexpected payload %q", j.Payload())
	}
	j = Job{DataType: "mail", Data: "QUJD", File: "ignored"}
	if j.Payload() != "QUJD" {
		t.Fatalf("unexpected payload %q", j.Payload())
	}
}

func TestReadInvalidJSON(t *testing.T) {
	o := Open("", strings.NewReader("{not json"), nil)
	if _, err := o.Read(); err == nil {
		t.Fatalf("expected decode error")
	}
}
