// Package job reads job descriptors from the host and writes reports back,
// either through a job directory (<dir>/input/input.json, <dir>/output/output.json)
// or through stdin/stdout.
package job

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Job is the descriptor the host hands to the analyzer.
type Job struct {
	DataType string         `json:"dataType"`
	Data     string         `json:"data,omitempty"`
	File     string         `json:"file,omitempty"`
	Filename string         `json:"filename,omitempty"`
	TLP      int            `json:"tlp"`
	PAP      *int           `json:"pap,omitempty"`
	Message  string         `json:"message,omitempty"`
	Config   map[string]any `json:"config,omitempty"`
}

// Payload returns the data the job's type refers to: the file path for file
// jobs (falling back to data), otherwise data.
func (j Job) Payload() string {
	if j.DataType == "file" && strings.TrimSpace(j.File) != "" {
		return j.File
	}
	return j.Data
}

// Echo is the job as echoed in error reports; host-supplied config is left out.
func (j Job) Echo() Job {
	j.Config = nil
	return j
}

// IO moves one job in and one report out.
type IO struct {
	dir     string
	dirMode bool
	stdin   io.Reader
	stdout  io.Writer
}

// Open selects job-directory mode when <dir>/input/input.json exists and
// falls back to stdin/stdout otherwise.
func Open(dir string, stdin io.Reader, stdout io.Writer) *IO {
	o := &IO{dir: dir, stdin: stdin, stdout: stdout}
	if strings.TrimSpace(dir) != "" {
		if _, err := os.Stat(inputPath(dir)); err == nil {
			o.dirMode = true
		}
	}
	return o
}

// DirMode reports whether the job directory is in use.
func (o *IO) DirMode() bool { return o.dirMode }

// Read decodes the job descriptor.
func (o *IO) Read() (Job, error) {
	var r io.Reader = o.stdin
	if o.dirMode {
		f, err := os.Open(inputPath(o.dir))
		if err != nil {
			return Job{}, fmt.Errorf("open job input: %w", err)
		}
		defer f.Close()
		r = f
	}
	if r == nil {
		return Job{}, fmt.Errorf("no job input available")
	}

	var j Job
	if err := json.NewDecoder(r).Decode(&j); err != nil {
		return Job{}, fmt.Errorf("decode job input: %w", err)
	}
	return j, nil
}

// ResolvePath maps a relative file payload into <dir>/input in job-directory mode.
func (o *IO) ResolvePath(p string) string {
	if !o.dirMode || p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.dir, "input", p)
}

// Write encodes v as the job's output.
func (o *IO) Write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if !o.dirMode {
		if o.stdout == nil {
			return fmt.Errorf("no job output available")
		}
		_, err := o.stdout.Write(append(data, '\n'))
		return err
	}
	return writeFileAtomic(filepath.Join(o.dir, "output"), "output.json", data)
}

func inputPath(dir string) string {
	return filepath.Join(dir, "input", "input.json")
}

// writeFileAtomic writes <dir>/<name> through a temp file and rename.
func writeFileAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp output file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write temp output file: %w", err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		tmpFile.Close()
		return fmt.Errorf("chmod temp output file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp output file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("replace output file: %w", err)
	}
	return nil
}
