// Package mailtext extracts the plain-text body of an RFC 5322 / MIME message.
package mailtext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/unicode"
)

// maxDepth bounds multipart and message/rfc822 nesting.
const maxDepth = 32

// Extract parses raw message bytes and returns the concatenated text/plain
// parts that are not attachments, in document order, trimmed.
//
// Input without a header block, or whose headers run straight into the body,
// is read leniently: valid leading header lines are kept and everything from
// the first non-header line on is the body.
func Extract(raw []byte) (string, error) {
	e, err := message.Read(bytes.NewReader(repairHeader(raw)))
	if err != nil && !tolerable(err) {
		return "", fmt.Errorf("parse message: %w", err)
	}

	var body strings.Builder
	walk(e, &body, 0)
	return strings.TrimSpace(body.String()), nil
}

func walk(e *message.Entity, out *strings.Builder, depth int) {
	if e == nil || depth > maxDepth {
		return
	}

	if mr := e.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil && !tolerable(err) {
				// A broken boundary ends the walk; what was read so far is kept.
				return
			}
			walk(part, out, depth+1)
		}
	}

	switch mediaType(e.Header) {
	case "text/plain":
		if isAttachment(e.Header) {
			return
		}
		out.WriteString(decodeBody(e.Body))
	case "message/rfc822":
		inner, err := message.Read(e.Body)
		if err != nil && !tolerable(err) {
			return
		}
		walk(inner, out, depth+1)
	}
}

// decodeBody reads a part body that go-message has already decoded from its
// transfer encoding and declared charset. Unknown charsets leave raw bytes,
// which are read as UTF-8 with invalid sequences replaced.
func decodeBody(r io.Reader) string {
	raw, _ := io.ReadAll(r)
	if len(raw) == 0 {
		return ""
	}
	text, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�")
	}
	return string(text)
}

// mediaType returns the lower-cased media type, defaulting to text/plain for
// a missing or unparseable Content-Type.
func mediaType(h message.Header) string {
	if t, _, err := h.ContentType(); err == nil && t != "" {
		return strings.ToLower(t)
	}
	raw := strings.TrimSpace(h.Get("Content-Type"))
	if raw == "" {
		return "text/plain"
	}
	t := strings.ToLower(strings.TrimSpace(strings.SplitN(raw, ";", 2)[0]))
	if strings.Count(t, "/") != 1 {
		return "text/plain"
	}
	return t
}

func isAttachment(h message.Header) bool {
	if disp, _, err := h.ContentDisposition(); err == nil {
		return strings.EqualFold(disp, "attachment")
	}
	return strings.Contains(strings.ToLower(h.Get("Content-Disposition")), "attachment")
}

func tolerable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

// repairHeader inserts the blank line that separates header and body when it
// is missing. The header block ends at the first line that is neither a
// "Name: value" field nor a folded continuation of one. A leading mbox
// "From " envelope line is dropped.
func repairHeader(raw []byte) []byte {
	if bytes.HasPrefix(raw, []byte("From ")) {
		if i := bytes.IndexByte(raw, '\n'); i >= 0 {
			raw = raw[i+1:]
		} else {
			raw = nil
		}
	}

	off := 0
	for off < len(raw) {
		line, next := raw[off:], len(raw)
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line, next = line[:i], off+i+1
		}
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			return raw
		}
		folded := off > 0 && (line[0] == ' ' || line[0] == '\t')
		if !folded && !isHeaderField(line) {
			break
		}
		off = next
	}

	out := make([]byte, 0, len(raw)+2)
	out = append(out, raw[:off]...)
	if off > 0 && raw[off-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, '\n')
	return append(out, raw[off:]...)
}

// isHeaderField reports whether line starts with a field name made of token
// characters followed by a colon.
func isHeaderField(line []byte) bool {
	i := bytes.IndexByte(line, ':')
	if i <= 0 {
		return false
	}
	for _, c := range line[:i] {
		if !isTokenByte(c) {
			return false
		}
	}
	return true
}

func isTokenByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0
}
