package analyzer

import (
	"encoding/base64"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
)

// Data types accepted from the host.
const (
	DataTypeFile = "file"
	DataTypeMail = "mail"
	DataTypeText = "text"
)

// Request is one analysis job: a data type tag and its payload (a path, a
// Base64 MIME blob or raw text).
type Request struct {
	DataType string
	Payload  string
}

// resolved is the outcome of input resolution: either raw MIME bytes that
// still need body extraction, or text ready to classify.
type resolved struct {
	raw    []byte
	text   string
	isMIME bool
}

func resolve(req Request) (resolved, error) {
	switch req.DataType {
	case DataTypeFile:
		raw, err := readFile(req.Payload)
		if err != nil {
			return resolved{}, err
		}
		return resolved{raw: raw, isMIME: true}, nil

	case DataTypeMail:
		if strings.TrimSpace(req.Payload) == "" {
			return resolved{}, newError(KindEmptyInput, "mail data is empty", nil)
		}
		raw, err := decodeBase64(req.Payload)
		if err != nil {
			return resolved{}, newError(KindDecode, "mail data is not valid base64", err)
		}
		return resolved{raw: raw, isMIME: true}, nil

	case DataTypeText:
		return resolved{text: req.Payload}, nil

	default:
		return resolved{}, newError(KindUnsupportedType, fmt.Sprintf("unsupported data type: %q", req.DataType), nil)
	}
}

func readFile(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, newError(KindNotFound, "file path is empty", nil)
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, newError(KindNotFound, fmt.Sprintf("file not found at: %s", path), nil)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(KindNotFound, fmt.Sprintf("file not readable at: %s", path), err)
	}
	return raw, nil
}

// decodeBase64 accepts padded or unpadded standard Base64 and ignores line breaks.
func decodeBase64(s string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	raw, err := base64.StdEncoding.DecodeString(compact)
	if err == nil {
		return raw, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(compact, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

// binaryContainers are document and archive formats that are never parsed as
// a message. Their descendants (docx, jar, ...) are matched through Parent.
var binaryContainers = []string{
	"application/pdf",
	"application/zip",
	"application/gzip",
	"application/x-7z-compressed",
	"application/x-rar-compressed",
	"application/x-tar",
	"application/x-ole-storage",
	"application/x-executable",
	"application/vnd.microsoft.portable-executable",
}

var binaryTopLevel = []string{"image/", "audio/", "video/", "font/"}

// sniffMessage rejects payloads that are a known binary format, such as a
// PDF or archive submitted as the observable. Anything else, including bytes
// mimetype cannot name, is left to the message parser.
func sniffMessage(raw []byte) error {
	detected := mimetype.Detect(raw)
	for m := detected; m != nil; m = m.Parent() {
		if isBinaryContainer(m.String()) {
			return newError(KindNoContent, fmt.Sprintf("payload is %s, not an email message", detected.String()), nil)
		}
	}
	return nil
}

func isBinaryContainer(mediaType string) bool {
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mediaType, ";", 2)[0]))
	for _, prefix := range binaryTopLevel {
		if strings.HasPrefix(mt, prefix) {
			return true
		}
	}
	return slices.Contains(binaryContainers, mt)
}
