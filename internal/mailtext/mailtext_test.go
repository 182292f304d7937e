package mailtext

import (
	"strings"
	"testing"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(strings.TrimLeft(s, "\n"), "\n", "\r\n"))
}

func TestExtractMultipartPlainAndHTML(t *testing.T) {
	raw := crlf(`
From: Security Team <security@bank.example>
To: victim@example.com
Subject: Account notice
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

Your account has been suspended.
--b1
Content-Type: text/html; charset=utf-8

<p>Your account has been <b>suspended</b>.</p>
--b1
Content-Type: text/plain; charset=utf-8

Click here to verify.
--b1--
`)
	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Your account has been suspended.Click here to verify."
	if got != want {
		t.Fatalf("Extract = %q, want %q", got, want)
	}
}

func TestExtractSkipsAttachments(t *testing.T) {
	raw := crlf(`
Subject: Invoice
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="mix"

--mix
Content-Type: text/plain

Please see the attached invoice.
--mix
Content-Type: text/plain; name="notes.txt"
Content-Disposition: attachment; filename="notes.txt"

secret attachment text
--mix--
`)
	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Please see the attached invoice." {
		t.Fatalf("unexpected body %q", got)
	}
	if strings.Contains(got, "secret") {
		t.Fatalf("attachment text leaked into body: %q", got)
	}
}

func TestExtractHTMLAndBinaryOnlyIsEmpty(t *testing.T) {
	raw := crlf(`
Subject: Document
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="mix"

--mix
Content-Type: text/html

<html><body>Open the document</body></html>
--mix
Content-Type: application/pdf
Content-Disposition: attachment; filename="doc.pdf"
Content-Transfer-Encoding: base64

JVBERi0xLjQKJcfsj6IK
--mix--
`)
	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty body, got %q", got)
	}
}

func TestExtractNestedAndEmbeddedMessage(t *testing.T) {
	raw := crlf(`
Subject: Fwd: alert
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain

First.
--inner
Content-Type: text/html

<p>First.</p>
--inner--
--outer
Content-Type: message/rfc822

Subject: original
Content-Type: text/plain

Second.
--outer--
`)
	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "First.Second." {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestExtractSinglePartEncodings(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "quoted printable latin1",
			raw: `
Subject: qp
Content-Type: text/plain; charset=iso-8859-1
Content-Transfer-Encoding: quoted-printable

Caf=E9 ouvert =E0 tous
`,
			want: "Café ouvert à tous",
		},
		{
			name: "base64 utf8",
			raw: `
Subject: b64
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: base64

VmVyaWZ5IHlvdXIgcGFzc3dvcmQ=
`,
			want: "Verify your password",
		},
		{
			name: "no content type",
			raw: `
Subject: bare

  plain body  
`,
			want: "plain body",
		},
		{
			name: "unknown charset falls back to utf8",
			raw: `
Subject: odd
Content-Type: text/plain; charset=x-made-up

still readable
`,
			want: "still readable",
		},
		{
			name: "html single part",
			raw: `
Subject: html
Content-Type: text/html

<p>hi</p>
`,
			want: "",
		},
		{
			name: "single part attachment",
			raw: `
Subject: att
Content-Type: text/plain
Content-Disposition: attachment; filename="a.txt"

hidden
`,
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Extract(crlf(tc.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Extract = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractReplacesInvalidUTF8(t *testing.T) {
	raw := append(crlf("Subject: bytes\nContent-Type: text/plain\n\nbad "), 0xff, 0xfe)
	raw = append(raw, []byte(" end")...)
	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "bad ") || !strings.HasSuffix(got, " end") || !strings.Contains(got, "�") {
		t.Fatalf("expected replacement characters, got %q", got)
	}
}

func TestExtractLenientHeaders(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "no headers at all",
			raw:  "Dear customer, your account has been suspended.\nClick here to verify.\n",
			want: "Dear customer, your account has been suspended.\nClick here to verify.",
		},
		{
			name: "headers without separator",
			raw:  "Subject: hi\nYour account has been suspended, click here\n",
			want: "Your account has been suspended, click here",
		},
		{
			name: "folded header then body without separator",
			raw:  "Subject: urgent\r\n notice\r\nContent-Type: text/html\r\n<p>click</p>\r\n",
			want: "",
		},
		{
			name: "headers only",
			raw:  "Subject: nothing here",
			want: "",
		},
		{
			name: "mbox envelope line",
			raw:  "From alerts@bank.example Mon Jan  1 10:00:00 2024\nSubject: verify\n\nConfirm your login now.\n",
			want: "Confirm your login now.",
		},
		{
			name: "first line looks like a sentence with a colon",
			raw:  "Dear user: your password expires today\n",
			want: "Dear user: your password expires today",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Extract([]byte(tc.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Extract = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRepairHeaderKeepsWellFormedInput(t *testing.T) {
	raw := crlf("Subject: ok\nContent-Type: text/plain\n\nbody\n")
	if got := repairHeader(raw); string(got) != string(raw) {
		t.Fatalf("well-formed message was rewritten: %q", got)
	}
}
