package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func TestExtract_TXT_RoundTrip(t *testing.T) {
	svc := NewService(0)
	res := svc.Extract(context.Background(), strings.NewReader("  plain essay body\nsecond line  "), "text/plain")
	if !res.OK {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Text != "plain essay body\nsecond line" {
		t.Fatalf("got %q", res.Text)
	}
}

func TestExtract_UnsupportedMIME(t *testing.T) {
	svc := NewService(0)
	res := svc.Extract(context.Background(), strings.NewReader("x"), "image/png")
	if res.OK {
		t.Fatalf("expected failure for unsupported type")
	}
	if res.Text != "" || res.Err == "" {
		t.Fatalf("failed result must have empty text and a cause; got %+v", res)
	}
}

func TestExtract_TruncationBound(t *testing.T) {
	svc := NewService(50)
	long := strings.Repeat("a", 500)
	res := svc.Extract(context.Background(), strings.NewReader(long), "text/plain")
	if !res.OK {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if len(res.Text) > 50+len(TruncationNotice) {
		t.Fatalf("text too long: %d", len(res.Text))
	}
	if !strings.HasSuffix(res.Text, TruncationNotice) {
		t.Fatalf("missing truncation notice: %q", res.Text)
	}
	if strings.Count(res.Text, TruncationNotice) != 1 {
		t.Fatalf("notice must appear exactly once")
	}
}

func TestExtract_NoTruncationUnderLimit(t *testing.T) {
	svc := NewService(50)
	res := svc.Extract(context.Background(), strings.NewReader("short"), "text/plain")
	if !res.OK || res.Text != "short" {
		t.Fatalf("got %+v", res)
	}
}

func TestDOCX_RunsJoinedWithoutSeparator(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>
  </w:body>
</w:document>`
	svc := NewService(0)
	res := svc.Extract(context.Background(), bytes.NewReader(buildDocx(t, doc)), docxMIME)
	if !res.OK {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Text != "Hello World" {
		t.Fatalf("got %q, want %q", res.Text, "Hello World")
	}
}

func TestDOCX_ParagraphsSeparatedByNewline(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
</w:body>
</w:document>`
	svc := NewService(0)
	res := svc.Extract(context.Background(), bytes.NewReader(buildDocx(t, doc)), docxMIME)
	if !res.OK {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	want := "First paragraph.\nSecond paragraph."
	if res.Text != want {
		t.Fatalf("got %q, want %q", res.Text, want)
	}
}

func TestDOCX_CorruptContainerFallsBackToTagStrip(t *testing.T) {
	// Not a zip at all: the raw pass should still salvage the markup text.
	raw := []byte("<w:p><w:t>salvaged words</w:t></w:p>")
	svc := NewService(0)
	res := svc.Extract(context.Background(), bytes.NewReader(raw), docxMIME)
	if !res.OK {
		t.Fatalf("fallback should not fail: %s", res.Err)
	}
	if !strings.Contains(res.Text, "salvaged words") {
		t.Fatalf("got %q", res.Text)
	}
}

func TestHTML_StripsScriptStyleAndTags(t *testing.T) {
	page := `<html><head><style>p { color: red; }</style>
<SCRIPT>alert("x");</SCRIPT></head>
<body><p>First &amp; foremost.</p>


<p>Last.</p></body></html>`
	svc := NewService(0)
	res := svc.Extract(context.Background(), strings.NewReader(page), "text/html")
	if !res.OK {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if strings.Contains(res.Text, "alert") || strings.Contains(res.Text, "color") {
		t.Fatalf("script/style leaked: %q", res.Text)
	}
	if !strings.Contains(res.Text, "First & foremost.") {
		t.Fatalf("entities not decoded: %q", res.Text)
	}
	if strings.Contains(res.Text, "\n\n\n") {
		t.Fatalf("blank lines not collapsed: %q", res.Text)
	}
}

func TestDOC_FallbackNeedsEnoughText(t *testing.T) {
	orig := docConverters
	docConverters = nil // simulate neither antiword nor catdoc installed
	defer func() { docConverters = orig }()

	svc := NewService(0)

	long := strings.Repeat("readable words in an old doc file ", 10)
	res := svc.Extract(context.Background(), strings.NewReader(long), "application/msword")
	if !res.OK {
		t.Fatalf("expected salvage to succeed: %s", res.Err)
	}

	res = svc.Extract(context.Background(), strings.NewReader("too short"), "application/msword")
	if res.OK {
		t.Fatalf("short salvage must fail")
	}
	if !strings.Contains(res.Err, "antiword") || !strings.Contains(res.Err, "catdoc") {
		t.Fatalf("error should name the missing utilities: %q", res.Err)
	}
}

func TestFormatFromName(t *testing.T) {
	cases := map[string]Format{
		"essay.pdf":  FormatPDF,
		"essay.DOCX": FormatDOCX,
		"essay.doc":  FormatDOC,
		"essay.txt":  FormatTXT,
		"essay.html": FormatHTML,
		"essay.htm":  FormatHTML,
		"essay.png":  FormatUnknown,
	}
	for name, want := range cases {
		if got := FormatFromName(name); got != want {
			t.Errorf("FormatFromName(%q) = %v, want %v", name, got, want)
		}
	}
}
