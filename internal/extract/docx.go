package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"
)

// extractDOCX opens the Office XML container, reads the main document part
// and collects text runs. Runs within one paragraph are joined with no
// separator; paragraphs are separated by a single newline. If the container
// or the XML is unreadable, a raw tag-stripping pass is used instead.
func extractDOCX(_ context.Context, r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		// Not a readable zip: salvage whatever markup-ish text is in there.
		return stripTags(string(raw)), nil
	}
	docXML, err := readZipPart(zr, "word/document.xml")
	if err != nil {
		return "", errors.New("no word/document.xml part: " + err.Error())
	}
	text, err := collectRuns(docXML)
	if err != nil {
		return stripTags(string(docXML)), nil
	}
	return text, nil
}

func readZipPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, errors.New("part not found")
}

// collectRuns walks the document XML. Character data inside <w:t> elements is
// appended to the current paragraph; </w:p> flushes the paragraph.
func collectRuns(docXML []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(docXML))
	var b strings.Builder
	var para strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if para.Len() > 0 {
					if b.Len() > 0 {
						b.WriteByte('\n')
					}
					b.WriteString(para.String())
					para.Reset()
				}
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	if para.Len() > 0 {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(para.String())
	}
	return b.String(), nil
}

var tagRE = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return tagRE.ReplaceAllString(s, " ")
}
