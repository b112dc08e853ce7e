package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"unicode"
)

// docConverters are tried in order; the first one that exits cleanly wins.
var docConverters = []string{"antiword", "catdoc"}

// extractDOC converts a legacy Word binary. When no converter utility is
// installed, a best-effort pass strips control bytes from the raw file and
// succeeds only if enough readable text remains.
func extractDOC(ctx context.Context, r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "grade-*.doc")
	if err != nil {
		return "", err
	}
	defer func() { f.Close(); os.Remove(f.Name()) }()
	if _, err := f.Write(raw); err != nil {
		return "", err
	}

	available := 0
	var lastErr error
	for _, tool := range docConverters {
		if _, err := exec.LookPath(tool); err != nil {
			continue
		}
		available++
		cmd := exec.CommandContext(ctx, tool, f.Name())
		var out, stderr bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			lastErr = errors.New(tool + ": " + msg)
			continue
		}
		return out.String(), nil
	}
	if available > 0 {
		return "", lastErr
	}

	// No converter installed: salvage readable bytes.
	text := collapseWhitespace(stripBinary(raw))
	if len(strings.TrimSpace(text)) > 100 {
		return text, nil
	}
	return "", errors.New("doc extraction not available: install antiword or catdoc")
}

func stripBinary(raw []byte) string {
	var b strings.Builder
	for _, r := range string(raw) {
		if r == unicode.ReplacementChar {
			b.WriteByte(' ')
			continue
		}
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
