package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

// extractPDF materializes the stream to a temp file and runs pdftotext in
// layout-preserving mode. The temp file is removed on every exit path.
func extractPDF(ctx context.Context, r io.Reader) (string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", errors.New("pdftotext not found in PATH")
	}
	f, err := os.CreateTemp("", "grade-*.pdf")
	if err != nil {
		return "", err
	}
	defer func() { f.Close(); os.Remove(f.Name()) }()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", f.Name(), "-")
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", errors.New(msg)
	}
	return out.String(), nil
}
