package extract

import (
	"context"
	"io"
)

func extractTXT(_ context.Context, r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
