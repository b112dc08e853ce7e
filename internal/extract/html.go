package extract

import (
	"context"
	"html"
	"io"
	"regexp"
	"strings"
)

var (
	scriptRE   = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleRE    = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	spaceRunRE = regexp.MustCompile(`[ \t]+`)
	blankRunRE = regexp.MustCompile(`\n{3,}`)
	breakTagRE = regexp.MustCompile(`(?i)<(br|/p|/div|/li|/h[1-6]|/tr)[^>]*>`)
)

func extractHTML(_ context.Context, r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return StripHTML(string(raw)), nil
}

// StripHTML removes script/style blocks and all tags, decodes entities and
// collapses whitespace. Block-closing tags become newlines so paragraph
// structure survives; blank-line runs are reduced to a single blank line.
func StripHTML(s string) string {
	s = scriptRE.ReplaceAllString(s, " ")
	s = styleRE.ReplaceAllString(s, " ")
	s = breakTagRE.ReplaceAllString(s, "\n")
	s = stripTags(s)
	s = html.UnescapeString(s)
	s = spaceRunRE.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")
	s = blankRunRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
