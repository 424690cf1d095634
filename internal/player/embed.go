package player

import (
	"net/url"
	"regexp"
	"strings"
)

// Matches a frame tag's src attribute, single or double quoted, case-insensitive
var srcAttrPattern = regexp.MustCompile(`(?i)\bsrc\s*=\s*["']([^"']+)["']`)

// NormalizeEmbedSource turns an embed source into a displayable target URL.
// Markup containing a src attribute yields the embedded target; a bare absolute
// URL is used as-is; anything else passes through unchanged so the display can
// attempt a degraded render rather than erroring out.
func NormalizeEmbedSource(source string) string {
	trimmed := strings.TrimSpace(source)
	if m := srcAttrPattern.FindStringSubmatch(trimmed); m != nil {
		return m[1]
	}
	if isAbsoluteURL(trimmed) {
		return trimmed
	}
	return source
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
