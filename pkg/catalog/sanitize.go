package catalog

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// SanitizeText は、スクレイピングで得たテキストを正規化します。
// 前後の空白を除去し、連続空白を一つにまとめ、曲線アポストロフィを直線に置換します。
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)
	text = multiSpace.ReplaceAllString(text, " ")
	return strings.ReplaceAll(text, "’", "'")
}
