package assemble

import (
	"fmt"
	"strconv"
	"strings"
)

// extractInt は、テキスト中の数字だけを残して整数として解釈します。
// '197,169 ratings' ==> 197169
func extractInt(text string) (int, error) {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, fmt.Errorf("テキストから整数を抽出できません: %q", text)
	}
	return strconv.Atoi(b.String())
}

// extractFloat は、テキスト中の数字と区切り記号を残して実数として解釈します。
// 'Average rating 4.17' ==> 4.17
func extractFloat(text string) (float64, error) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.ReplaceAll(b.String(), ",", ".")
	if cleaned == "" {
		return 0, fmt.Errorf("テキストから実数を抽出できません: %q", text)
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("テキストから実数を抽出できません: %q", text)
	}
	return value, nil
}
