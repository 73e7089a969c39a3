package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// --- カタログID ---

// カタログサイトのIDには3つの字句形式が存在します。
//
//	'625094.The_Leopard'    (ドット区切り)
//	'9969571-ready-player-one' (ハイフン区切り)
//	'40982390'              (数字のみ)
//
// 数字のみの形式は、タイトルが非ラテン文字で書かれた作品などで発生します。

var digitRun = regexp.MustCompile(`\d+`)

// IsValidID は、text がカタログIDとして妥当な字句形式かどうかを判定します。
// ドットとハイフンの両方を含む文字列は無効です。
func IsValidID(text string) bool {
	if text == "" {
		return false
	}
	if isAllDigits(text) {
		return true
	}
	if len(text) <= 2 {
		return false
	}
	hasDot := strings.Contains(text, ".")
	hasHyphen := strings.Contains(text, "-")
	if hasDot && hasHyphen {
		return false
	}
	var sep string
	switch {
	case hasDot:
		sep = "."
	case hasHyphen:
		sep = "-"
	default:
		return false
	}
	left, right, _ := strings.Cut(text, sep)
	right = strings.ReplaceAll(right, sep, "")
	if !isAllDigits(left) {
		return false
	}
	for _, r := range right {
		if r > 127 {
			return false
		}
		if !isASCIIAlnum(r) && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

// NumericID は、カタログIDの数値部分を抽出して返します。
func NumericID(textID string) (int, error) {
	match := digitRun.FindString(textID)
	if match == "" {
		return 0, fmt.Errorf("カタログIDから数値部分を抽出できません: %q", textID)
	}
	return strconv.Atoi(match)
}

// URLToID は、URLの最終パスセグメントからカタログIDを抽出します。
// 抽出できない場合は空文字列を返します。
func URLToID(url string) string {
	if !strings.Contains(url, "/") {
		return ""
	}
	segments := strings.Split(url, "/")
	id := segments[len(segments)-1]
	if IsValidID(id) {
		return id
	}
	return ""
}

// NormalizeName は、カタログサイトがIDスラグに用いる形式へ著者名を正規化します。
//
//	1) 空白は下線に置換           'Orson Scott Card' ==> 'Orson_Scott_Card'
//	2) 非英字文字は下線に置換      "Madeleine L'Engle" ==> 'Madeleine_L_Engle'
//	3) 非ASCII文字は下線に置換     'Stanisław Lem' ==> 'Stanis_aw_Lem'
//	4) 連続する下線は一つにまとめる 'Ewa Białołęcka' ==> 'Ewa_Bia_o_cka'
func NormalizeName(name string) string {
	var b strings.Builder
	underscoreAppended := false
	for _, r := range name {
		if isASCIILetter(r) {
			b.WriteRune(r)
			underscoreAppended = false
			continue
		}
		if !underscoreAppended {
			b.WriteByte('_')
			underscoreAppended = true
		}
	}
	return b.String()
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIAlnum(r rune) bool {
	return isASCIILetter(r) || (r >= '0' && r <= '9')
}
