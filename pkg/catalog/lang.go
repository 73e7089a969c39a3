package catalog

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// --- 言語コード変換 ---

// カタログサイトの版一覧ページは言語を英語名（'English', 'Polish' など）で
// 表記するため、ISOコードへの逆引きが必要になります。
var langNameToCode = map[string]string{
	"arabic":     "ar",
	"bulgarian":  "bg",
	"catalan":    "ca",
	"chinese":    "zh",
	"croatian":   "hr",
	"czech":      "cs",
	"danish":     "da",
	"dutch":      "nl",
	"english":    "en",
	"estonian":   "et",
	"finnish":    "fi",
	"french":     "fr",
	"german":     "de",
	"greek":      "el",
	"hebrew":     "he",
	"hungarian":  "hu",
	"icelandic":  "is",
	"indonesian": "id",
	"italian":    "it",
	"japanese":   "ja",
	"korean":     "ko",
	"latvian":    "lv",
	"lithuanian": "lt",
	"norwegian":  "no",
	"persian":    "fa",
	"polish":     "pl",
	"portuguese": "pt",
	"romanian":   "ro",
	"russian":    "ru",
	"serbian":    "sr",
	"slovak":     "sk",
	"slovenian":  "sl",
	"spanish":    "es",
	"swedish":    "sv",
	"thai":       "th",
	"turkish":    "tr",
	"ukrainian":  "uk",
	"vietnamese": "vi",
}

// NameToLangCode は、言語の英語名を2文字のISOコードへ変換します。
// 未知の言語名に対しては空文字列を返します。
func NameToLangCode(name string) string {
	name = strings.TrimSpace(name)
	if code, ok := langNameToCode[strings.ToLower(name)]; ok {
		return code
	}
	// 既にコードで渡されるケースを許容する
	if tag, err := language.Parse(name); err == nil {
		base, conf := tag.Base()
		if conf >= language.High {
			return base.String()
		}
	}
	return ""
}

// LangCodeToName は、ISO言語コードを英語名へ変換します。未知のコードは空文字列です。
func LangCodeToName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	return display.English.Languages().Name(tag)
}

// IsValidLangTag は、言語タグがISOの体系上妥当かどうかを判定します。
func IsValidLangTag(tag string) bool {
	_, err := language.Parse(tag)
	return err == nil
}
