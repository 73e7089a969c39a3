package resolve

import (
	"strings"

	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
)

// 表記揺れの多い入力を正典表記へ寄せる補正表。照合は大文字小文字を無視します。
var (
	properAuthors = map[string]string{
		"Mary Shelley":  "Mary Wollstonecraft Shelley",
		"Stanislaw Lem": "Stanisław Lem",
	}
	properTitles = map[string]string{
		"Galapagos": "Galápagos",
		"How to Live Safely in a Sci-Fi Universe": "How to Live Safely in a Science Fictional Universe",
		"Planet of the Apes (aka Monkey Planet)":  "Planet of the Apes",
		"Readme":                                  "Reamde",
		"The Island of Doctor Moreau":             "The Island of Dr. Moreau",
		"The Long Way to a Small Angry Planet":    "The Long Way to a Small, Angry Planet",
		"The Real Story":                          "The Gap Into Conflict",
		"The Songs of Distant Earth":              "Songs of Distant Earth",
		"The Word for World is Forest":            "The Word for World Is Forest",
		"Restaurant at the End of the Universe":   "The Restaurant at the End of the Universe",
	}
)

// SanitizeInput は解決前の入力テキストを整えます。既知の表記揺れは正典表記へ
// 補正され、それ以外は出力と同じ正規化が適用されます。
func SanitizeInput(text string) string {
	text = strings.TrimSpace(text)
	for variant, proper := range properAuthors {
		if strings.EqualFold(text, variant) {
			return proper
		}
	}
	for variant, proper := range properTitles {
		if strings.EqualFold(text, variant) {
			return proper
		}
	}
	return catalog.SanitizeText(text)
}
