package catalog

import "sort"

// ReviewsDistribution は、言語コード→レビュー数の分布です。
// 構築時に妥当でない言語タグのエントリは取り除かれます。
type ReviewsDistribution struct {
	dist map[string]int
}

// NewReviewsDistribution はレビュー分布を構築します。
func NewReviewsDistribution(dist map[string]int) *ReviewsDistribution {
	filtered := make(map[string]int, len(dist))
	for lang, reviews := range dist {
		if IsValidLangTag(lang) {
			filtered[lang] = reviews
		}
	}
	return &ReviewsDistribution{dist: filtered}
}

// Dist は言語コード→レビュー数の対応を返します。
func (d *ReviewsDistribution) Dist() map[string]int {
	out := make(map[string]int, len(d.dist))
	for lang, reviews := range d.dist {
		out[lang] = reviews
	}
	return out
}

// Langs は言語コードを昇順で返します。
func (d *ReviewsDistribution) Langs() []string {
	langs := make([]string, 0, len(d.dist))
	for lang := range d.dist {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// LangNamesDist は、言語の英語名→レビュー数の対応を返します。
// 英語名へ逆引きできないコードのエントリは除かれます。
func (d *ReviewsDistribution) LangNamesDist() map[string]int {
	out := make(map[string]int, len(d.dist))
	for lang, reviews := range d.dist {
		if name := LangCodeToName(lang); name != "" {
			out[name] = reviews
		}
	}
	return out
}

// Total は全レビュー数の合計を返します。
// NOTE: プライマリページが別途報告する総レビュー数は常にこれより大きい。
func (d *ReviewsDistribution) Total() int {
	total := 0
	for _, reviews := range d.dist {
		total += reviews
	}
	return total
}

// Reviews は、言語コードまたは言語の英語名に対するレビュー数を返します。
func (d *ReviewsDistribution) Reviews(lang string) (int, bool) {
	if reviews, ok := d.dist[lang]; ok {
		return reviews, true
	}
	// 言語名での照会を許容する
	if code := NameToLangCode(lang); code != "" {
		reviews, ok := d.dist[code]
		return reviews, ok
	}
	return 0, false
}

// MarshalJSON は分布を {lang: count, ...} 形式で書き出します。
func (d *ReviewsDistribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.dist)
}

// UnmarshalJSON は {lang: count, ...} 形式から分布を復元します。
func (d *ReviewsDistribution) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = *NewReviewsDistribution(raw)
	return nil
}
