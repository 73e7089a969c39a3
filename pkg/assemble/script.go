package assemble

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"

	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// scriptTagData は、書籍プライマリページの埋め込みメタデータブロック
// ('__NEXT_DATA__' スクリプトタグ) から抽出される構造化データです。
type scriptTagData struct {
	originalTitle    string
	workID           string
	ratings          *catalog.FiveStars
	reviews          *catalog.ReviewsDistribution
	totalReviews     int
	firstPublication *time.Time
	details          catalog.BookDetails
}

var seriesSuffix = regexp.MustCompile(`\s\(.+#\d{1,2}\)$`)

// parseMetaScript は、プライマリページのメタ 'script' タグをパースします。
// タグの欠如・想定キーの欠如はすべて恒久的な ParsingError です。
func parseMetaScript(doc *goquery.Document) (*scriptTagData, error) {
	raw := doc.Find(`script#__NEXT_DATA__`).First().Text()
	if raw == "" {
		return nil, parsingErrorf("パース可能なメタ 'script' タグがありません")
	}
	var envelope struct {
		Props struct {
			PageProps struct {
				ApolloState map[string]map[string]any `json:"apolloState"`
			} `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, parsingErrorf("メタ 'script' タグをJSONとして解釈できません: %v", err)
	}
	state := envelope.Props.PageProps.ApolloState
	bookData := stateItem(state, "Book:kca://")
	if bookData == nil {
		return nil, parsingErrorf("'script' タグに 'Book:kca://' データがありません")
	}
	workData := stateItem(state, "Work:kca://")
	if workData == nil {
		return nil, parsingErrorf("'script' タグに 'Work:kca://' データがありません")
	}
	return parseState(bookData, workData)
}

// stateItem は、キーに keyPart を含む項目のうち最も情報量の多いものを返します。
func stateItem(state map[string]map[string]any, keyPart string) map[string]any {
	var best map[string]any
	for key, value := range state {
		if !strings.Contains(key, keyPart) {
			continue
		}
		if best == nil || len(value) > len(best) {
			best = value
		}
	}
	return best
}

func parseState(bookData, workData map[string]any) (*scriptTagData, error) {
	bookDetails, err := childMap(bookData, "details")
	if err != nil {
		return nil, err
	}
	mainEdition, err := parseMainEdition(bookDetails)
	if err != nil {
		return nil, err
	}
	genres, err := parseGenres(bookData)
	if err != nil {
		return nil, err
	}

	workDetails, err := childMap(workData, "details")
	if err != nil {
		return nil, err
	}
	webURL, err := stringAt(workDetails, "webUrl")
	if err != nil {
		return nil, err
	}
	workID := catalog.URLToID(webURL)
	if workID == "" {
		return nil, parsingErrorf("URLから作品IDを抽出できません: %q", webURL)
	}
	originalTitle, err := stringAt(workDetails, "originalTitle")
	if err != nil {
		return nil, err
	}
	// 'Dauntless (The Lost Fleet, #1)' のようなシリーズ表記を取り除く
	originalTitle = seriesSuffix.ReplaceAllString(strings.TrimSpace(originalTitle), "")
	firstPublication := timestampAt(workDetails, "publicationTime")

	workStats, err := childMap(workData, "stats")
	if err != nil {
		return nil, err
	}
	ratings, err := parseRatingsDist(workStats)
	if err != nil {
		return nil, err
	}
	reviews, err := parseReviewsDist(workStats)
	if err != nil {
		return nil, err
	}
	totalReviews, err := intAt(workStats, "textReviewsCount")
	if err != nil {
		return nil, err
	}
	awards, err := parseAwards(workDetails)
	if err != nil {
		return nil, err
	}
	places, err := parsePlaces(workDetails)
	if err != nil {
		return nil, err
	}
	characters, err := parseCharacters(workDetails)
	if err != nil {
		return nil, err
	}

	return &scriptTagData{
		originalTitle:    originalTitle,
		workID:           workID,
		ratings:          ratings,
		reviews:          reviews,
		totalReviews:     totalReviews,
		firstPublication: firstPublication,
		details: catalog.BookDetails{
			Description: parseBlurb(bookData),
			MainEdition: *mainEdition,
			Genres:      genres,
			Awards:      awards,
			Places:      places,
			Characters:  characters,
		},
	}, nil
}

func parseMainEdition(details map[string]any) (*catalog.MainEdition, error) {
	publisher, err := stringAt(details, "publisher")
	if err != nil {
		return nil, err
	}
	format, err := stringAt(details, "format")
	if err != nil {
		return nil, err
	}
	isbn, err := stringAt(details, "isbn")
	if err != nil {
		return nil, err
	}
	isbn13, err := stringAt(details, "isbn13")
	if err != nil {
		return nil, err
	}
	asin, err := stringAt(details, "asin")
	if err != nil {
		return nil, err
	}
	var langCode string
	if langData, ok := details["language"].(map[string]any); ok {
		if name, ok := langData["name"].(string); ok && name != "" {
			langCode = catalog.NameToLangCode(name)
		}
	}
	edition := &catalog.MainEdition{
		Publisher:   publisher,
		Format:      format,
		Publication: timestampAt(details, "publicationTime"),
		Language:    langCode,
		ISBN:        isbn,
		ISBN13:      isbn13,
		ASIN:        asin,
	}
	if pages, ok := details["numPages"].(float64); ok {
		value := int(pages)
		edition.Pages = &value
	}
	return edition, nil
}

// parseBlurb は紹介文を抽出します。整形済みの変種キーが優先されます。
func parseBlurb(bookData map[string]any) string {
	if blurb, ok := bookData[`description({"stripped":true})`].(string); ok && blurb != "" {
		return strings.TrimSpace(blurb)
	}
	if blurb, ok := bookData["description"].(string); ok {
		return strings.TrimSpace(blurb)
	}
	return ""
}

func parseGenres(bookData map[string]any) ([]string, error) {
	items, err := childSlice(bookData, "bookGenres")
	if err != nil {
		return nil, err
	}
	var genres []string
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		genre, ok := entry["genre"].(map[string]any)
		if !ok {
			continue
		}
		if name, ok := genre["name"].(string); ok && name != "" {
			genres = append(genres, name)
		}
	}
	return genres, nil
}

func parseRatingsDist(stats map[string]any) (*catalog.FiveStars, error) {
	items, err := childSlice(stats, "ratingsCountDist")
	if err != nil {
		return nil, err
	}
	dist := make(map[float64]int, len(items))
	for i, item := range items {
		votes, ok := item.(float64)
		if !ok {
			return nil, parsingErrorf("評価ヒストグラムの形式が不正です: %v", items)
		}
		dist[float64(i+1)] = int(votes)
	}
	ratings, err := catalog.NewFiveStars(dist)
	if err != nil {
		return nil, parsingErrorf("評価ヒストグラムを構築できません: %v", err)
	}
	return ratings, nil
}

func parseReviewsDist(stats map[string]any) (*catalog.ReviewsDistribution, error) {
	items, err := childSlice(stats, "textReviewsLanguageCounts")
	if err != nil {
		return nil, err
	}
	dist := make(map[string]int, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		lang, _ := entry["isoLanguageCode"].(string)
		count, _ := entry["count"].(float64)
		if lang != "" {
			dist[lang] = int(count)
		}
	}
	return catalog.NewReviewsDistribution(dist), nil
}

func parseAwards(details map[string]any) ([]catalog.BookAward, error) {
	items, err := childSlice(details, "awardsWon")
	if err != nil {
		return nil, err
	}
	var awards []catalog.BookAward
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		webURL, _ := entry["webUrl"].(string)
		id := catalog.URLToID(webURL)
		if id == "" {
			continue
		}
		name, _ := entry["name"].(string)
		category, _ := entry["category"].(string)
		designation, _ := entry["designation"].(string)
		awards = append(awards, catalog.BookAward{
			Name:        name,
			ID:          id,
			Date:        timestampAt(entry, "awardedAt"),
			Category:    category,
			Designation: designation,
		})
	}
	return awards, nil
}

func parsePlaces(details map[string]any) ([]catalog.BookSetting, error) {
	items, err := childSlice(details, "places")
	if err != nil {
		return nil, err
	}
	var places []catalog.BookSetting
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		webURL, _ := entry["webUrl"].(string)
		id := catalog.URLToID(webURL)
		if id == "" {
			continue
		}
		name, _ := entry["name"].(string)
		country, _ := entry["countryName"].(string)
		place := catalog.BookSetting{Name: name, ID: id, Country: country}
		if year := yearAt(entry, "year"); year != nil {
			place.Year = year
		}
		places = append(places, place)
	}
	return places, nil
}

func parseCharacters(details map[string]any) ([]string, error) {
	items, err := childSlice(details, "characters")
	if err != nil {
		return nil, err
	}
	var characters []string
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := entry["name"].(string); ok && name != "" {
			characters = append(characters, name)
		}
	}
	return characters, nil
}

// --- 汎用アクセサ ---
// 想定キーの欠如はソース構造の変更を意味するため、恒久的エラーとして扱います。

func childMap(m map[string]any, key string) (map[string]any, error) {
	value, ok := m[key].(map[string]any)
	if !ok {
		return nil, parsingErrorf("'script' タグデータのキーが利用できません: %q", key)
	}
	return value, nil
}

func childSlice(m map[string]any, key string) ([]any, error) {
	raw, ok := m[key]
	if !ok {
		return nil, parsingErrorf("'script' タグデータのキーが利用できません: %q", key)
	}
	if raw == nil {
		return nil, nil
	}
	value, ok := raw.([]any)
	if !ok {
		return nil, parsingErrorf("'script' タグデータのキーが利用できません: %q", key)
	}
	return value, nil
}

func stringAt(m map[string]any, key string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", parsingErrorf("'script' タグデータのキーが利用できません: %q", key)
	}
	if raw == nil {
		return "", nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", parsingErrorf("'script' タグデータのキーが利用できません: %q", key)
	}
	return value, nil
}

func intAt(m map[string]any, key string) (int, error) {
	value, ok := m[key].(float64)
	if !ok {
		return 0, parsingErrorf("'script' タグデータのキーが利用できません: %q", key)
	}
	return int(value), nil
}

// timestampAt はミリ秒エポックの日時を読み取ります。欠如・null は妥当です。
func timestampAt(m map[string]any, key string) *time.Time {
	ms, ok := m[key].(float64)
	if !ok {
		return nil
	}
	// ソースのタイムスタンプはPST基準とみなし、-8時間の補正を適用する
	t := time.UnixMilli(int64(ms)).Add(-8 * time.Hour).UTC()
	return &t
}

// yearAt は年表記（数値または文字列）を年初の日時として読み取ります。
func yearAt(m map[string]any, key string) *time.Time {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil
	}
	var year int
	switch value := raw.(type) {
	case float64:
		year = int(value)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil
		}
		year = parsed
	default:
		return nil
	}
	if year == 0 {
		return nil
	}
	t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &t
}
