package catalog

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// --- 詳細書籍レコードの構成要素 ---

// MainEdition は、書籍プライマリページが主版として報告する刊行情報です。
type MainEdition struct {
	Publisher   string
	Format      string
	Publication *time.Time
	Pages       *int
	Language    string
	ISBN        string
	ISBN13      string
	ASIN        string
}

type mainEditionPayload struct {
	Publisher   string `json:"publisher"`
	Format      string `json:"format"`
	Publication string `json:"publication,omitempty"`
	Pages       *int   `json:"pages,omitempty"`
	Language    string `json:"language,omitempty"`
	ISBN        string `json:"isbn,omitempty"`
	ISBN13      string `json:"isbn13,omitempty"`
	ASIN        string `json:"asin,omitempty"`
}

func (e MainEdition) MarshalJSON() ([]byte, error) {
	payload := mainEditionPayload{
		Publisher: e.Publisher,
		Format:    e.Format,
		Pages:     e.Pages,
		Language:  e.Language,
		ISBN:      e.ISBN,
		ISBN13:    e.ISBN13,
		ASIN:      e.ASIN,
	}
	if e.Publication != nil {
		payload.Publication = e.Publication.Format(ReadableTimestampFormat)
	}
	return json.Marshal(payload)
}

func (e *MainEdition) UnmarshalJSON(data []byte) error {
	var payload mainEditionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*e = MainEdition{
		Publisher: payload.Publisher,
		Format:    payload.Format,
		Pages:     payload.Pages,
		Language:  payload.Language,
		ISBN:      payload.ISBN,
		ISBN13:    payload.ISBN13,
		ASIN:      payload.ASIN,
	}
	if payload.Publication != "" {
		t, err := time.Parse(ReadableTimestampFormat, payload.Publication)
		if err != nil {
			return fmt.Errorf("主版の刊行日時を解釈できません: %w", err)
		}
		e.Publication = &t
	}
	return nil
}

// BookAward は書籍が獲得・ノミネートされた賞です。
type BookAward struct {
	Name        string
	ID          string
	Date        *time.Time
	Category    string
	Designation string
}

type bookAwardPayload struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Designation string `json:"designation"`
	Date        string `json:"date,omitempty"`
	Category    string `json:"category,omitempty"`
}

func (a BookAward) MarshalJSON() ([]byte, error) {
	payload := bookAwardPayload{
		Name:        a.Name,
		ID:          a.ID,
		Designation: a.Designation,
		Category:    a.Category,
	}
	if a.Date != nil {
		payload.Date = a.Date.Format(ReadableTimestampFormat)
	}
	return json.Marshal(payload)
}

func (a *BookAward) UnmarshalJSON(data []byte) error {
	var payload bookAwardPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*a = BookAward{
		Name:        payload.Name,
		ID:          payload.ID,
		Category:    payload.Category,
		Designation: payload.Designation,
	}
	if payload.Date != "" {
		t, err := time.Parse(ReadableTimestampFormat, payload.Date)
		if err != nil {
			return fmt.Errorf("受賞日時を解釈できません: %w", err)
		}
		a.Date = &t
	}
	return nil
}

// BookSetting は書籍の舞台となる場所です。
type BookSetting struct {
	Name    string
	ID      string
	Country string
	Year    *time.Time
}

type bookSettingPayload struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Country string `json:"country,omitempty"`
	Year    string `json:"year,omitempty"`
}

func (s BookSetting) MarshalJSON() ([]byte, error) {
	payload := bookSettingPayload{
		Name:    s.Name,
		ID:      s.ID,
		Country: s.Country,
	}
	if s.Year != nil {
		payload.Year = s.Year.Format(ReadableTimestampFormat)
	}
	return json.Marshal(payload)
}

func (s *BookSetting) UnmarshalJSON(data []byte) error {
	var payload bookSettingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*s = BookSetting{
		Name:    payload.Name,
		ID:      payload.ID,
		Country: payload.Country,
	}
	if payload.Year != "" {
		t, err := time.Parse(ReadableTimestampFormat, payload.Year)
		if err != nil {
			return fmt.Errorf("舞台の年を解釈できません: %w", err)
		}
		s.Year = &t
	}
	return nil
}

// BookDetails は、プライマリページの埋め込みメタデータから得られる詳細情報です。
// 空のオプション節（受賞歴なし、登場人物なし等）はダンプから丸ごと省かれます。
type BookDetails struct {
	Description string
	MainEdition MainEdition
	Genres      []string
	Awards      []BookAward
	Places      []BookSetting
	Characters  []string
}

type bookDetailsPayload struct {
	Description string        `json:"description"`
	MainEdition MainEdition   `json:"main_edition"`
	Genres      []string      `json:"genres,omitempty"`
	Awards      []BookAward   `json:"awards,omitempty"`
	Places      []BookSetting `json:"places,omitempty"`
	Characters  []string      `json:"characters,omitempty"`
}

func (d BookDetails) MarshalJSON() ([]byte, error) {
	return json.Marshal(bookDetailsPayload(d))
}

func (d *BookDetails) UnmarshalJSON(data []byte) error {
	var payload bookDetailsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*d = BookDetails(payload)
	return nil
}

// BookSeries は、シリーズページから得られる巻数→書籍IDの配置です。
// 配置が空（シリーズページはあるが 'Book N' 項目がない）ことは妥当な結果です。
type BookSeries struct {
	Title  string
	ID     string
	Layout map[float64]string
}

type bookSeriesPayload struct {
	Title  string            `json:"title"`
	ID     string            `json:"id"`
	Layout map[string]string `json:"layout,omitempty"`
}

func (s BookSeries) MarshalJSON() ([]byte, error) {
	layout := make(map[string]string, len(s.Layout))
	for numbering, bookID := range s.Layout {
		layout[strconv.FormatFloat(numbering, 'f', -1, 64)] = bookID
	}
	return json.Marshal(bookSeriesPayload{Title: s.Title, ID: s.ID, Layout: layout})
}

func (s *BookSeries) UnmarshalJSON(data []byte) error {
	var payload bookSeriesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	layout := make(map[float64]string, len(payload.Layout))
	for key, bookID := range payload.Layout {
		numbering, err := strconv.ParseFloat(key, 64)
		if err != nil {
			return fmt.Errorf("シリーズ配置の巻数キーが不正です: %q", key)
		}
		layout[numbering] = bookID
	}
	*s = BookSeries{Title: payload.Title, ID: payload.ID, Layout: layout}
	return nil
}

// --- 書籍統計 ---

// BookStats は書籍の人気統計の集約です。
type BookStats struct {
	Ratings *FiveStars
	Reviews *ReviewsDistribution
	// プライマリページが報告する総レビュー数。言語分布の合計より常に大きい。
	TotalReviews int
	// 本棚登録数→棚名。本棚ページの1ページ目のみ取得される。
	TopShelves   map[int]string
	TotalShelves int
	// ISO言語コード→版タイトル一覧。取得は10ページで打ち切られる。
	Editions      map[string][]string
	TotalEditions int
	Renown        Renown
}

// AvgRating は評価ヒストグラムから加重平均を返します。
func (s *BookStats) AvgRating() float64 {
	if s.Ratings == nil {
		return 0
	}
	return s.Ratings.AvgRating()
}

// TotalRatings は評価ヒストグラムの総票数を返します。
func (s *BookStats) TotalRatings() int {
	if s.Ratings == nil {
		return 0
	}
	return s.Ratings.Total()
}

// R2R は総レビュー数の総評価数に対する比率を返します。
func (s *BookStats) R2R() float64 {
	if s.TotalRatings() == 0 {
		return 0
	}
	return float64(s.TotalReviews) / float64(s.TotalRatings())
}

// TotalTopShelvings は上位の棚への登録数合計を返します。
func (s *BookStats) TotalTopShelvings() int {
	total := 0
	for shelvings := range s.TopShelves {
		total += shelvings
	}
	return total
}

// Sh2R は上位棚登録数の総評価数に対する比率を返します。
func (s *BookStats) Sh2R() float64 {
	if s.TotalRatings() == 0 {
		return 0
	}
	return float64(s.TotalTopShelvings()) / float64(s.TotalRatings())
}

// E2R は総版数の総評価数に対する比率を返します。
func (s *BookStats) E2R() float64 {
	if s.TotalRatings() == 0 {
		return 0
	}
	return float64(s.TotalEditions) / float64(s.TotalRatings())
}

type bookStatsPayload struct {
	Ratings           *FiveStars           `json:"ratings"`
	AvgRating         float64              `json:"avg_rating"`
	TotalRatings      int                  `json:"total_ratings"`
	Renown            Renown               `json:"renown"`
	Reviews           *ReviewsDistribution `json:"reviews"`
	TotalReviews      int                  `json:"total_reviews"`
	ReviewsToRatings  string               `json:"reviews_to_ratings,omitempty"`
	TopShelves        map[string]string    `json:"top_shelves"`
	TotalTopShelvings int                  `json:"total_top_shelvings,omitempty"`
	ShelvingsToRating string               `json:"shelvings_to_ratings,omitempty"`
	TotalShelves      int                  `json:"total_shelves"`
	Editions          map[string][]string  `json:"editions"`
	TotalEditions     int                  `json:"total_editions"`
	EditionsToRatings string               `json:"editions_to_ratings,omitempty"`
}

func (s BookStats) MarshalJSON() ([]byte, error) {
	topShelves := make(map[string]string, len(s.TopShelves))
	for shelvings, name := range s.TopShelves {
		topShelves[strconv.Itoa(shelvings)] = name
	}
	return json.Marshal(bookStatsPayload{
		Ratings:           s.Ratings,
		AvgRating:         math.Round(s.AvgRating()*10000) / 10000,
		TotalRatings:      s.TotalRatings(),
		Renown:            s.Renown,
		Reviews:           s.Reviews,
		TotalReviews:      s.TotalReviews,
		ReviewsToRatings:  formatPercent2(s.R2R() * 100),
		TopShelves:        topShelves,
		TotalTopShelvings: s.TotalTopShelvings(),
		ShelvingsToRating: formatPercent2(s.Sh2R() * 100),
		TotalShelves:      s.TotalShelves,
		Editions:          s.Editions,
		TotalEditions:     s.TotalEditions,
		EditionsToRatings: formatPercent3(s.E2R() * 100),
	})
}

func (s *BookStats) UnmarshalJSON(data []byte) error {
	var payload bookStatsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	topShelves := make(map[int]string, len(payload.TopShelves))
	for key, name := range payload.TopShelves {
		shelvings, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("上位棚の登録数キーが不正です: %q", key)
		}
		topShelves[shelvings] = name
	}
	*s = BookStats{
		Ratings:       payload.Ratings,
		Reviews:       payload.Reviews,
		TotalReviews:  payload.TotalReviews,
		TopShelves:    topShelves,
		TotalShelves:  payload.TotalShelves,
		Editions:      payload.Editions,
		TotalEditions: payload.TotalEditions,
		Renown:        payload.Renown,
	}
	return nil
}

// --- 詳細書籍レコード ---

// DetailedBook は、プライマリページと従属ページ群を統合した書籍レコードです。
type DetailedBook struct {
	Title            string
	OriginalTitle    string
	BookID           string
	WorkID           string
	Authors          []SimpleAuthor
	FirstPublication *time.Time
	Series           *BookSeries
	Details          BookDetails
	Stats            BookStats
}

// CompleteTitle は、シリーズ内の位置を含めた表記のタイトルを返します。
// 例: 'Dauntless (The Lost Fleet #1)'
func (b *DetailedBook) CompleteTitle() string {
	if b.Series == nil {
		return b.Title
	}
	for numbering, bookID := range b.Series.Layout {
		if bookID == b.BookID {
			num := strconv.FormatFloat(numbering, 'f', -1, 64)
			return fmt.Sprintf("%s (%s #%s)", b.Title, b.Series.Title, num)
		}
	}
	return b.Title
}

// TimeMetrics は、初版刊行からの経過年数で正規化した人気指標を返します。
func (b *DetailedBook) TimeMetrics(now time.Time) map[string]float64 {
	if b.FirstPublication == nil {
		return nil
	}
	years := now.Sub(*b.FirstPublication).Hours() / 24 / 365.25
	if years <= 0 {
		return nil
	}
	round2 := func(x float64) float64 { return math.Round(x*100) / 100 }
	return map[string]float64{
		"lifetime_in_years":  round2(years),
		"ratings_per_year":   round2(float64(b.Stats.TotalRatings()) / years),
		"reviews_per_year":   round2(float64(b.Stats.TotalReviews) / years),
		"shelvings_per_year": round2(float64(b.Stats.TotalShelves) / years),
		"editions_per_year":  round2(float64(b.Stats.TotalEditions) / years),
	}
}

type detailedBookPayload struct {
	Title            string         `json:"title"`
	CompleteTitle    string         `json:"complete_title,omitempty"`
	OriginalTitle    string         `json:"original_title,omitempty"`
	BookID           string         `json:"book_id"`
	WorkID           string         `json:"work_id"`
	Authors          []SimpleAuthor `json:"authors"`
	FirstPublication string         `json:"first_publication,omitempty"`
	Series           *BookSeries    `json:"series,omitempty"`
	Details          BookDetails    `json:"details"`
	Stats            map[string]any `json:"stats"`
}

func (b DetailedBook) MarshalJSON() ([]byte, error) {
	statsRaw, err := json.Marshal(b.Stats)
	if err != nil {
		return nil, err
	}
	stats := map[string]any{}
	if err := json.Unmarshal(statsRaw, &stats); err != nil {
		return nil, err
	}
	for key, value := range b.TimeMetrics(time.Now()) {
		stats[key] = value
	}
	payload := detailedBookPayload{
		Title:         b.Title,
		CompleteTitle: b.CompleteTitle(),
		OriginalTitle: b.OriginalTitle,
		BookID:        b.BookID,
		WorkID:        b.WorkID,
		Authors:       b.Authors,
		Series:        b.Series,
		Details:       b.Details,
		Stats:         stats,
	}
	if b.FirstPublication != nil {
		payload.FirstPublication = b.FirstPublication.Format(ReadableTimestampFormat)
	}
	return json.Marshal(payload)
}

func (b *DetailedBook) UnmarshalJSON(data []byte) error {
	var payload struct {
		Title            string         `json:"title"`
		OriginalTitle    string         `json:"original_title"`
		BookID           string         `json:"book_id"`
		WorkID           string         `json:"work_id"`
		Authors          []SimpleAuthor `json:"authors"`
		FirstPublication string         `json:"first_publication"`
		Series           *BookSeries    `json:"series"`
		Details          BookDetails    `json:"details"`
		Stats            BookStats      `json:"stats"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*b = DetailedBook{
		Title:         payload.Title,
		OriginalTitle: payload.OriginalTitle,
		BookID:        payload.BookID,
		WorkID:        payload.WorkID,
		Authors:       payload.Authors,
		Series:        payload.Series,
		Details:       payload.Details,
		Stats:         payload.Stats,
	}
	if payload.FirstPublication != "" {
		t, err := time.Parse(ReadableTimestampFormat, payload.FirstPublication)
		if err != nil {
			return fmt.Errorf("初版刊行日時を解釈できません: %w", err)
		}
		b.FirstPublication = &t
	}
	return nil
}

// SortBooksByTitle は、書籍レコードをタイトルの大文字小文字を無視した順に整列します。
func SortBooksByTitle(books []DetailedBook) {
	sort.SliceStable(books, func(i, j int) bool {
		return strings.ToLower(books[i].Title) < strings.ToLower(books[j].Title)
	})
}
