package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// ReadableTimestampFormat は、ダンプ内の日時表記に用いる可読フォーマットです。
const ReadableTimestampFormat = "2006-01-02 15:04:05"

// Provider は、スクレイピング対象のカタログサイト識別子です。
const Provider = "www.goodreads.com"

// --- 著者統計 ---

// AuthorStats は著者ページから取得される集計統計です。
type AuthorStats struct {
	AvgRating float64
	Ratings   int
	Reviews   int
	Shelvings int
}

// R2R はレビュー数の評価数に対する比率を返します。
func (s AuthorStats) R2R() float64 {
	if s.Ratings == 0 {
		return 0
	}
	return float64(s.Reviews) / float64(s.Ratings)
}

// Sh2R は本棚登録数の評価数に対する比率を返します。
func (s AuthorStats) Sh2R() float64 {
	if s.Ratings == 0 {
		return 0
	}
	return float64(s.Shelvings) / float64(s.Ratings)
}

type authorStatsPayload struct {
	AvgRating         float64 `json:"avg_rating"`
	Ratings           int     `json:"ratings"`
	Reviews           int     `json:"reviews"`
	Shelvings         int     `json:"shelvings"`
	ReviewsToRatings  string  `json:"reviews_to_ratings,omitempty"`
	ShelvingsToRating string  `json:"shelvings_to_ratings,omitempty"`
}

func (s AuthorStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(authorStatsPayload{
		AvgRating:         s.AvgRating,
		Ratings:           s.Ratings,
		Reviews:           s.Reviews,
		Shelvings:         s.Shelvings,
		ReviewsToRatings:  formatPercent2(s.R2R() * 100),
		ShelvingsToRating: formatPercent2(s.Sh2R() * 100),
	})
}

func (s *AuthorStats) UnmarshalJSON(data []byte) error {
	var payload authorStatsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	// 派生指標（比率の百分率表記）は読み戻さず、常に再計算する
	*s = AuthorStats{
		AvgRating: payload.AvgRating,
		Ratings:   payload.Ratings,
		Reviews:   payload.Reviews,
		Shelvings: payload.Shelvings,
	}
	return nil
}

// --- 著者ページの書籍行 ---

// Book は、著者ページの人気書籍一覧から取得される一冊分のデータです。
type Book struct {
	Title           string
	ID              string
	AvgRating       float64
	Ratings         int
	PublicationYear *int
	Editions        *int
	Renown          Renown
}

type bookPayload struct {
	Title           string  `json:"title"`
	ID              string  `json:"id"`
	AvgRating       float64 `json:"avg_rating"`
	Ratings         int     `json:"ratings"`
	PublicationYear *int    `json:"publication_year,omitempty"`
	Editions        *int    `json:"editions,omitempty"`
	Renown          Renown  `json:"renown"`
}

func (b Book) MarshalJSON() ([]byte, error) {
	return json.Marshal(bookPayload{
		Title:           b.Title,
		ID:              b.ID,
		AvgRating:       b.AvgRating,
		Ratings:         b.Ratings,
		PublicationYear: b.PublicationYear,
		Editions:        b.Editions,
		Renown:          b.Renown,
	})
}

func (b *Book) UnmarshalJSON(data []byte) error {
	var payload bookPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*b = Book{
		Title:           payload.Title,
		ID:              payload.ID,
		AvgRating:       payload.AvgRating,
		Ratings:         payload.Ratings,
		PublicationYear: payload.PublicationYear,
		Editions:        payload.Editions,
		Renown:          payload.Renown,
	}
	return nil
}

// --- 著者レコード ---

// Author は、人気書籍の完全なデータを持つ著者レコードです。
type Author struct {
	Name     string
	ID       string
	Stats    AuthorStats
	Renown   Renown
	TopBooks []Book
}

// TotalEditions は、版数が判明している人気書籍の版数合計を返します。
func (a *Author) TotalEditions() int {
	total := 0
	for _, book := range a.TopBooks {
		if book.Editions != nil {
			total += *book.Editions
		}
	}
	return total
}

type authorPayload struct {
	Name          string      `json:"name"`
	ID            string      `json:"id"`
	Stats         AuthorStats `json:"stats"`
	Renown        Renown      `json:"renown"`
	TotalEditions *int        `json:"total_editions,omitempty"`
	TopBooks      []Book      `json:"top_books"`
}

func (a Author) MarshalJSON() ([]byte, error) {
	total := a.TotalEditions()
	return json.Marshal(authorPayload{
		Name:          a.Name,
		ID:            a.ID,
		Stats:         a.Stats,
		Renown:        a.Renown,
		TotalEditions: &total,
		TopBooks:      a.TopBooks,
	})
}

func (a *Author) UnmarshalJSON(data []byte) error {
	var payload authorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*a = Author{
		Name:     payload.Name,
		ID:       payload.ID,
		Stats:    payload.Stats,
		Renown:   payload.Renown,
		TopBooks: payload.TopBooks,
	}
	return nil
}

// SimpleAuthor は、人気書籍をIDの一覧としてのみ持つ簡略版の著者レコードです。
//
// 完全な書籍データなしには版数合計を計算できないため、Author と異なり
// TotalEditions アクセサ自体を持ちません。
type SimpleAuthor struct {
	Name       string
	ID         string
	Stats      AuthorStats
	Renown     Renown
	TopBookIDs []string
}

type simpleAuthorPayload struct {
	Name     string      `json:"name"`
	ID       string      `json:"id"`
	Stats    AuthorStats `json:"stats"`
	Renown   Renown      `json:"renown"`
	TopBooks []string    `json:"top_books"`
}

func (a SimpleAuthor) MarshalJSON() ([]byte, error) {
	return json.Marshal(simpleAuthorPayload{
		Name:     a.Name,
		ID:       a.ID,
		Stats:    a.Stats,
		Renown:   a.Renown,
		TopBooks: a.TopBookIDs,
	})
}

func (a *SimpleAuthor) UnmarshalJSON(data []byte) error {
	var payload simpleAuthorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*a = SimpleAuthor{
		Name:       payload.Name,
		ID:         payload.ID,
		Stats:      payload.Stats,
		Renown:     payload.Renown,
		TopBookIDs: payload.TopBooks,
	}
	return nil
}

// SortAuthorsByName は、著者レコードを名前の大文字小文字を無視した順に整列します。
func SortAuthorsByName(authors []Author) {
	sort.SliceStable(authors, func(i, j int) bool {
		return strings.ToLower(authors[i].Name) < strings.ToLower(authors[j].Name)
	})
}

func formatPercent2(percent float64) string {
	return fmt.Sprintf("%.2f %%", percent)
}

func formatPercent3(percent float64) string {
	return fmt.Sprintf("%.3f %%", percent)
}
