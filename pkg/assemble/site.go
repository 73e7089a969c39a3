package assemble

import (
	"fmt"
	"strings"
)

// Site は、カタログサイトのURL構成を保持します。
// 設計はページ構成のパターンを一般化しており、ベースURLの差し替えで
// テスト用サーバーやミラーに向けられます。
type Site struct {
	BaseURL string
}

// DefaultSite は既定の対象サイトを返します。
func DefaultSite() Site {
	return Site{BaseURL: "https://www.goodreads.com"}
}

// SearchURL は名前検索のURLを返します。
func (s Site) SearchURL(query string) string {
	q := strings.Join(strings.Fields(query), "+")
	return fmt.Sprintf("%s/search?q=%s", s.BaseURL, q)
}

// AuthorListURL は著者の人気書籍一覧ページのURLを返します。
// extended を指定すると既定の30冊ではなく100冊分を要求します。
func (s Site) AuthorListURL(authorID string, extended bool) string {
	if extended {
		return fmt.Sprintf("%s/author/list/%s?page=1&per_page=100", s.BaseURL, authorID)
	}
	return fmt.Sprintf("%s/author/list/%s", s.BaseURL, authorID)
}

// BookURL は書籍プライマリページのURLを返します。
func (s Site) BookURL(bookID string) string {
	return fmt.Sprintf("%s/book/show/%s", s.BaseURL, bookID)
}

// SeriesURL はシリーズページのURLを返します。
func (s Site) SeriesURL(seriesID string) string {
	return fmt.Sprintf("%s/series/%s", s.BaseURL, seriesID)
}

// ShelvesURL は作品の本棚統計ページのURLを返します。
func (s Site) ShelvesURL(workID string) string {
	return fmt.Sprintf("%s/work/shelves/%s", s.BaseURL, workID)
}

// EditionsURL は版一覧ページのURLを返します。ページサイズは100固定です。
func (s Site) EditionsURL(workNumericID, page int) string {
	return fmt.Sprintf("%s/work/editions/%d?page=%d&per_page=100", s.BaseURL, workNumericID, page)
}
