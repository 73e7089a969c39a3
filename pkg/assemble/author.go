// Package assemble は、単一エンティティ（著者・書籍）の従属ページ群を辿り、
// 正規化された中間レコードへ統合するアセンブラを提供します。
package assemble

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
	"github.com/shouni/book-meta-pipe-go/pkg/fetch"
)

// AuthorAssembler は著者ページを組み立てます。
//
// 著者の人気書籍一覧ページ（統計と人気書籍30冊、拡張時は100冊）を取得し、
// Author または SimpleAuthor レコードを構築します。
type AuthorAssembler struct {
	fetcher          fetch.Fetcher
	site             Site
	authorClassifier *catalog.RenownClassifier // アンカー著者の評価数が基準
	bookClassifier   *catalog.RenownClassifier // アンカー作品の評価数が基準
}

// NewAuthorAssembler は依存関係を注入して AuthorAssembler を初期化します。
func NewAuthorAssembler(fetcher fetch.Fetcher, site Site,
	authorClassifier, bookClassifier *catalog.RenownClassifier) *AuthorAssembler {
	return &AuthorAssembler{
		fetcher:          fetcher,
		site:             site,
		authorClassifier: authorClassifier,
		bookClassifier:   bookClassifier,
	}
}

// Assemble は著者IDから完全な著者レコードを組み立てます。
// extended を指定すると既定の30冊ではなく100冊分の人気書籍を取得します。
func (a *AuthorAssembler) Assemble(ctx context.Context, authorID string, extended bool) (*catalog.Author, error) {
	page, err := a.fetchPage(ctx, authorID, extended)
	if err != nil {
		return nil, err
	}
	books := make([]catalog.Book, 0, len(page.rows))
	for _, row := range page.rows {
		book, err := a.parseBookRow(row)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	author := &catalog.Author{
		Name:     page.name,
		ID:       authorID,
		Stats:    page.stats,
		TopBooks: books,
	}
	author.Renown, err = a.authorClassifier.Classify(page.stats.Ratings)
	if err != nil {
		return nil, err
	}
	return author, nil
}

// AssembleSimple は、人気書籍をID一覧としてのみ持つ簡略版レコードを組み立てます。
// 書籍プライマリページの寄稿者行から呼ばれる入れ子の組み立てはこちらに限定され、
// 寄稿者の全書誌まで再帰することはありません。
func (a *AuthorAssembler) AssembleSimple(ctx context.Context, authorID string) (*catalog.SimpleAuthor, error) {
	page, err := a.fetchPage(ctx, authorID, false)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(page.rows))
	for _, row := range page.rows {
		id, err := parseBookRowID(row)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	author := &catalog.SimpleAuthor{
		Name:       page.name,
		ID:         authorID,
		Stats:      page.stats,
		TopBookIDs: ids,
	}
	author.Renown, err = a.authorClassifier.Classify(page.stats.Ratings)
	if err != nil {
		return nil, err
	}
	return author, nil
}

// --- 著者ページのパース ---

type authorPage struct {
	name  string
	stats catalog.AuthorStats
	rows  []*goquery.Selection
}

func (a *AuthorAssembler) fetchPage(ctx context.Context, authorID string, extended bool) (*authorPage, error) {
	url := a.site.AuthorListURL(authorID, extended)
	doc, err := a.fetcher.FetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}
	container := doc.Find("div.leftContainer").First()
	if container.Length() == 0 {
		return nil, parsingErrorf("著者ページに 'leftContainer' タグがありません (ID: %s)", authorID)
	}
	nameTag := container.Find("a.authorName").First()
	if nameTag.Length() == 0 {
		return nil, parsingErrorf("著者名タグがありません (ID: %s)", authorID)
	}
	stats, err := parseAuthorStats(container)
	if err != nil {
		return nil, err
	}
	var rows []*goquery.Selection
	container.Find("table.tableList tr").Each(func(_ int, row *goquery.Selection) {
		rows = append(rows, row)
	})
	if len(rows) == 0 {
		return nil, parsingErrorf("著者ページに書籍一覧がありません (ID: %s)", authorID)
	}
	return &authorPage{
		name:  catalog.SanitizeText(nameTag.Text()),
		stats: *stats,
		rows:  rows,
	}, nil
}

// parseAuthorStats は統計行をパースします。想定される文字列の例:
//
//	'Average rating 4.17 · 197,169 ratings · 12,120 reviews · shelved 428,790 times'
func parseAuthorStats(container *goquery.Selection) (*catalog.AuthorStats, error) {
	div := container.Find(`div[class=""]`).First()
	if div.Length() == 0 {
		return nil, parsingErrorf("著者統計の 'div' タグがありません")
	}
	lines := strings.Split(strings.TrimSpace(div.Text()), "\n")
	if len(lines) < 2 {
		return nil, parsingErrorf("著者統計の形式が不正です: %q", div.Text())
	}
	parts := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		part := strings.Trim(strings.TrimSpace(line), " ·")
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) != 4 {
		return nil, parsingErrorf("著者統計は4要素でなければなりません: %v", parts)
	}
	avgRating, err := extractFloat(parts[0])
	if err != nil {
		return nil, parsingErrorf("平均評価をパースできません: %q", parts[0])
	}
	ratings, err := extractInt(parts[1])
	if err != nil {
		return nil, parsingErrorf("評価数をパースできません: %q", parts[1])
	}
	reviews, err := extractInt(parts[2])
	if err != nil {
		return nil, parsingErrorf("レビュー数をパースできません: %q", parts[2])
	}
	shelvings, err := extractInt(parts[3])
	if err != nil {
		return nil, parsingErrorf("本棚登録数をパースできません: %q", parts[3])
	}
	return &catalog.AuthorStats{
		AvgRating: avgRating,
		Ratings:   ratings,
		Reviews:   reviews,
		Shelvings: shelvings,
	}, nil
}

// parseBookRow は書籍一覧の1行を完全な Book レコードとしてパースします。
func (a *AuthorAssembler) parseBookRow(row *goquery.Selection) (*catalog.Book, error) {
	id, titleTag, err := parseBookRowLink(row)
	if err != nil {
		return nil, err
	}
	title, ok := titleTag.Attr("title")
	if !ok || title == "" {
		return nil, parsingErrorf("書籍行の 'a' タグに 'title' 属性がありません")
	}

	ratingsText := strings.TrimSpace(row.Find("span.minirating").First().Text())
	avgPart, ratingsPart, found := strings.Cut(ratingsText, " — ")
	if !found {
		return nil, parsingErrorf("書籍行の評価表記が不正です: %q", ratingsText)
	}
	avgRating, err := extractFloat(avgPart)
	if err != nil {
		return nil, parsingErrorf("書籍行の平均評価をパースできません: %q", avgPart)
	}
	ratings, err := extractInt(ratingsPart)
	if err != nil {
		return nil, parsingErrorf("書籍行の評価数をパースできません: %q", ratingsPart)
	}

	book := &catalog.Book{
		Title:           catalog.SanitizeText(title),
		ID:              id,
		AvgRating:       avgRating,
		Ratings:         ratings,
		PublicationYear: parsePublishedYear(row),
		Editions:        parseEditionsCount(row),
	}
	book.Renown, err = a.bookClassifier.Classify(ratings)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// parseBookRowID は書籍一覧の1行から書籍IDのみをパースします（簡略版用）。
func parseBookRowID(row *goquery.Selection) (string, error) {
	id, _, err := parseBookRowLink(row)
	return id, err
}

func parseBookRowLink(row *goquery.Selection) (string, *goquery.Selection, error) {
	a := row.Find("a").First()
	if a.Length() == 0 {
		return "", nil, parsingErrorf("書籍行にタイトルの 'a' タグがありません")
	}
	href, ok := a.Attr("href")
	if !ok || href == "" {
		return "", nil, parsingErrorf("書籍行の 'a' タグに 'href' 属性がありません")
	}
	id := catalog.URLToID(href)
	if id == "" {
		return "", nil, parsingErrorf("URLから書籍IDを抽出できません: %q", href)
	}
	return id, a, nil
}

// parsePublishedYear は行から刊行年を探します。見つからないのは妥当な結果です。
func parsePublishedYear(row *goquery.Selection) *int {
	var year *int
	row.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := span.Text()
		if !strings.Contains(text, "published") {
			return true
		}
		lines := strings.Split(strings.TrimSpace(text), "\n")
		for i, line := range lines {
			if strings.Contains(line, "published") && i+1 < len(lines) {
				if value, err := extractInt(lines[i+1]); err == nil {
					year = &value
				}
				return false
			}
		}
		return false
	})
	return year
}

// parseEditionsCount は行から版数を探します。見つからないのは妥当な結果です。
func parseEditionsCount(row *goquery.Selection) *int {
	var editions *int
	row.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.TrimSpace(a.Text())
		if !strings.Contains(text, "edition") {
			return true
		}
		if value, err := extractInt(text); err == nil {
			editions = &value
		}
		return false
	})
	return editions
}
