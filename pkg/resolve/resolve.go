// Package resolve は、自由形式の手がかり（著者名・書名と著者の組）を
// 正規のカタログIDへ解決するリゾルバを提供します。
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shouni/book-meta-pipe-go/pkg/assemble"
	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
	"github.com/shouni/book-meta-pipe-go/pkg/fetch"
)

// ResolutionError は、手がかりをカタログIDへ対応付けられないことを表します。
// 恒久的エラーであり、リトライされません。
type ResolutionError struct {
	Cue    string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("ID解決エラー (%q): %s", e.Cue, e.Reason)
}

func resolutionErrorf(cue, format string, args ...any) error {
	return &ResolutionError{Cue: cue, Reason: fmt.Sprintf(format, args...)}
}

// IsResolutionError は、エラーが恒久的なID解決エラーかどうかを判定します。
func IsResolutionError(err error) bool {
	var resErr *ResolutionError
	return errors.As(err, &resErr)
}

// Resolver は手がかりをカタログIDへ解決します。
//
// 解決は常に、構文的に妥当なID → オフライン参照データ → ネットワーク検索の
// 順で試みられ、先行する段で決まれば後続の（コストの高い）段は実行されません。
type Resolver struct {
	fetcher fetch.Fetcher
	site    assemble.Site
	authors *assemble.AuthorAssembler
}

// NewResolver は依存関係を注入して Resolver を初期化します。
func NewResolver(fetcher fetch.Fetcher, site assemble.Site, authors *assemble.AuthorAssembler) *Resolver {
	return &Resolver{fetcher: fetcher, site: site, authors: authors}
}

// ResolveAuthor は著者の手がかり（IDまたはフルネーム）を著者IDへ解決します。
func (r *Resolver) ResolveAuthor(ctx context.Context, author string) (string, error) {
	if catalog.IsValidID(author) {
		return author, nil
	}
	name := SanitizeInput(author)
	if name == "" {
		return "", resolutionErrorf(author, "著者の手がかりが空です")
	}
	return r.searchAuthorID(ctx, name)
}

// ResolveBook は書名と著者の組を書籍IDへ解決します。
// authorsData に過去に取得した著者データを渡すと、オフラインの照合が
// ネットワーク検索より優先されます。
func (r *Resolver) ResolveBook(ctx context.Context, title, author string, authorsData []catalog.Author) (string, error) {
	title, author = SanitizeInput(title), SanitizeInput(author)
	if title == "" || author == "" {
		return "", resolutionErrorf(title, "書籍の手がかりには書名と著者の両方が必要です")
	}
	if id := bookIDFromData(title, author, authorsData); id != "" {
		slog.Debug("書籍IDをオフラインで解決しました", "title", title, "id", id)
		return id, nil
	}
	return r.fetchBookID(ctx, title, author)
}

// --- ネットワーク検索 ---

// searchAuthorID は名前検索の結果から著者IDを抽出します。
// 候補リンクのうち、正規化した名前をURLに含む最初のものが採用されます。
func (r *Resolver) searchAuthorID(ctx context.Context, name string) (string, error) {
	url := r.site.SearchURL(name)
	doc, err := r.fetcher.FetchDocument(ctx, url)
	if err != nil {
		return "", err
	}
	spans := doc.Find(`span[itemprop="author"]`)
	if spans.Length() == 0 {
		return "", resolutionErrorf(name, "検索結果に著者データの 'span' タグがありません")
	}
	normalized := strings.ToLower(catalog.NormalizeName(name))
	var href string
	spans.EachWithBreak(func(_ int, span *goquery.Selection) bool {
		span.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			candidate, ok := a.Attr("href")
			if ok && strings.Contains(strings.ToLower(candidate), normalized) {
				href = candidate
				return false
			}
			return true
		})
		return href == ""
	})
	if href == "" {
		return "", resolutionErrorf(name, "検索結果に該当する著者のURLがありません")
	}
	// 'https://…/author/show/7415.Harlan_Ellison?from_search=true' のクエリ部を捨てる
	href, _, _ = strings.Cut(href, "?")
	id := catalog.URLToID(href)
	if id == "" {
		return "", resolutionErrorf(name, "URLから著者IDを抽出できません: %q", href)
	}
	return id, nil
}

// fetchBookID は著者ページを取得して書名を照合します。既定の30冊で見つから
// なければ、100冊分の拡張一覧でもう一度だけ試みます。
func (r *Resolver) fetchBookID(ctx context.Context, title, author string) (string, error) {
	authorID, err := r.ResolveAuthor(ctx, author)
	if err != nil {
		return "", err
	}
	record, err := r.authors.Assemble(ctx, authorID, false)
	if err != nil {
		return "", err
	}
	if book := findBookByTitle(record.TopBooks, title); book != nil {
		return book.ID, nil
	}
	record, err = r.authors.Assemble(ctx, authorID, true)
	if err != nil {
		return "", err
	}
	if book := findBookByTitle(record.TopBooks, title); book != nil {
		return book.ID, nil
	}
	return "", resolutionErrorf(title, "著者 %q の書籍一覧に該当する書名がありません", author)
}

// --- オフライン照合 ---

func bookIDFromData(title, author string, authorsData []catalog.Author) string {
	var match *catalog.Author
	for i := range authorsData {
		record := &authorsData[i]
		if catalog.IsValidID(author) {
			if record.ID == author {
				match = record
				break
			}
		} else if strings.EqualFold(record.Name, author) {
			match = record
			break
		}
	}
	if match == nil {
		return ""
	}
	if book := findBookByTitle(match.TopBooks, title); book != nil {
		return book.ID
	}
	return ""
}

// findBookByTitle は、段階的に緩い比較で書名を照合します。
// 完全一致 → アポストロフィ正規化後の一致 → 双方向の部分一致の順で、
// 最初に一致した書籍が採用されます。
func findBookByTitle(books []catalog.Book, title string) *catalog.Book {
	target := strings.ToLower(title)
	for i := range books {
		if strings.ToLower(books[i].Title) == target {
			return &books[i]
		}
	}
	straight := normalizeApostrophes(target)
	for i := range books {
		if normalizeApostrophes(strings.ToLower(books[i].Title)) == straight {
			return &books[i]
		}
	}
	for i := range books {
		candidate := strings.ToLower(books[i].Title)
		if strings.Contains(candidate, target) || strings.Contains(target, candidate) {
			return &books[i]
		}
	}
	return nil
}

func normalizeApostrophes(text string) string {
	return strings.ReplaceAll(text, "’", "'")
}
