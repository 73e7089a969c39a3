// Package batch は、多数の手がかりに対するID解決と組み立ての逐次ファンアウトを
// 提供します。1件の失敗はログに隔離され、バッチ全体を中断しません。
package batch

import (
	"context"
	"iter"
	"log/slog"

	"github.com/shouni/book-meta-pipe-go/pkg/assemble"
	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
	"github.com/shouni/book-meta-pipe-go/pkg/resolve"
)

// BookCue は1冊分の手がかりです。ID があれば解決は不要で、なければ
// Title と Author の組から書籍IDが解決されます。
type BookCue struct {
	ID     string
	Title  string
	Author string
}

func (c BookCue) String() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Title + " / " + c.Author
}

// Scraper は手がかり列を駆動するバッチ処理の最上位です。
//
// 対象サイトのスロットリング方針により実行は常に逐次で、1件を最後まで
// 処理してから次へ進みます。並列ファンアウトは行いません。
type Scraper struct {
	resolver *resolve.Resolver
	authors  *assemble.AuthorAssembler
	books    *assemble.BookAssembler

	// 過去のダンプから読み込んだ著者データ。書籍IDのオフライン解決に使われる。
	authorsData []catalog.Author
}

// NewScraper は依存関係を注入して Scraper を初期化します。
func NewScraper(resolver *resolve.Resolver, authors *assemble.AuthorAssembler,
	books *assemble.BookAssembler, authorsData []catalog.Author) *Scraper {
	return &Scraper{
		resolver:    resolver,
		authors:     authors,
		books:       books,
		authorsData: authorsData,
	}
}

// Authors は著者の手がかり列を、入力順を保った著者レコードの遅延列に写します。
// 解決や組み立てに失敗した手がかりはログに記録され、列から除かれます。
func (s *Scraper) Authors(ctx context.Context, cues []string) iter.Seq2[string, *catalog.Author] {
	return func(yield func(string, *catalog.Author) bool) {
		for _, cue := range cues {
			author, err := s.scrapeAuthor(ctx, cue)
			if err != nil {
				slog.Error("著者の処理に失敗しました。次の手がかりへ進みます",
					"cue", cue, "error", err)
				continue
			}
			if !yield(cue, author) {
				return
			}
		}
	}
}

// Books は書籍の手がかり列を、入力順を保った書籍レコードの遅延列に写します。
// 失敗した手がかりはログに記録され、列から除かれます。
func (s *Scraper) Books(ctx context.Context, cues []BookCue) iter.Seq2[BookCue, *catalog.DetailedBook] {
	return func(yield func(BookCue, *catalog.DetailedBook) bool) {
		for _, cue := range cues {
			book, err := s.scrapeBook(ctx, cue)
			if err != nil {
				slog.Error("書籍の処理に失敗しました。次の手がかりへ進みます",
					"cue", cue.String(), "error", err)
				continue
			}
			if !yield(cue, book) {
				return
			}
		}
	}
}

// CollectAuthors はバッチを最後まで駆動し、名前順に整列した著者レコードを
// 返します。全件失敗で空になった場合は警告を記録します。
func (s *Scraper) CollectAuthors(ctx context.Context, cues []string) []catalog.Author {
	var records []catalog.Author
	for _, author := range s.Authors(ctx, cues) {
		records = append(records, *author)
	}
	if len(records) == 0 {
		slog.Warn("バッチから著者レコードが1件も生成されませんでした", "cues", len(cues))
		return records
	}
	catalog.SortAuthorsByName(records)
	return records
}

// CollectBooks はバッチを最後まで駆動し、書名順に整列した書籍レコードを
// 返します。全件失敗で空になった場合は警告を記録します。
func (s *Scraper) CollectBooks(ctx context.Context, cues []BookCue) []catalog.DetailedBook {
	var records []catalog.DetailedBook
	for _, book := range s.Books(ctx, cues) {
		records = append(records, *book)
	}
	if len(records) == 0 {
		slog.Warn("バッチから書籍レコードが1件も生成されませんでした", "cues", len(cues))
		return records
	}
	catalog.SortBooksByTitle(records)
	return records
}

func (s *Scraper) scrapeAuthor(ctx context.Context, cue string) (*catalog.Author, error) {
	id, err := s.resolver.ResolveAuthor(ctx, cue)
	if err != nil {
		return nil, err
	}
	return s.authors.Assemble(ctx, id, false)
}

func (s *Scraper) scrapeBook(ctx context.Context, cue BookCue) (*catalog.DetailedBook, error) {
	id := cue.ID
	if id == "" || !catalog.IsValidID(id) {
		var err error
		id, err = s.resolver.ResolveBook(ctx, cue.Title, cue.Author, s.authorsData)
		if err != nil {
			return nil, err
		}
	}
	return s.books.Assemble(ctx, id)
}
