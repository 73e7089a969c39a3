// Package builder は、パイプライン全体の依存関係を構築する組み立て工場です。
package builder

import (
	"fmt"

	"github.com/shouni/book-meta-pipe-go/pkg/assemble"
	"github.com/shouni/book-meta-pipe-go/pkg/batch"
	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
	"github.com/shouni/book-meta-pipe-go/pkg/dump"
	"github.com/shouni/book-meta-pipe-go/pkg/fetch"
	"github.com/shouni/book-meta-pipe-go/pkg/resolve"
)

// Pipeline は構築済みの処理系一式です。
type Pipeline struct {
	Fetcher  fetch.Fetcher
	Site     assemble.Site
	Authors  *assemble.AuthorAssembler
	Books    *assemble.BookAssembler
	Resolver *resolve.Resolver
	Scraper  *batch.Scraper
}

// BuildPipeline は、必要な依存関係をすべて構築し、バッチ実行可能な
// パイプラインを返します。anchor は知名度分類の基準評価数を供給します。
// authorsData には過去のダンプの著者データを渡せます（省略可）。
func BuildPipeline(cfg fetch.Config, anchor *dump.Anchor, authorsData []catalog.Author) (*Pipeline, error) {
	// HTTP クライアント（ホスト別レート制限とリトライを内蔵）を初期化
	client := fetch.New(cfg)
	return buildWith(client, anchor, authorsData)
}

// BuildPipelineWith は、取得系を外部から注入してパイプラインを構築します（テスト用）。
func BuildPipelineWith(fetcher fetch.Fetcher, anchor *dump.Anchor, authorsData []catalog.Author) (*Pipeline, error) {
	return buildWith(fetcher, anchor, authorsData)
}

func buildWith(fetcher fetch.Fetcher, anchor *dump.Anchor, authorsData []catalog.Author) (*Pipeline, error) {
	if anchor == nil {
		return nil, fmt.Errorf("アンカーデータが必要です")
	}
	site := assemble.DefaultSite()

	// 知名度分類器を初期化（著者は基準著者、書籍は基準作品の評価数に対して分類）
	authorClassifier, err := catalog.NewRenownClassifier(anchor.AuthorRatings)
	if err != nil {
		return nil, fmt.Errorf("著者分類器の初期化エラー: %w", err)
	}
	bookClassifier, err := catalog.NewRenownClassifier(anchor.BookRatings)
	if err != nil {
		return nil, fmt.Errorf("書籍分類器の初期化エラー: %w", err)
	}

	// アセンブラとリゾルバを初期化
	authors := assemble.NewAuthorAssembler(fetcher, site, authorClassifier, bookClassifier)
	books := assemble.NewBookAssembler(fetcher, site, authors, bookClassifier)
	resolver := resolve.NewResolver(fetcher, site, authors)

	return &Pipeline{
		Fetcher:  fetcher,
		Site:     site,
		Authors:  authors,
		Books:    books,
		Resolver: resolver,
		Scraper:  batch.NewScraper(resolver, authors, books, authorsData),
	}, nil
}
