// Package feedcue は、RSS/Atomフィードの項目からバッチ処理用の書籍の
// 手がかりを抽出します。新刊紹介フィードをそのまま入力にするための入り口です。
package feedcue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-web-exact/v2/pkg/feed"

	"github.com/shouni/book-meta-pipe-go/pkg/batch"
)

// FeedParser はフィードの取得とパース機能を提供します。
type FeedParser interface {
	FetchAndParse(ctx context.Context, feedURL string) (*gofeed.Feed, error)
}

// Reader はフィードから書籍の手がかりを読み取ります。
type Reader struct {
	parser FeedParser
}

// New は、指定のクライアントタイムアウトでフィード取得系を構築します。
func New(clientTimeout time.Duration) *Reader {
	fetcher := httpkit.New(clientTimeout)
	return &Reader{parser: feed.NewParser(fetcher)}
}

// NewWithParser は依存関係を注入して Reader を初期化します（テスト用）。
func NewWithParser(parser FeedParser) *Reader {
	return &Reader{parser: parser}
}

// BookCues はフィードを取得し、各項目のタイトルを書籍の手がかりに変換します。
// 項目タイトルは 'Some Title by Author Name' の形式が想定され、
// 形式に合わない項目は警告とともに読み飛ばされます。
func (r *Reader) BookCues(ctx context.Context, feedURL string) ([]batch.BookCue, error) {
	rssFeed, err := r.parser.FetchAndParse(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("フィードの処理エラー: %w", err)
	}
	var cues []batch.BookCue
	for _, item := range rssFeed.Items {
		cue, ok := parseItemTitle(item.Title)
		if !ok {
			slog.Warn("フィード項目を手がかりに変換できません。読み飛ばします",
				"title", item.Title)
			continue
		}
		cues = append(cues, cue)
	}
	if len(cues) == 0 {
		return nil, fmt.Errorf("フィード (%s) から手がかりが一つも抽出されませんでした", feedURL)
	}
	slog.Info("フィードから手がかりを抽出", "feed_title", rssFeed.Title, "count", len(cues))
	return cues, nil
}

// parseItemTitle は項目タイトルを (書名, 著者名) に分割します。
// 書名自体に ' by ' が含まれる場合に備え、最後の区切りが採用されます。
func parseItemTitle(title string) (batch.BookCue, bool) {
	title = strings.TrimSpace(title)
	idx := strings.LastIndex(title, " by ")
	if idx <= 0 {
		return batch.BookCue{}, false
	}
	book := strings.TrimSpace(title[:idx])
	author := strings.TrimSpace(title[idx+len(" by "):])
	if book == "" || author == "" {
		return batch.BookCue{}, false
	}
	return batch.BookCue{Title: book, Author: author}, true
}
