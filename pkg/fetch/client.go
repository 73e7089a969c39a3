// Package fetch は、レート制限とリトライ方針を備えたページ取得クライアントを提供します。
//
// カタログサイトはホスト単位のスロットリングを敷いており、並列アクセスは
// IP単位のブロックを招くため、すべての取得は同一の最小間隔ゲートを通ります。
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// Fetcher はページ取得の抽象です。テストではスタブ実装が注入されます。
type Fetcher interface {
	FetchDocument(ctx context.Context, url string) (*goquery.Document, error)
}

// Config はクライアントの設定を保持します。
type Config struct {
	Timeout   time.Duration // HTTPリクエスト単体のタイムアウト
	MinDelay  time.Duration // 同一ホストへのリクエスト間の最小間隔
	MaxWait   time.Duration // 1取得あたりのリトライ待機上限
	UserAgent string
}

// DefaultConfig は既定の設定を返します。
// 最小間隔は、対象サイトで経験的に観測される強制スロットリング（約1秒）より
// 安全側に倒した 1.2 秒です。
func DefaultConfig() Config {
	return Config{
		Timeout:   15 * time.Second,
		MinDelay:  1200 * time.Millisecond,
		MaxWait:   DefaultMaxWait,
		UserAgent: "book-meta-pipe/1.0",
	}
}

// Client は Fetcher を実装する、ホスト単位レート制限付きのHTTPクライアントです。
type Client struct {
	httpClient *http.Client
	cfg        Config

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New はクライアントを初期化します。
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = DefaultConfig().MinDelay
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		limiters:   make(map[string]*rate.Limiter),
	}
}

// limiter は host 用のレートリミッタを返します（なければ作成）。
func (c *Client) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(c.cfg.MinDelay), 1)
	c.limiters[host] = l
	return l
}

// FetchDocument は、レート制限とリトライ方針の下で rawURL を取得し、
// パース済みドキュメントを返します。ネットワークを伴うすべての操作は
// このメソッドを経由します。
func (c *Client) FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	return WithBackoff(ctx, c.cfg.MaxWait, func() (*goquery.Document, error) {
		return c.fetchOnce(ctx, rawURL)
	})
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) (*goquery.Document, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("無効なURLです: %w", err)
	}
	if err := c.limiter(parsed.Hostname()).Wait(ctx); err != nil {
		return nil, err
	}

	slog.Info("リクエスト中", slog.String("url", rawURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("応答ボディをパースできません (URL: %s): %w", rawURL, err)
	}
	return doc, nil
}
