// Package dump は、組み立てたレコード群のJSONダンプへの書き出しと、
// 過去のダンプおよびアンカーデータの読み戻しを提供します。
package dump

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shouni/go-utils/iohandler"

	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FilenameTimestampFormat はダンプファイル名に埋め込まれる日時の形式です。
const FilenameTimestampFormat = "20060102_150405"

// DefaultOutputDir は既定の出力先ディレクトリです。
const DefaultOutputDir = "temp/output"

// Config はダンプファイルの出力先と命名を制御します。
type Config struct {
	// ファイル名の接頭辞。'authors' なら 'authors_dump_20230101_120000.json' となる。
	Prefix string
	// 出力先ディレクトリ。空なら DefaultOutputDir が使われる。
	OutputDir string
	// 完全なファイル名の指定。指定時は Prefix と UseTimestamp は無視される。
	Filename string
	// ファイル名に日時を埋め込むかどうか。
	UseTimestamp bool
}

// DefaultConfig は既定のダンプ設定を返します。
func DefaultConfig() Config {
	return Config{OutputDir: DefaultOutputDir, UseTimestamp: true}
}

func (c Config) destination(now time.Time) string {
	dir := c.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	if c.Filename != "" {
		return filepath.Join(dir, c.Filename)
	}
	prefix := ""
	if c.Prefix != "" {
		prefix = c.Prefix + "_"
	}
	timestamp := ""
	if c.UseTimestamp {
		timestamp = "_" + now.Format(FilenameTimestampFormat)
	}
	return filepath.Join(dir, fmt.Sprintf("%sdump%s.json", prefix, timestamp))
}

// AuthorsDump は著者ダンプファイルの形です。
type AuthorsDump struct {
	Timestamp time.Time
	Provider  string
	Authors   []catalog.Author
}

// BooksDump は書籍ダンプファイルの形です。
type BooksDump struct {
	Timestamp time.Time
	Provider  string
	Books     []catalog.DetailedBook
}

type dumpPayload struct {
	Timestamp string                 `json:"timestamp"`
	Provider  string                 `json:"provider"`
	Authors   []catalog.Author       `json:"authors,omitempty"`
	Books     []catalog.DetailedBook `json:"books,omitempty"`
}

// WriteAuthors は著者レコード群をダンプファイルへ書き出し、出力先パスを返します。
func WriteAuthors(cfg Config, authors []catalog.Author) (string, error) {
	now := time.Now()
	payload := dumpPayload{
		Timestamp: now.Format(catalog.ReadableTimestampFormat),
		Provider:  catalog.Provider,
		Authors:   authors,
	}
	return write(cfg, now, payload)
}

// WriteBooks は書籍レコード群をダンプファイルへ書き出し、出力先パスを返します。
func WriteBooks(cfg Config, books []catalog.DetailedBook) (string, error) {
	now := time.Now()
	payload := dumpPayload{
		Timestamp: now.Format(catalog.ReadableTimestampFormat),
		Provider:  catalog.Provider,
		Books:     books,
	}
	return write(cfg, now, payload)
}

func write(cfg Config, now time.Time, payload dumpPayload) (string, error) {
	data, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return "", fmt.Errorf("ダンプのJSON変換に失敗しました: %w", err)
	}
	dest := cfg.destination(now)
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("出力ディレクトリを作成できません: %w", err)
		}
	}
	if err := iohandler.WriteOutputString(dest, string(data)); err != nil {
		return "", fmt.Errorf("ダンプの書き出しに失敗しました: %w", err)
	}
	slog.Info("ダンプを書き出しました", "dest", dest)
	return dest, nil
}

// LoadAuthors は WriteAuthors が書き出した著者ダンプを読み戻します。
func LoadAuthors(path string) (*AuthorsDump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("著者ダンプを読み込めません: %w", err)
	}
	var payload dumpPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("著者ダンプを解釈できません: %w", err)
	}
	timestamp, err := time.Parse(catalog.ReadableTimestampFormat, payload.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("著者ダンプの日時を解釈できません: %w", err)
	}
	return &AuthorsDump{
		Timestamp: timestamp,
		Provider:  payload.Provider,
		Authors:   payload.Authors,
	}, nil
}

// LoadBooks は WriteBooks が書き出した書籍ダンプを読み戻します。
func LoadBooks(path string) (*BooksDump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("書籍ダンプを読み込めません: %w", err)
	}
	var payload dumpPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("書籍ダンプを解釈できません: %w", err)
	}
	timestamp, err := time.Parse(catalog.ReadableTimestampFormat, payload.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("書籍ダンプの日時を解釈できません: %w", err)
	}
	return &BooksDump{
		Timestamp: timestamp,
		Provider:  payload.Provider,
		Books:     payload.Books,
	}, nil
}

// Anchor は知名度分類の基準となる著者と代表作の評価数です。
type Anchor struct {
	AuthorRatings int
	BookRatings   int
}

// LoadAnchor はアンカーデータファイルを読み込みます。アンカーは著者1名だけの
// ダンプ（代表作が先頭に来る人気書籍一覧つき）であり、欠損や不整合は
// 起動を中止すべき致命的エラーとして返されます。
func LoadAnchor(path string) (*Anchor, error) {
	loaded, err := LoadAuthors(path)
	if err != nil {
		return nil, fmt.Errorf("アンカーデータを読み込めません: %w", err)
	}
	if len(loaded.Authors) == 0 {
		return nil, fmt.Errorf("アンカーデータに著者がありません: %s", path)
	}
	author := loaded.Authors[0]
	if author.Stats.Ratings <= 0 {
		return nil, fmt.Errorf("アンカー著者の評価数が不正です: %d", author.Stats.Ratings)
	}
	if len(author.TopBooks) == 0 {
		return nil, fmt.Errorf("アンカー著者に人気書籍がありません: %s", path)
	}
	book := author.TopBooks[0]
	if book.Ratings <= 0 {
		return nil, fmt.Errorf("アンカー作品の評価数が不正です: %d", book.Ratings)
	}
	return &Anchor{AuthorRatings: author.Stats.Ratings, BookRatings: book.Ratings}, nil
}
