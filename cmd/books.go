package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/book-meta-pipe-go/pkg/batch"
	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
	"github.com/shouni/book-meta-pipe-go/pkg/dump"
	"github.com/shouni/book-meta-pipe-go/pkg/feedcue"
)

// --- サブコマンド定義 ---

var booksCmd = &cobra.Command{
	Use:   "books [書籍IDまたは '書名 by 著者名']...",
	Short: "書籍データを収集してJSONダンプに書き出します",
	Long: `カタログIDまたは '書名 by 著者名' 形式の手がかりを任意の数だけ指定し、
各書籍のプライマリページとシリーズ・本棚・版一覧の従属ページ群を収集して
JSONダンプに書き出します。--feed-url を指定すると、RSS/Atomフィードの
項目タイトルからも手がかりを追加します。--authors-data に過去の著者ダンプを
渡すと、書籍IDの解決がオフラインで済む場合にネットワーク検索を省きます。`,

	RunE: func(cmd *cobra.Command, args []string) error {
		anchorPath, _ := cmd.Flags().GetString("anchor")
		authorsDataPath, _ := cmd.Flags().GetString("authors-data")
		feedURL, _ := cmd.Flags().GetString("feed-url")

		cues := parseBookCues(args)
		if feedURL != "" {
			feedCues, err := fetchFeedCues(feedURL)
			if err != nil {
				return err
			}
			cues = append(cues, feedCues...)
		}
		if len(cues) == 0 {
			return fmt.Errorf("エラー: 書籍の手がかりを引数か --feed-url で指定してください")
		}

		pipeline, err := buildPipeline(anchorPath, authorsDataPath)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), overallTimeout())
		defer cancel()

		log.Printf("書籍バッチ開始 (対象: %d 件)\n", len(cues))
		books := pipeline.Scraper.CollectBooks(ctx, cues)
		if len(books) == 0 {
			return fmt.Errorf("書籍レコードが1件も生成されませんでした")
		}

		cfg := dumpConfigFromFlags(cmd)
		if cfg.Prefix == "" && cfg.Filename == "" {
			cfg.Prefix = "books"
		}
		dest, err := dump.WriteBooks(cfg, books)
		if err != nil {
			return err
		}
		log.Printf("書籍バッチ完了 (収集: %d 件, 出力: %s)\n", len(books), dest)
		return nil
	},
}

// parseBookCues は、コマンド引数を書籍の手がかりに変換します。
// 構文的に妥当なIDはそのまま、それ以外は '書名 by 著者名' として解釈します。
func parseBookCues(args []string) []batch.BookCue {
	var cues []batch.BookCue
	for _, arg := range args {
		if catalog.IsValidID(arg) {
			cues = append(cues, batch.BookCue{ID: arg})
			continue
		}
		idx := strings.LastIndex(arg, " by ")
		if idx <= 0 {
			log.Printf("手がかりを解釈できません。読み飛ばします: %q\n", arg)
			continue
		}
		cues = append(cues, batch.BookCue{
			Title:  strings.TrimSpace(arg[:idx]),
			Author: strings.TrimSpace(arg[idx+len(" by "):]),
		})
	}
	return cues
}

func fetchFeedCues(feedURL string) ([]batch.BookCue, error) {
	clientTimeout := time.Duration(Flags.TimeoutSec) * time.Second
	reader := feedcue.New(clientTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	return reader.BookCues(ctx, feedURL)
}

// --- フラグ初期化 ---

func initBooksFlags() {
	booksCmd.Flags().String("anchor", "", "知名度分類の基準となるアンカーデータファイル (必須)")
	booksCmd.MarkFlagRequired("anchor")
	booksCmd.Flags().String("authors-data", "", "書籍IDのオフライン解決に使う過去の著者ダンプ")
	booksCmd.Flags().String("feed-url", "", "書籍の手がかりを抽出するRSS/AtomフィードのURL")
	addDumpFlags(booksCmd)
}
