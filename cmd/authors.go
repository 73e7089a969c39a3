package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/shouni/book-meta-pipe-go/pkg/dump"
)

// --- サブコマンド定義 ---

var authorsCmd = &cobra.Command{
	Use:   "authors [著者名またはID]...",
	Short: "著者データを収集してJSONダンプに書き出します",
	Long: `著者のフルネームまたはカタログIDを任意の数だけ指定し、各著者の統計と
人気書籍の一覧を収集してJSONダンプに書き出します。IDを指定した場合は
名前解決のリクエストが1回分少なくなります。`,

	Args: cobra.MinimumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		anchorPath, _ := cmd.Flags().GetString("anchor")

		pipeline, err := buildPipeline(anchorPath, "")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), overallTimeout())
		defer cancel()

		log.Printf("著者バッチ開始 (対象: %d 件)\n", len(args))
		authors := pipeline.Scraper.CollectAuthors(ctx, args)
		if len(authors) == 0 {
			return fmt.Errorf("著者レコードが1件も生成されませんでした")
		}

		cfg := dumpConfigFromFlags(cmd)
		if cfg.Prefix == "" && cfg.Filename == "" {
			cfg.Prefix = "authors"
		}
		dest, err := dump.WriteAuthors(cfg, authors)
		if err != nil {
			return err
		}
		log.Printf("著者バッチ完了 (収集: %d 件, 出力: %s)\n", len(authors), dest)
		return nil
	},
}

// --- フラグ初期化 ---

func initAuthorsFlags() {
	authorsCmd.Flags().String("anchor", "", "知名度分類の基準となるアンカーデータファイル (必須)")
	authorsCmd.MarkFlagRequired("anchor")
	addDumpFlags(authorsCmd)
}
