package cmd

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shouni/book-meta-pipe-go/pkg/dump"
)

// --- サブコマンド定義 ---

var anchorCmd = &cobra.Command{
	Use:   "anchor",
	Short: "知名度分類の基準となるアンカーデータを更新します",
	Long: `基準著者のデータを再収集し、アンカーデータファイルを上書きします。
アンカーを更新すると知名度スケール全体が移動するため、更新後のファイルは
ピン留めしてバージョン管理することを推奨します。既存のアンカーは更新中の
分類の基準として引き続き使われます。`,

	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		anchorPath, _ := cmd.Flags().GetString("anchor")
		author, _ := cmd.Flags().GetString("author")

		pipeline, err := buildPipeline(anchorPath, "")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), overallTimeout())
		defer cancel()

		log.Printf("アンカー著者を再収集します: %q\n", author)
		authors := pipeline.Scraper.CollectAuthors(ctx, []string{author})
		if len(authors) == 0 {
			return fmt.Errorf("アンカー著者のレコードが生成されませんでした: %q", author)
		}

		cfg := dump.Config{
			OutputDir:    filepath.Dir(anchorPath),
			Filename:     filepath.Base(anchorPath),
			UseTimestamp: false,
		}
		dest, err := dump.WriteAuthors(cfg, authors)
		if err != nil {
			return err
		}
		log.Printf("アンカーデータを更新しました: %s\n", dest)
		return nil
	},
}

// --- フラグ初期化 ---

func initAnchorFlags() {
	anchorCmd.Flags().String("anchor", "", "更新対象のアンカーデータファイル (必須)")
	anchorCmd.MarkFlagRequired("anchor")
	anchorCmd.Flags().String("author", "J.R.R. Tolkien", "アンカーとする基準著者の名前またはID")
}
