package cmd

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shouni/book-meta-pipe-go/pkg/batch"
	"github.com/shouni/book-meta-pipe-go/pkg/dump"
)

// --- サブコマンド定義 ---

var refreshCmd = &cobra.Command{
	Use:   "refresh [ダンプファイル]",
	Short: "過去のダンプを読み込み、同じ対象を再収集して書き出します",
	Long: `過去に書き出した著者または書籍のダンプファイルを読み込み、記録済みの
カタログIDで同じ対象を再収集します。IDが既知のためID解決のネットワーク検索は
一切行われず、新しいダンプは元のファイルと同じディレクトリに書き出されます。`,

	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		dumpPath := args[0]
		anchorPath, _ := cmd.Flags().GetString("anchor")

		pipeline, err := buildPipeline(anchorPath, "")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), overallTimeout())
		defer cancel()

		cfg := dump.DefaultConfig()
		cfg.OutputDir = filepath.Dir(dumpPath)

		// 著者ダンプとして読めればそれを、だめなら書籍ダンプとして扱う
		if loaded, err := dump.LoadAuthors(dumpPath); err == nil && len(loaded.Authors) > 0 {
			ids := make([]string, 0, len(loaded.Authors))
			for _, author := range loaded.Authors {
				ids = append(ids, author.ID)
			}
			log.Printf("著者ダンプを再収集します (対象: %d 件)\n", len(ids))
			authors := pipeline.Scraper.CollectAuthors(ctx, ids)
			if len(authors) == 0 {
				return fmt.Errorf("著者レコードが1件も生成されませんでした")
			}
			cfg.Prefix = "authors"
			dest, err := dump.WriteAuthors(cfg, authors)
			if err != nil {
				return err
			}
			log.Printf("再収集完了 (収集: %d 件, 出力: %s)\n", len(authors), dest)
			return nil
		}

		loaded, err := dump.LoadBooks(dumpPath)
		if err != nil {
			return fmt.Errorf("ダンプファイルを解釈できません (%s): %w", dumpPath, err)
		}
		if len(loaded.Books) == 0 {
			return fmt.Errorf("ダンプファイルにレコードがありません: %s", dumpPath)
		}
		cues := make([]batch.BookCue, 0, len(loaded.Books))
		for _, book := range loaded.Books {
			cues = append(cues, batch.BookCue{ID: book.BookID})
		}
		log.Printf("書籍ダンプを再収集します (対象: %d 件)\n", len(cues))
		books := pipeline.Scraper.CollectBooks(ctx, cues)
		if len(books) == 0 {
			return fmt.Errorf("書籍レコードが1件も生成されませんでした")
		}
		cfg.Prefix = "books"
		dest, err := dump.WriteBooks(cfg, books)
		if err != nil {
			return err
		}
		log.Printf("再収集完了 (収集: %d 件, 出力: %s)\n", len(books), dest)
		return nil
	},
}

// --- フラグ初期化 ---

func initRefreshFlags() {
	refreshCmd.Flags().String("anchor", "", "知名度分類の基準となるアンカーデータファイル (必須)")
	refreshCmd.MarkFlagRequired("anchor")
}
