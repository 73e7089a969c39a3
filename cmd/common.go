package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/book-meta-pipe-go/pkg/builder"
	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
	"github.com/shouni/book-meta-pipe-go/pkg/dump"
)

// コマンド全体のタイムアウトはHTTPタイムアウトの倍数とする。
// 1バッチは多数の逐次リクエストから成るため、十分に大きく取る。
const overallTimeoutMultiplier = 240

func overallTimeout() time.Duration {
	return time.Duration(Flags.TimeoutSec) * time.Second * overallTimeoutMultiplier
}

// buildPipeline は、アンカーデータと（あれば）過去の著者ダンプを読み込み、
// パイプライン一式を構築します。アンカーの欠損は致命的エラーです。
func buildPipeline(anchorPath, authorsDataPath string) (*builder.Pipeline, error) {
	anchor, err := dump.LoadAnchor(anchorPath)
	if err != nil {
		return nil, fmt.Errorf("アンカーデータの読み込みエラー: %w", err)
	}
	var authorsData []catalog.Author
	if authorsDataPath != "" {
		loaded, err := dump.LoadAuthors(authorsDataPath)
		if err != nil {
			return nil, fmt.Errorf("著者ダンプの読み込みエラー: %w", err)
		}
		authorsData = loaded.Authors
	}
	return builder.BuildPipeline(fetchConfig(), anchor, authorsData)
}

// addDumpFlags は、出力先と命名を制御する共通フラグを追加します。
func addDumpFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output-dir", "o", dump.DefaultOutputDir, "ダンプの出力先ディレクトリ")
	cmd.Flags().String("prefix", "", "ダンプファイル名の接頭辞")
	cmd.Flags().String("filename", "", "ダンプの完全なファイル名（指定時は接頭辞と日時を無視）")
	cmd.Flags().Bool("no-timestamp", false, "ファイル名に日時を埋め込まない")
}

// dumpConfigFromFlags は、共通フラグからダンプ設定を構築します。
func dumpConfigFromFlags(cmd *cobra.Command) dump.Config {
	cfg := dump.DefaultConfig()
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.OutputDir = dir
	}
	cfg.Prefix, _ = cmd.Flags().GetString("prefix")
	cfg.Filename, _ = cmd.Flags().GetString("filename")
	if noTimestamp, _ := cmd.Flags().GetBool("no-timestamp"); noTimestamp {
		cfg.UseTimestamp = false
	}
	return cfg
}
