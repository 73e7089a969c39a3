package cmd

import (
	"log"
	"time"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/book-meta-pipe-go/pkg/fetch"
)

// --- グローバル定数 ---

const (
	appName              = "book-meta-pipe"
	defaultTimeoutSec    = 15   // 秒 (対象サイトの応答が遅いことを考慮した初期値)
	defaultMaxWaitSec    = 60   // 秒 (リトライ全体の上限時間)
	defaultMinDelayMilli = 1200 // ミリ秒 (対象サイトのスロットリング方針に合わせた要求間隔)
)

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	TimeoutSec    int // --timeout HTTPリクエストのタイムアウト
	MaxWaitSec    int // --max-wait リトライ全体の上限時間
	MinDelayMilli int // --min-delay ホストごとの最小要求間隔
}

var Flags AppFlags // アプリケーション固有フラグにアクセスするためのグローバル変数

// fetchConfig はフラグ値から取得系の設定を構築します。
func fetchConfig() fetch.Config {
	cfg := fetch.DefaultConfig()
	cfg.Timeout = time.Duration(Flags.TimeoutSec) * time.Second
	cfg.MaxWait = time.Duration(Flags.MaxWaitSec) * time.Second
	cfg.MinDelay = time.Duration(Flags.MinDelayMilli) * time.Millisecond
	return cfg
}

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
// clibase.CustomFlagFunc のシグネチャに一致します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().IntVar(
		&Flags.TimeoutSec,
		"timeout",
		defaultTimeoutSec,
		"HTTPリクエストのタイムアウト時間（秒）",
	)
	rootCmd.PersistentFlags().IntVar(
		&Flags.MaxWaitSec,
		"max-wait",
		defaultMaxWaitSec,
		"リトライ全体の上限時間（秒）",
	)
	rootCmd.PersistentFlags().IntVar(
		&Flags.MinDelayMilli,
		"min-delay",
		defaultMinDelayMilli,
		"同一ホストへの最小要求間隔（ミリ秒）",
	)
}

// initAppPreRunE は、アプリケーション固有のPersistentPreRunEです。
// clibaseの共通処理の後に実行されます。
// NOTE: clibase.Flags.Verbose はこの関数実行前に設定済み
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	cfg := fetchConfig()

	// clibase.Flags の利用
	if clibase.Flags.Verbose {
		log.Printf("取得系を設定しました (Timeout: %s, MaxWait: %s, MinDelay: %s)。",
			cfg.Timeout, cfg.MaxWait, cfg.MinDelay)
	}

	return nil
}

// initCmdFlags は、すべてのサブコマンドのフラグを初期化します。
func initCmdFlags() {
	initAuthorsFlags()
	initBooksFlags()
	initRefreshFlags()
	initAnchorFlags()
}

// --- エントリポイント ---

// Execute は、rootCmd を実行するメイン関数です。
func Execute() {
	// initCmdFlags でサブコマンドのフラグを登録
	initCmdFlags()

	// ルートコマンドの構築と実行を clibase に全て委任
	// clibase.Execute を使用して、アプリケーションの初期化、フラグ設定、サブコマンドの登録を一括で行う
	clibase.Execute(
		appName,
		addAppPersistentFlags, // カスタムフラグの追加コールバック
		initAppPreRunE,        // カスタムPersistentPreRunEコールバック
		authorsCmd,
		booksCmd,
		refreshCmd,
		anchorCmd,
	)
}
