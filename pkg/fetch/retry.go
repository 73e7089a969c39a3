package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultMaxWait は、1回の取得操作に対するリトライ全体の待機上限です。
// この上限を越えた後は、エラーはそれ以上リトライされずに伝播します。
const DefaultMaxWait = 60 * time.Second

// WithBackoff は、一時的エラー（タイムアウト・5xx）に対して指数バックオフ付きで
// op をリトライします。恒久的エラーは即座に返されます。
// キャンセル機構はこの方針による打ち切りのみです（利用者起点の中断はありません）。
func WithBackoff[T any](ctx context.Context, maxWait time.Duration, op func() (T, error)) (T, error) {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxWait

	attempt := 0
	return backoff.RetryWithData(func() (T, error) {
		attempt++
		result, err := op()
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return result, backoff.Permanent(err)
		}
		slog.Warn(
			"一時的エラーが発生しました。バックオフ付きでリトライします",
			slog.Int("attempt", attempt),
			slog.Duration("max_wait", maxWait),
			slog.Any("error", err),
		)
		return result, err
	}, backoff.WithContext(policy, ctx))
}
