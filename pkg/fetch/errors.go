package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// HTTPError は、2xx 以外のステータスコードを表します。
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTPエラー (status: %d, URL: %s)", e.StatusCode, e.URL)
}

// Retryable は、このステータスコードが一時的エラーとみなせるかを返します。
// 5xx とレート制限 (429) のみリトライ対象です。4xx はソース側の恒久的な応答です。
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// IsRetryable は、エラーがリトライ方針の対象（タイムアウトまたは一時的HTTPエラー）
// かどうかを判定します。
func IsRetryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
