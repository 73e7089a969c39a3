package assemble

import (
	"errors"
	"fmt"
)

// ParsingError は、取得したページがパーサーの前提構造に一致しないことを表します。
// ソース側のマークアップ変更か、無効なIDを示す恒久的エラーであり、リトライされません。
type ParsingError struct {
	Reason string
}

func (e *ParsingError) Error() string {
	return "パースエラー: " + e.Reason
}

func parsingErrorf(format string, args ...any) error {
	return &ParsingError{Reason: fmt.Sprintf(format, args...)}
}

// IsParsingError は、エラーが恒久的なパースエラーかどうかを判定します。
func IsParsingError(err error) bool {
	var parseErr *ParsingError
	return errors.As(err, &parseErr)
}
