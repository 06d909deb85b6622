package middleware

import (
	"net/http"

	"github.com/hitoshi/adminconsole/internal/model"
)

// NewBodyLimitMiddleware はリクエストボディをmaxBytesに制限するミドルウェアを返す。
// 超過した場合、ボディの読み取りは*http.MaxBytesErrorを返す。
// maxBytesが0以下の場合は制限しない。
func NewBodyLimitMiddleware(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				r.Body.Close()
				WriteErrorResponse(w, r, http.StatusRequestEntityTooLarge, model.NewRequestTooLargeError(maxBytes))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
