package middleware

import "net/http"

// DefaultMaxBodyBytes はリクエストボディの既定の上限（1 MiB）。
const DefaultMaxBodyBytes = 1 << 20

// NewMaxBytesMiddleware はリクエストボディのサイズを制限するミドルウェアを返す。
// 上限を超えたボディの読み取りは*http.MaxBytesErrorになり、ハンドラーが413を返す。
func NewMaxBytesMiddleware(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
