package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rajatverma/kirana/pkg/logger"
	"github.com/rajatverma/kirana/pkg/response"
)

// Recovery catches any panic in downstream handlers, logs the stack trace,
// and returns a generic 500 to the client. The raw error never reaches
// the response body.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				stack := debug.Stack()
				logger.Error("panic recovered",
					"error", fmt.Sprintf("%v", err),
					"stack", string(stack),
					"method", r.Method,
					"path", r.URL.Path,
				)
				response.Internal(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
