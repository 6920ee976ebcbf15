package middleware

import "net/http"

// HeaderRequestID carries the request identifier in both directions.
const HeaderRequestID = "X-Request-Id"

// Middleware wraps an http.Handler with additional behavior. It is the one
// middleware type of the server and is applied around the whole Gin engine.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middleware. The first in the list is the outermost
// (runs first on a request, last on a response).
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
