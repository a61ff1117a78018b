package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project. WriteTimeout
// is HandlerDeadline plus a margin for writing the response.
func New(addr string, handler http.Handler, providerTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout(providerTimeout),
		IdleTimeout:       60 * time.Second,
	}
}

// writeMargin separates a handler's deadline from the write deadline so the
// response can still be written after the handler gives up.
const writeMargin = 5 * time.Second

// HandlerDeadline is how long a handler may work before it must answer with
// what it has.
func HandlerDeadline(providerTimeout time.Duration) time.Duration {
	if providerTimeout <= 0 {
		return 2*time.Minute - writeMargin
	}
	return 12 * providerTimeout
}

func writeTimeout(providerTimeout time.Duration) time.Duration {
	return HandlerDeadline(providerTimeout) + writeMargin
}
