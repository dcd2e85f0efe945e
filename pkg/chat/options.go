package chat

import (
	"net/http"

	loggerpkg "github.com/minhyannv/chatgpt-repl/pkg/logger"
)

// Option configures optional runtime dependencies for Client and Session.
type Option func(*deps)

type deps struct {
	logger     loggerpkg.Logger
	httpClient *http.Client
}

func newDeps(opts []Option) deps {
	d := deps{logger: loggerpkg.NopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&d)
		}
	}
	d.logger = loggerpkg.OrNop(d.logger)
	return d
}

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) Option {
	return func(d *deps) {
		d.logger = l
	}
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(d *deps) {
		d.httpClient = c
	}
}
