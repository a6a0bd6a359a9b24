package usecase

import (
	"fmt"
	"time"

	"github.com/Robotvalley19/Geocaching-App/pkg/logger"
	"github.com/go-resty/resty/v2"
)

// NewHTTPClient builds the upstream client shared by all workers. It is
// configured once here and only read afterwards.
func NewHTTPClient(userAgent string, timeout time.Duration, l logger.Logger) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetLogger(restyLogger{l})
}

// restyLogger routes resty's own messages to our logger at debug level; the
// fetcher already reports failures per tile.
type restyLogger struct {
	l logger.Logger
}

func (r restyLogger) Errorf(format string, v ...any) {
	r.l.Debug("resty: " + fmt.Sprintf(format, v...))
}

func (r restyLogger) Warnf(format string, v ...any) {
	r.l.Debug("resty: " + fmt.Sprintf(format, v...))
}

func (r restyLogger) Debugf(format string, v ...any) {
	r.l.Debug("resty: " + fmt.Sprintf(format, v...))
}
