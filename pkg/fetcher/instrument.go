package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

type startKeyType int

var startKey startKeyType

// instrument logs every outbound request and transport failure at debug
// level. Callers report failures themselves.
func instrument(client *resty.Client, logger *slog.Logger) {
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetContext(context.WithValue(req.Context(), startKey, time.Now()))
		logger.Debug("Fetching URL", "method", req.Method, "url", req.URL)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("Fetched URL",
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"duration", elapsed(resp.Request.Context()).String(),
		)
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		logger.Debug("Fetch failed",
			"url", req.URL,
			"duration", elapsed(req.Context()).String(),
			"error", err,
		)
	})
}

func elapsed(ctx context.Context) time.Duration {
	start, ok := ctx.Value(startKey).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}
