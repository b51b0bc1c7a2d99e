package ingest

import (
	"context"

	"github.com/AngelCh415/ockno-signals/internal/utils"
)

// GetJSONWithRetry decodes the first 2xx answer from url into dst.
func GetJSONWithRetry(ctx context.Context, c HTTPClient, b utils.Backoff, url string, dst any) error {
	return b.Do(ctx, func(int) error {
		return getJSON(ctx, c, url, dst)
	})
}
