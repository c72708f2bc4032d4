package video_api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/ytingest/cmd/web/handlers/common"
	"thirdcoast.systems/ytingest/internal/ingest"
)

type Fetcher interface {
	Fetch(ctx context.Context, channelID string, maxResults int) (*ingest.FetchResult, error)
}

// HandleFetch pulls a channel's latest uploads from YouTube and stores them.
func HandleFetch(svc Fetcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		var channelID string
		maxResults := ingest.DefaultMaxResults
		if err := echo.QueryParamsBinder(c).
			MustString("channel_id", &channelID).
			Int("max_results", &maxResults).
			BindError(); err != nil {
			var be *echo.BindingError
			if errors.As(err, &be) && len(be.Values) == 0 {
				return common.ErrBadRequest(be.Field + ": field required")
			}
			return common.ErrBadRequest("max_results: must be an integer")
		}

		res, err := svc.Fetch(c.Request().Context(), channelID, maxResults)
		if err != nil {
			return common.FromIngest(err, "Database ingestion error")
		}

		return c.JSON(http.StatusOK, res)
	}
}
