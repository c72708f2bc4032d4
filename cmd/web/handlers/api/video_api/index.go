package video_api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/ytingest/cmd/web/handlers/common"
	"thirdcoast.systems/ytingest/internal/db"
)

type VideoLister interface {
	ListVideos(ctx context.Context, minViews, minLikes int64) ([]*db.Video, error)
}

// HandleIndex lists stored videos filtered by min_views and min_likes.
func HandleIndex(videos VideoLister) echo.HandlerFunc {
	return func(c echo.Context) error {
		minViews, err := common.NonNegativeQueryInt(c, "min_views", 0)
		if err != nil {
			return err
		}
		minLikes, err := common.NonNegativeQueryInt(c, "min_likes", 0)
		if err != nil {
			return err
		}

		rows, err := videos.ListVideos(c.Request().Context(), minViews, minLikes)
		if err != nil {
			return common.FromIngest(err, "Database error")
		}

		return c.JSON(http.StatusOK, NewVideoResponses(rows))
	}
}
