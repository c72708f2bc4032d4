package video_api

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/ytingest/cmd/web/handlers/common"
	"thirdcoast.systems/ytingest/internal/db"
	"thirdcoast.systems/ytingest/internal/signature"
)

type WebhookReceiver interface {
	Webhook(ctx context.Context, body []byte, sig string) (*db.Video, error)
}

type webhookResponse struct {
	Status  string `json:"status"`
	VideoID string `json:"video_id"`
}

// HandleWebhook accepts a signed push of a single video. The signature covers
// the raw body bytes, so the body is read whole before anything decodes it.
func HandleWebhook(svc WebhookReceiver) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return common.ErrBadRequest("could not read request body")
		}

		v, err := svc.Webhook(c.Request().Context(), body, c.Request().Header.Get(signature.Header))
		if err != nil {
			return common.FromIngest(err, "Database error")
		}

		return c.JSON(http.StatusOK, webhookResponse{Status: "ingested", VideoID: v.VideoID})
	}
}
